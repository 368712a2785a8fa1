// Command tvl computes time-weighted TVL points from on-chain ledgers.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/etnz/tvl/cmd"
	"github.com/etnz/tvl/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// Answers shell completion requests (COMP_LINE set) and exits, no-op otherwise.
	completion(commander).Complete(name)

	flag.Parse()
	defer cmd.SetupLog().Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// completion describes the commands and their flags for shell completion.
func completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flagPredictors(flag.CommandLine),
	}
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		switch c.Name() {
		case "sort", "import":
			sub.Args = predict.Files("*.csv")
		case "topic":
			sub.Args = predict.Set(topicNames())
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = nil // takes no value.
			return
		}
		switch f.Name {
		case "class":
			flags[f.Name] = predict.Set{"native", "nft", "token"}
		case "config":
			flags[f.Name] = predict.Files("*.toml")
		case "o", "dump", "log-file":
			flags[f.Name] = predict.Files("*")
		default:
			flags[f.Name] = predict.Set{}
		}
	})
	return flags
}

func topicNames() []string {
	names, _ := docs.GetAllTopics()
	return append(names, "readme", "*")
}
