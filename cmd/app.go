// Package cmd implements the tvl command line application.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/tvl/config"
	"github.com/google/subcommands"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Group is a set of subcommands listed together in the help.
type Group struct {
	Name     string
	Commands []subcommands.Command
}

// Groups lists every subcommand of the application.
var Groups = []Group{
	{"scoring", []subcommands.Command{&computeCmd{}}},
	{"data", []subcommands.Command{&fetchPricesCmd{}, &topTokensCmd{}, &sortCmd{}, &importCmd{}}},
	{"help", []subcommands.Command{&topicCmd{}}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range Groups {
		for _, cmd := range g.Commands {
			c.Register(cmd, g.Name)
		}
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "tvl.toml", "Path to the run configuration (TOML). Defaults apply when the file does not exist.")
var logFile = flag.String("log-file", "", "Write logs to this file, rotated every 10MB, instead of stderr.")

// SetupLog redirects the log output when -log-file is set. The returned
// closer must be closed before exiting.
func SetupLog() io.Closer {
	if *logFile == "" {
		return io.NopCloser(nil)
	}
	l := &lumberjack.Logger{
		Filename:   *logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(l)
	return l
}

// loadConfig loads the configuration file given by -config.
func loadConfig() (*config.Config, error) {
	return config.Load(*configFile)
}

// printMarkdown renders md for the terminal, or prints it raw when it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	log.Printf("cannot render markdown (ignored): %v", err)
	fmt.Print(md)
}

// writeFile writes a file through a temporary sibling renamed on success, so
// that a failure never leaves a truncated file behind.
func writeFile(name string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

// openAll opens every named file, closing the already opened ones on error.
func openAll(names ...string) ([]*os.File, error) {
	files := make([]*os.File, 0, len(names))
	for _, name := range names {
		f, err := os.Open(name)
		if err != nil {
			closeAll(files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}

// fail prints the error and returns the failure status.
func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error "+format+"\n", args...)
	return subcommands.ExitFailure
}
