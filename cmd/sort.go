package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/tvl"
	"github.com/google/subcommands"
)

type sortCmd struct {
	class  string
	output string
}

func (*sortCmd) Name() string     { return "sort" }
func (*sortCmd) Synopsis() string { return "sort a transfers file by account, asset and day" }
func (*sortCmd) Usage() string {
	return `tvl sort -class <native|nft|token> [-o <output>] <transfers.csv>

Sorts a transfers file in the order compute expects: by account, then asset,
then day. Rows of the same day keep their relative order. The file is
rewritten in place unless -o is given.
`
}

func (c *sortCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.class, "class", "", "Asset class of the file: native, nft or token.")
	f.StringVar(&c.output, "o", "", "Output file. Defaults to the input file.")
}

func (c *sortCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: sort requires exactly one transfers file")
		return subcommands.ExitUsageError
	}
	class, err := tvl.ParseAssetClass(c.class)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	input := f.Arg(0)
	output := c.output
	if output == "" {
		output = input
	}

	in, err := os.Open(input)
	if err != nil {
		return fail("opening %q: %v", input, err)
	}
	defer in.Close()

	err = writeFile(output, func(w io.Writer) error { return tvl.SortTransfers(in, w, class) })
	if err != nil {
		return fail("sorting %q: %v", input, err)
	}
	fmt.Printf("Successfully sorted %s into %s\n", input, output)
	return subcommands.ExitSuccess
}
