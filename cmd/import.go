package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tvl"
	"github.com/etnz/tvl/postgres"
	"github.com/google/subcommands"
)

type importCmd struct {
	class string
	batch int
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a transfers file into Postgres" }
func (*importCmd) Usage() string {
	return `tvl import -class <native|nft|token> <transfers.csv>

Copies a transfers file into the transfers table of postgres.DSN, creating
the table if needed. The file does not need to be sorted, compute reads the
table in the right order.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.class, "class", "", "Asset class of the file: native, nft or token.")
	f.IntVar(&c.batch, "batch", 50000, "Number of rows copied per batch.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: import requires exactly one transfers file")
		return subcommands.ExitUsageError
	}
	class, err := tvl.ParseAssetClass(c.class)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.batch <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -batch must be positive")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail("loading config: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		return fail("postgres.DSN is not set in %s", *configFile)
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fail("connecting: %v", err)
	}
	defer pool.Close()
	if err := pool.Migrate(ctx); err != nil {
		return fail("migrating: %v", err)
	}
	store := postgres.NewLedgerStore(pool)

	in, err := os.Open(f.Arg(0))
	if err != nil {
		return fail("opening %q: %v", f.Arg(0), err)
	}
	defer in.Close()

	var (
		total int64
		batch = make([]tvl.Entry, 0, c.batch)
	)
	flush := func() error {
		n, err := store.InsertBulk(ctx, class, batch)
		total += n
		batch = batch[:0]
		return err
	}
	for e, err := range tvl.DecodeTransfers(in, class, in.Name()) {
		if err != nil {
			return fail("reading: %v", err)
		}
		batch = append(batch, e)
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return fail("importing: %v", err)
			}
		}
	}
	if err := flush(); err != nil {
		return fail("importing: %v", err)
	}
	fmt.Printf("Successfully imported %d %s transfers\n", total, class)
	return subcommands.ExitSuccess
}
