package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"iter"
	"log"
	"os"

	"github.com/etnz/tvl"
	"github.com/etnz/tvl/clickhouse"
	"github.com/etnz/tvl/config"
	"github.com/etnz/tvl/postgres"
	"github.com/etnz/tvl/renderer"
	"github.com/google/subcommands"
)

type computeCmd struct {
	output  string
	dump    string
	cutoff  string
	summary bool
	top     int
}

func (*computeCmd) Name() string     { return "compute" }
func (*computeCmd) Synopsis() string { return "compute the TVL points of every account" }
func (*computeCmd) Usage() string {
	return `tvl compute [-o <report.csv>] [-dump <results.jsonl>] [-summary]

Reduces the native, NFT and token ledgers concurrently into TVL points and
writes one CSV row per account:

  safe_address,tvl_eth,tvl_nfts,tvl_<coin_id>...,tvl_total

Ledgers are read from the CSV inputs of the configuration, or from Postgres
when postgres.DSN is set. Prices are read from the CSV inputs, or from
ClickHouse when clickhouse.DSN is set.

See 'tvl topic scoring' for the scoring rules.
`
}

func (c *computeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Report file. Defaults to output.Report of the configuration.")
	f.StringVar(&c.dump, "dump", "", "Also dump the raw results of every class to this JSONL file.")
	f.StringVar(&c.cutoff, "cutoff", "", "Override the configured cutoff date (excluded).")
	f.BoolVar(&c.summary, "summary", false, "Print a markdown summary of the run.")
	f.IntVar(&c.top, "top", 10, "Number of accounts listed in the summary.")
}

func (c *computeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "Error: compute takes no arguments")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail("loading config: %v", err)
	}
	if c.cutoff != "" {
		if err := cfg.Cutoff.UnmarshalText([]byte(c.cutoff)); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -cutoff: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	output := c.output
	if output == "" {
		output = cfg.Path(cfg.Output.Report)
	}

	market, err := loadMarket(ctx, cfg)
	if err != nil {
		return fail("loading prices: %v", err)
	}
	opts, err := cfg.Options(market)
	if err != nil {
		return fail("in config: %v", err)
	}

	ledgers, closer, err := openLedgers(ctx, cfg)
	if err != nil {
		return fail("opening ledgers: %v", err)
	}
	defer closer()

	jobs := make([]tvl.Job, 0, len(tvl.Classes))
	for _, class := range tvl.Classes {
		jobs = append(jobs, tvl.Job{Reducer: tvl.NewReducer(class, opts), Entries: ledgers[class]})
	}
	results, err := tvl.RunAll(jobs...)
	if err != nil {
		return fail("computing points: %v", err)
	}

	accounts, err := decodeFile(cfg.Path(cfg.Inputs.Accounts), tvl.DecodeAccounts)
	if err != nil {
		return fail("reading accounts: %v", err)
	}
	tokens, err := decodeFile(cfg.Path(cfg.Inputs.TokenList), tvl.DecodeTokens)
	if err != nil {
		return fail("reading token list: %v", err)
	}
	report, err := tvl.NewReport(accounts, tokens, results)
	if err != nil {
		return fail("assembling report: %v", err)
	}
	err = writeFile(output, func(w io.Writer) error { return tvl.EncodeReport(w, report) })
	if err != nil {
		return fail("writing report %q: %v", output, err)
	}

	if c.dump != "" {
		err := writeFile(c.dump, func(w io.Writer) error {
			for _, class := range tvl.Classes {
				if err := tvl.EncodeResultJSONL(w, class, results[class]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fail("writing dump %q: %v", c.dump, err)
		}
	}

	if c.summary {
		s := renderer.NewSummary(cfg.PriceWindow(), opts.Multipliers, results, c.top)
		printMarkdown(renderer.RenderSummary(s))
	}

	fmt.Printf("Successfully wrote %d accounts to %s\n", len(report.Rows), output)
	return subcommands.ExitSuccess
}

// loadMarket reads every price from ClickHouse when configured, from the CSV
// inputs otherwise.
func loadMarket(ctx context.Context, cfg *config.Config) (*tvl.Market, error) {
	market := tvl.NewMarket()
	if cfg.ClickHouse.DSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		store, err := clickhouse.NewPriceStore(conn, cfg.ClickHouse.Table)
		if err != nil {
			return nil, err
		}
		n, err := store.Load(ctx, market)
		if err != nil {
			return nil, err
		}
		log.Printf("loaded %d prices from clickhouse", n)
	} else {
		files, err := openAll(cfg.Path(cfg.Inputs.NativePrices), cfg.Path(cfg.Inputs.TokenPrices))
		if err != nil {
			return nil, err
		}
		defer closeAll(files)
		if err := market.DecodeNativePrices(files[0], files[0].Name()); err != nil {
			return nil, err
		}
		if err := market.DecodeTokenPrices(files[1], files[1].Name()); err != nil {
			return nil, err
		}
	}

	if missing := market.Coverage(tvl.NativeAsset, cfg.PriceWindow()); len(missing) > 0 {
		log.Printf("warning: %d days without native price, first is %s", len(missing), missing[0])
	}
	return market, nil
}

// openLedgers returns the sorted entry stream of every class. closer must be
// called once the streams are consumed.
func openLedgers(ctx context.Context, cfg *config.Config) (ledgers map[tvl.AssetClass]iter.Seq2[tvl.Entry, error], closer func(), err error) {
	ledgers = make(map[tvl.AssetClass]iter.Seq2[tvl.Entry, error], len(tvl.Classes))
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewLedgerStore(pool)
		for _, class := range tvl.Classes {
			ledgers[class] = store.Entries(ctx, class)
		}
		return ledgers, pool.Close, nil
	}

	inputs := map[tvl.AssetClass]string{
		tvl.Native: cfg.Path(cfg.Inputs.Native),
		tvl.NFT:    cfg.Path(cfg.Inputs.NFT),
		tvl.Token:  cfg.Path(cfg.Inputs.Tokens),
	}
	names := make([]string, len(tvl.Classes))
	for i, class := range tvl.Classes {
		names[i] = inputs[class]
	}
	files, err := openAll(names...)
	if err != nil {
		return nil, nil, err
	}
	for i, class := range tvl.Classes {
		ledgers[class] = tvl.DecodeTransfers(files[i], class, files[i].Name())
	}
	return ledgers, func() { closeAll(files) }, nil
}

// decodeFile opens name and decodes it with decode.
func decodeFile[T any](name string, decode func(io.Reader, string) (T, error)) (T, error) {
	f, err := os.Open(name)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return decode(f, name)
}
