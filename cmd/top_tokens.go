package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/tvl"
	"github.com/etnz/tvl/coingecko"
	"github.com/etnz/tvl/date"
	"github.com/google/subcommands"
)

type topTokensCmd struct {
	n      int
	output string
	on     string
}

func (*topTokensCmd) Name() string     { return "top-tokens" }
func (*topTokensCmd) Synopsis() string { return "select the largest Ethereum tokens by market cap" }
func (*topTokensCmd) Usage() string {
	return `tvl top-tokens [-n <count>] [-d <date>] [-o <erc20.csv>]

Lists every CoinGecko coin with an Ethereum contract, fetches its market cap
on the given date, and writes the largest ones as the token list:

  coin_id,address,market_cap

Coins without market data are skipped.
`
}

func (c *topTokensCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", 0, "Number of tokens to keep. Defaults to coingecko.TopN of the configuration.")
	f.StringVar(&c.output, "o", "", "Token list file. Defaults to inputs.TokenList of the configuration.")
	f.StringVar(&c.on, "d", "", "Market cap date. Defaults to coingecko.MarketCapDate of the configuration.")
}

func (c *topTokensCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail("loading config: %v", err)
	}
	n, output, on := c.n, c.output, cfg.CoinGecko.MarketCapDate
	if n <= 0 {
		n = cfg.CoinGecko.TopN
	}
	if output == "" {
		output = cfg.Path(cfg.Inputs.TokenList)
	}
	if c.on != "" {
		if on, err = date.Parse(c.on); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -d: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	client := newCoinGecko(cfg)
	tokens, err := client.EthereumTokens(ctx)
	if err != nil {
		return fail("listing tokens: %v", err)
	}
	tokens, err = client.MarketCaps(ctx, tokens, on)
	if err != nil {
		return fail("fetching market caps: %v", err)
	}
	top := coingecko.TopTokens(tokens, n)
	if err := writeFile(output, func(w io.Writer) error { return tvl.EncodeTokens(w, top) }); err != nil {
		return fail("writing %q: %v", output, err)
	}
	fmt.Printf("Successfully wrote %d tokens to %s\n", len(top), output)
	return subcommands.ExitSuccess
}
