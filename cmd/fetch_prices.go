package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/etnz/tvl"
	"github.com/etnz/tvl/clickhouse"
	"github.com/etnz/tvl/coingecko"
	"github.com/etnz/tvl/config"
	"github.com/google/subcommands"
)

type fetchPricesCmd struct {
	nativeOnly bool
}

func (*fetchPricesCmd) Name() string     { return "fetch-prices" }
func (*fetchPricesCmd) Synopsis() string { return "fetch daily USD prices from CoinGecko" }
func (*fetchPricesCmd) Usage() string {
	return `tvl fetch-prices [-native-only]

Fetches the daily USD prices of the native coin and of every token of the
token list over the configured window [PriceStart, Cutoff), and writes them
to the price CSV inputs. When clickhouse.DSN is set, prices are also stored
in ClickHouse.

Responses are cached on disk for the day, calls are rate limited and an
HTTP 429 answer is retried once after coingecko.RetryWait.
`
}

func (c *fetchPricesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.nativeOnly, "native-only", false, "Only fetch the native coin prices.")
}

func (c *fetchPricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail("loading config: %v", err)
	}
	client := newCoinGecko(cfg)
	window := cfg.PriceWindow()
	market := tvl.NewMarket()

	log.Printf("fetching %s prices over %s", cfg.CoinGecko.NativeCoin, window)
	h, err := client.PriceRange(ctx, cfg.CoinGecko.NativeCoin, window)
	if err != nil {
		return fail("fetching native prices: %v", err)
	}
	for on, price := range h.Values() {
		market.Append(tvl.NativeAsset, on, price)
	}
	if missing := market.Coverage(tvl.NativeAsset, window); len(missing) > 0 {
		log.Printf("warning: %d days without native price", len(missing))
	}

	if !c.nativeOnly {
		tokens, err := decodeFile(cfg.Path(cfg.Inputs.TokenList), tvl.DecodeTokens)
		if err != nil {
			return fail("reading token list: %v", err)
		}
		for i, t := range tokens {
			log.Printf("%d: %s", i, t.CoinID)
			h, err := client.PriceRange(ctx, t.CoinID, window)
			if err != nil {
				return fail("fetching %s prices: %v", t.CoinID, err)
			}
			for on, price := range h.Values() {
				market.Append(t.Address, on, price)
			}
		}
	}

	nativeFile := cfg.Path(cfg.Inputs.NativePrices)
	if err := writeFile(nativeFile, market.EncodeNativePrices); err != nil {
		return fail("writing %q: %v", nativeFile, err)
	}
	if !c.nativeOnly {
		tokenFile := cfg.Path(cfg.Inputs.TokenPrices)
		if err := writeFile(tokenFile, market.EncodeTokenPrices); err != nil {
			return fail("writing %q: %v", tokenFile, err)
		}
	}

	if cfg.ClickHouse.DSN != "" {
		n, err := storePrices(ctx, cfg, market)
		if err != nil {
			return fail("storing prices in clickhouse: %v", err)
		}
		log.Printf("stored %d prices in clickhouse", n)
	}

	fmt.Printf("Successfully fetched prices of %d assets\n", len(market.Assets()))
	return subcommands.ExitSuccess
}

func newCoinGecko(cfg *config.Config) *coingecko.Client {
	opts := []coingecko.Option{
		coingecko.WithRate(cfg.CoinGecko.PerMinute),
		coingecko.WithRetryWait(cfg.CoinGecko.RetryWait),
	}
	if cfg.CoinGecko.BaseURL != "" {
		opts = append(opts, coingecko.WithBaseURL(cfg.CoinGecko.BaseURL))
	}
	if key := cfg.CoinGecko.APIKey; key != "" {
		opts = append(opts, coingecko.WithAPIKey(key))
	} else if key := os.Getenv("COINGECKO_API_KEY"); key != "" {
		opts = append(opts, coingecko.WithAPIKey(key))
	}
	if cfg.CoinGecko.CacheDir != "" {
		opts = append(opts, coingecko.WithCache(cfg.CoinGecko.CacheDir))
	}
	return coingecko.New(opts...)
}

func storePrices(ctx context.Context, cfg *config.Config, market *tvl.Market) (int, error) {
	conn, err := clickhouse.NewConn(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	store, err := clickhouse.NewPriceStore(conn, cfg.ClickHouse.Table)
	if err != nil {
		return 0, err
	}
	if err := store.Migrate(ctx); err != nil {
		return 0, err
	}
	return store.InsertBulk(ctx, market)
}

