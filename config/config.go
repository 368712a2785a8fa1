// Package config loads the run configuration of the tvl command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/etnz/tvl"
	"github.com/etnz/tvl/date"
)

// Config is a run configuration, usually read from tvl.toml.
type Config struct {
	Cutoff      date.Date        `toml:"Cutoff"`
	PriceStart  date.Date        `toml:"PriceStart"`
	Multipliers map[string]int64 `toml:"Multipliers"`
	Rebasing    []string         `toml:"Rebasing"`

	Inputs     Inputs     `toml:"inputs"`
	Output     Output     `toml:"output"`
	Postgres   Postgres   `toml:"postgres"`
	ClickHouse ClickHouse `toml:"clickhouse"`
	CoinGecko  CoinGecko  `toml:"coingecko"`

	dir string // directory of the file, relative paths are resolved from it.
}

// Inputs lists the CSV files read by compute.
type Inputs struct {
	Native       string `toml:"Native"`
	NFT          string `toml:"NFT"`
	Tokens       string `toml:"Tokens"`
	NativePrices string `toml:"NativePrices"`
	TokenPrices  string `toml:"TokenPrices"`
	TokenList    string `toml:"TokenList"`
	Accounts     string `toml:"Accounts"`
}

// Output lists the files written by compute.
type Output struct {
	Report string `toml:"Report"`
}

// Postgres configures the ledger source. An empty DSN reads the CSV inputs.
type Postgres struct {
	DSN string `toml:"DSN"`
}

// ClickHouse configures the price source. An empty DSN reads the CSV inputs.
type ClickHouse struct {
	DSN   string `toml:"DSN"`
	Table string `toml:"Table"`
}

// CoinGecko configures the price fetcher.
type CoinGecko struct {
	BaseURL       string        `toml:"BaseURL"`
	APIKey        string        `toml:"APIKey"`
	PerMinute     int           `toml:"PerMinute"`
	RetryWait     time.Duration `toml:"RetryWait"`
	CacheDir      string        `toml:"CacheDir"`
	NativeCoin    string        `toml:"NativeCoin"`
	TopN          int           `toml:"TopN"`
	MarketCapDate date.Date     `toml:"MarketCapDate"`
}

// Default returns the configuration of the 2022-02-09 snapshot.
func Default() *Config {
	return &Config{
		Cutoff:      date.New(2022, time.February, 9),
		PriceStart:  date.New(2018, time.November, 25),
		Multipliers: map[string]int64{"2018": 5, "2019": 4, "2020": 3, "2021": 2},
		Rebasing:    append([]string(nil), tvl.DefaultRebasing...),
		Inputs: Inputs{
			Native:       "transfers_eth.csv",
			NFT:          "transfers_nfts.csv",
			Tokens:       "transfers_erc20.csv",
			NativePrices: "prices_eth.csv",
			TokenPrices:  "prices_erc20.csv",
			TokenList:    "erc20_top100.csv",
			Accounts:     "safes.csv",
		},
		Output:     Output{Report: "tvl.csv"},
		ClickHouse: ClickHouse{Table: "prices"},
		CoinGecko: CoinGecko{
			PerMinute:     10,
			RetryWait:     2 * time.Minute,
			CacheDir:      filepath.Join(os.TempDir(), "tvl-cache"),
			NativeCoin:    "ethereum",
			TopN:          100,
			MarketCapDate: date.New(2022, time.February, 9),
		},
	}
}

// Load reads the configuration at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	cfg.dir = filepath.Dir(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	defaults := cfg.Multipliers
	cfg.Multipliers = nil // replaced as a whole, not merged.
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %q: %w", path, err)
	}
	if cfg.Multipliers == nil {
		cfg.Multipliers = defaults
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in config %q: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration consistency.
func (c *Config) Validate() error {
	if c.Cutoff.IsZero() {
		return errors.New("cutoff is required")
	}
	if !c.PriceStart.IsZero() && !c.PriceStart.Before(c.Cutoff) {
		return fmt.Errorf("PriceStart %s must be before Cutoff %s", c.PriceStart, c.Cutoff)
	}
	if _, err := c.YearMultipliers(); err != nil {
		return err
	}
	if c.CoinGecko.TopN < 0 {
		return fmt.Errorf("coingecko.TopN must be positive, got %d", c.CoinGecko.TopN)
	}
	return nil
}

// YearMultipliers returns the multipliers keyed by year.
func (c *Config) YearMultipliers() (tvl.Multipliers, error) {
	m := make(tvl.Multipliers, len(c.Multipliers))
	for k, v := range c.Multipliers {
		year, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid multiplier year %q: %w", k, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("multiplier for %d must be positive, got %d", year, v)
		}
		m[year] = v
	}
	return m, nil
}

// PriceWindow returns the range of days prices are needed for.
func (c *Config) PriceWindow() date.Range {
	return date.Range{From: c.PriceStart, To: c.Cutoff}
}

// Options returns the reducer options using prices.
func (c *Config) Options(prices tvl.PriceTable) (tvl.Options, error) {
	multipliers, err := c.YearMultipliers()
	if err != nil {
		return tvl.Options{}, err
	}
	return tvl.Options{
		Cutoff:      c.Cutoff,
		Prices:      prices,
		Multipliers: multipliers,
		Rebasing:    c.Rebasing,
	}, nil
}

// Path resolves name relative to the configuration file directory.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) || c.dir == "" {
		return name
	}
	return filepath.Join(c.dir, name)
}
