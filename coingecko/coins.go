package coingecko

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tvl"
	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// skippedFragments mark derivative coins that never hold meaningful TVL.
var skippedFragments = []string{"-long-", "-short-", "-tokenized-stock-", "-fan-token-"}

// EthereumTokens lists the coins with an Ethereum contract address.
func (c *Client) EthereumTokens(ctx context.Context) ([]tvl.TokenInfo, error) {
	query := url.Values{}
	query.Set("include_platform", "true")
	jobj, err := c.get(ctx, "/coins/list", query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving coin list: %w", err)
	}
	coins, ok := jobj.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing coin list: not a list")
	}

	var tokens []tvl.TokenInfo
	for _, coin := range coins {
		id, _ := jsonpath.Get("$.id", coin)
		coinID, _ := id.(string)
		if coinID == "" || slices.ContainsFunc(skippedFragments, func(f string) bool { return strings.Contains(coinID, f) }) {
			continue
		}
		jval, err := jsonpath.Get("$.platforms.ethereum", coin)
		if err != nil {
			continue // not on ethereum.
		}
		address, _ := jval.(string)
		if address == "" {
			continue
		}
		tokens = append(tokens, tvl.TokenInfo{CoinID: coinID, Address: tvl.ConvertAddress(address)})
	}
	return tokens, nil
}

// MarketCap returns the USD market cap of coinID on day. ok is false if
// CoinGecko has no market data for that coin.
func (c *Client) MarketCap(ctx context.Context, coinID string, on date.Date) (marketCap decimal.Decimal, ok bool, err error) {
	query := url.Values{}
	query.Set("date", fmt.Sprintf("%02d-%02d-%04d", on.Day(), on.Month(), on.Year()))
	query.Set("localization", "false")
	jobj, err := c.get(ctx, "/coins/"+url.PathEscape(coinID)+"/history", query)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("error retrieving market cap of %q: %w", coinID, err)
	}
	jval, err := jsonpath.Get("$.market_data.market_cap.usd", jobj)
	if err != nil {
		return decimal.Zero, false, nil
	}
	marketCap, err = toDecimal(jval)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("error parsing market cap of %q: %w", coinID, err)
	}
	return marketCap, true, nil
}

// MarketCaps returns tokens with their market cap on day. Tokens without
// market data are left out.
func (c *Client) MarketCaps(ctx context.Context, tokens []tvl.TokenInfo, on date.Date) ([]tvl.TokenInfo, error) {
	var res []tvl.TokenInfo
	for i, t := range tokens {
		log.Printf("%d: %s", i, t.CoinID)
		marketCap, ok, err := c.MarketCap(ctx, t.CoinID, on)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Printf("skipping %s: no market data", t.CoinID)
			continue
		}
		t.MarketCap = marketCap
		res = append(res, t)
	}
	return res, nil
}

// TopTokens returns the n tokens with the largest market caps, largest first.
// Ties keep the input order.
func TopTokens(tokens []tvl.TokenInfo, n int) []tvl.TokenInfo {
	sorted := slices.Clone(tokens)
	slices.SortStableFunc(sorted, func(a, b tvl.TokenInfo) int {
		return b.MarketCap.Cmp(a.MarketCap)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
