package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// PriceRange returns the daily USD prices of coinID over r.
//
// Quotes are bucketed by their UTC day, the last quote of a day wins.
func (c *Client) PriceRange(ctx context.Context, coinID string, r date.Range) (*date.History[decimal.Decimal], error) {
	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("from", strconv.FormatInt(r.From.Unix(), 10))
	query.Set("to", strconv.FormatInt(r.To.Unix(), 10))

	jobj, err := c.get(ctx, "/coins/"+url.PathEscape(coinID)+"/market_chart/range", query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving prices of %q: %w", coinID, err)
	}
	jval, err := jsonpath.Get("$.prices", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing prices of %q: %w", coinID, err)
	}
	points, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing prices of %q: not a list %v", coinID, jval)
	}

	h := new(date.History[decimal.Decimal])
	for i, point := range points {
		pair, ok := point.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("error parsing prices of %q: point #%d is not a [timestamp, price] pair", coinID, i)
		}
		ms, err := toDecimal(pair[0])
		if err != nil {
			return nil, fmt.Errorf("error parsing prices of %q: point #%d timestamp: %w", coinID, i, err)
		}
		price, err := toDecimal(pair[1])
		if err != nil {
			return nil, fmt.Errorf("error parsing prices of %q: point #%d price: %w", coinID, i, err)
		}
		h.Append(date.FromTime(time.UnixMilli(ms.IntPart())), price)
	}
	return h, nil
}

// toDecimal converts a decoded JSON number.
func toDecimal(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("not a number %v", jval)
	}
}
