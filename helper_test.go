package tvl

import (
	"testing"

	"github.com/etnz/tvl/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// pointsEqual lets cmp compare Points by value.
var pointsEqual = cmp.Comparer(func(a, b Points) bool { return a.Equal(b) })

// d is a short helper to parse dates in tests.
func d(s string) date.Date { return date.MustParse(s) }

// dec is a short helper to parse decimals in tests.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ether returns n ether in wei.
func ether(n int64) decimal.Decimal { return decimal.NewFromInt(n).Shift(18) }

// flatMarket returns a market with a constant price for asset every day of r.
func flatMarket(t *testing.T, asset string, price float64, r date.Range) *Market {
	t.Helper()
	m := NewMarket()
	for day := range r.Days() {
		m.Append(asset, day, decimal.NewFromFloat(price))
	}
	return m
}

func nativeEntry(account, on string, wei decimal.Decimal) Entry {
	return Entry{Account: account, On: d(on), Decimals: 18, Delta: wei}
}

func tokenEntry(account, asset, on string, decimals int32, delta string) Entry {
	return Entry{Account: account, Asset: asset, On: d(on), Decimals: decimals, Delta: dec(delta)}
}

func nftEntry(account, on string, delta int64) Entry {
	return Entry{Account: account, On: d(on), Delta: decimal.NewFromInt(delta)}
}
