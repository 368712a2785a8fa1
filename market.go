package tvl

import (
	"maps"
	"slices"

	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// PriceTable is a synchronous USD price lookup.
//
// The native price curve is stored under NativeAsset.
type PriceTable interface {
	Price(asset string, on date.Date) (decimal.Decimal, bool)
}

// Market holds daily USD prices for the native asset and a set of tokens.
type Market struct {
	prices map[string]*date.History[decimal.Decimal]
}

// NewMarket returns a new empty market.
func NewMarket() *Market {
	return &Market{prices: make(map[string]*date.History[decimal.Decimal])}
}

// Compile-time interface check.
var _ PriceTable = (*Market)(nil)

// Has reports whether the market has any price for asset.
func (m *Market) Has(asset string) bool {
	_, ok := m.prices[asset]
	return ok
}

// Append records the price of asset on a given day. A price already recorded
// that day is replaced.
func (m *Market) Append(asset string, on date.Date, price decimal.Decimal) {
	h, ok := m.prices[asset]
	if !ok {
		h = new(date.History[decimal.Decimal])
		m.prices[asset] = h
	}
	h.Append(on, price)
}

// Price implements PriceTable.
func (m *Market) Price(asset string, on date.Date) (decimal.Decimal, bool) {
	h, ok := m.prices[asset]
	if !ok {
		return decimal.Zero, false
	}
	return h.Get(on)
}

// History returns the price curve of asset, or nil.
func (m *Market) History(asset string) *date.History[decimal.Decimal] { return m.prices[asset] }

// Assets returns all assets with a price curve, sorted. NativeAsset comes first when present.
func (m *Market) Assets() []string { return slices.Sorted(maps.Keys(m.prices)) }

// Coverage returns the days of r that have no price for asset.
func (m *Market) Coverage(asset string, r date.Range) (missing []date.Date) {
	for d := range r.Days() {
		if _, ok := m.Price(asset, d); !ok {
			missing = append(missing, d)
		}
	}
	return missing
}
