package tvl

import (
	"fmt"

	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// Entry is a single balance change of an account in one asset on one day.
type Entry struct {
	Account  string
	Asset    string // NativeAsset for the native and NFT streams.
	On       date.Date
	Decimals int32           // decimals of Delta's base unit.
	Delta    decimal.Decimal // signed quantity in base units.
}

// Key identifies the (account, asset) group an Entry belongs to.
type Key struct {
	Account string
	Asset   string
}

// Key returns the entry group key.
func (e Entry) Key() Key { return Key{Account: e.Account, Asset: e.Asset} }

func (e Entry) String() string {
	if e.Asset == NativeAsset {
		return fmt.Sprintf("%s %s %s", e.Account, e.On, e.Delta)
	}
	return fmt.Sprintf("%s %s %s %s", e.Account, e.Asset, e.On, e.Delta)
}

// compare orders keys by account, then asset.
func (k Key) compare(x Key) int {
	switch {
	case k.Account < x.Account:
		return -1
	case k.Account > x.Account:
		return 1
	case k.Asset < x.Asset:
		return -1
	case k.Asset > x.Asset:
		return 1
	}
	return 0
}

// compareEntries orders entries by (account ASC, asset ASC, date ASC).
func compareEntries(a, b Entry) int {
	if c := a.Key().compare(b.Key()); c != 0 {
		return c
	}
	return a.On.Compare(b.On)
}
