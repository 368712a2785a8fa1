package tvl

import (
	"fmt"

	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// OutOfOrderError reports a ledger row that breaks the (account, asset, date)
// ascending order. Grouping cannot recover from it: upstream sorting must be fixed.
type OutOfOrderError struct {
	Class    AssetClass
	Previous Entry // last accepted row.
	Current  Entry // offending row.
}

func (e *OutOfOrderError) Error() string {
	p, c := e.Previous, e.Current
	switch {
	case c.Account < p.Account:
		return fmt.Sprintf("%s ledger: accounts aren't sorted (%s found after %s)", e.Class, c.Account, p.Account)
	case c.Asset < p.Asset:
		return fmt.Sprintf("%s ledger: assets aren't sorted (%s found after %s for account %s)", e.Class, c.Asset, p.Asset, c.Account)
	default:
		return fmt.Sprintf("%s ledger: dates aren't sorted (%s found after %s for account %s%s)", e.Class, c.On, p.On, c.Account, assetSuffix(c.Asset))
	}
}

// NegativeBalanceError reports a running balance that went below zero, a sign
// of a missed event or an extraction defect.
type NegativeBalanceError struct {
	Class   AssetClass
	Account string
	Asset   string
	On      date.Date
	Balance decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf("account %s has negative %s balance of %s on %s%s", e.Account, e.Class, e.Balance, e.On, assetSuffix(e.Asset))
}

// MissingPriceError reports a day without a native price. Native coverage is
// assumed total over the observation window.
type MissingPriceError struct {
	Asset string
	On    date.Date
}

func (e *MissingPriceError) Error() string {
	if e.Asset == NativeAsset {
		return fmt.Sprintf("no native price on %s", e.On)
	}
	return fmt.Sprintf("no price on %s for %s", e.On, e.Asset)
}

func assetSuffix(asset string) string {
	if asset == NativeAsset {
		return ""
	}
	return " for asset " + asset
}
