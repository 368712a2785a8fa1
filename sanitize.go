package tvl

import (
	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// DefaultRebasing lists tokens whose balance changes without Transfer events.
// Negative balances on them are artifacts and are discarded.
var DefaultRebasing = []string{
	"0xae7ab96520de3a18e5e111b5eaab095312d7fe84", // stETH, balance grows without Transfer events.
	"0x674c6ad92fd080e4004b2312b45f796a192d27a0", // USDN, built-in staking accrual.
}

// Sanitizer validates a running balance before it is integrated.
type Sanitizer struct {
	class    AssetClass
	rebasing map[string]struct{}
}

// NewSanitizer returns a Sanitizer for a class with the given rebasing allow-list.
func NewSanitizer(class AssetClass, rebasing []string) Sanitizer {
	s := Sanitizer{class: class, rebasing: make(map[string]struct{}, len(rebasing))}
	for _, a := range rebasing {
		s.rebasing[ConvertAddress(a)] = struct{}{}
	}
	return s
}

// IsRebasing reports whether asset is on the rebasing allow-list.
func (s Sanitizer) IsRebasing(asset string) bool {
	_, ok := s.rebasing[asset]
	return ok
}

// Sanitize returns the balance to integrate for account in asset on a given day.
//
// Negative balances are clamped to zero for rebasing assets and NFT counts, and
// are a *NegativeBalanceError otherwise.
func (s Sanitizer) Sanitize(account string, balance decimal.Decimal, asset string, on date.Date) (decimal.Decimal, error) {
	if !balance.IsNegative() {
		return balance, nil
	}
	if asset != NativeAsset && s.IsRebasing(asset) {
		return decimal.Zero, nil
	}
	if s.class == NFT {
		// burns and self transfers are not fully captured upstream.
		return decimal.Zero, nil
	}
	return decimal.Zero, &NegativeBalanceError{Class: s.class, Account: account, Asset: asset, On: on, Balance: balance}
}
