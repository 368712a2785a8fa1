package renderer

import (
	"cmp"
	"slices"

	"github.com/etnz/tvl"
	"github.com/etnz/tvl/date"
)

// Summary is an overview of a TVL run.
type Summary struct {
	Window      date.Range
	Multipliers tvl.Multipliers
	Classes     []ClassSummary
	TopAccounts []AccountSummary
}

// ClassSummary holds the totals of one asset class.
type ClassSummary struct {
	Class    string
	Accounts int // accounts with positive points.
	Total    tvl.Points
	Priced   bool // false for NFT-days.
}

// AccountSummary holds the points of one account.
type AccountSummary struct {
	Account string
	Points  tvl.Points // USD-days, native plus tokens.
	NFT     tvl.Points
}

// NewSummary summarizes results over window, listing the top accounts by USD points.
func NewSummary(window date.Range, multipliers tvl.Multipliers, results map[tvl.AssetClass]tvl.ResultMap, top int) *Summary {
	s := &Summary{Window: window, Multipliers: multipliers}
	accounts := make(map[string]*AccountSummary)
	get := func(account string) *AccountSummary {
		a, ok := accounts[account]
		if !ok {
			a = &AccountSummary{Account: account}
			accounts[account] = a
		}
		return a
	}

	for _, class := range tvl.Classes {
		res, ok := results[class]
		if !ok {
			continue
		}
		cs := ClassSummary{Class: class.String(), Priced: class != tvl.NFT}
		positive := make(map[string]bool)
		for _, asset := range res.Assets() {
			for account, p := range res[asset] {
				cs.Total = cs.Total.Add(p)
				if p.IsPositive() {
					positive[account] = true
				}
				a := get(account)
				if class == tvl.NFT {
					a.NFT = a.NFT.Add(p)
				} else {
					a.Points = a.Points.Add(p)
				}
			}
		}
		cs.Accounts = len(positive)
		s.Classes = append(s.Classes, cs)
	}

	var ranked []AccountSummary
	for _, a := range accounts {
		if a.Points.IsPositive() {
			ranked = append(ranked, *a)
		}
	}
	slices.SortFunc(ranked, func(a, b AccountSummary) int {
		if c := b.Points.Decimal().Cmp(a.Points.Decimal()); c != 0 {
			return c
		}
		return cmp.Compare(a.Account, b.Account)
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	s.TopAccounts = ranked
	return s
}
