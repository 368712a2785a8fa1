package tvl

import (
	"maps"
	"slices"
)

// ResultMap holds the points of every group: asset, then account.
//
// Native and NFT results are stored under NativeAsset.
type ResultMap map[string]map[string]Points

func (m ResultMap) put(f Flush) {
	accounts, ok := m[f.Asset]
	if !ok {
		accounts = make(map[string]Points)
		m[f.Asset] = accounts
	}
	accounts[f.Account] = f.Value
}

// Accounts returns points by account for the native and NFT classes.
func (m ResultMap) Accounts() map[string]Points { return m[NativeAsset] }

// Get returns the points of account in asset, zero when absent.
func (m ResultMap) Get(asset, account string) Points {
	return m[asset][account]
}

// Assets returns the assets with results, sorted.
func (m ResultMap) Assets() []string { return slices.Sorted(maps.Keys(m)) }

// Len returns the number of groups.
func (m ResultMap) Len() (n int) {
	for _, accounts := range m {
		n += len(accounts)
	}
	return n
}

// Total sums points over all groups.
func (m ResultMap) Total() (total Points) {
	for _, accounts := range m {
		for _, p := range accounts {
			total = total.Add(p)
		}
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string { return slices.Sorted(maps.Keys(m)) }
