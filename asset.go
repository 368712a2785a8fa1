package tvl

import (
	"fmt"
	"strings"
)

// AssetClass identifies one of the three independent ledger streams.
type AssetClass int

const (
	Native AssetClass = iota // the chain native coin, valued in USD.
	NFT                      // non-fungible token counts, unpriced.
	Token                    // fungible tokens, valued in USD per contract.
)

// NativeAsset is the asset key used by the Native and NFT streams, and the
// key of the native price curve in a Market.
const NativeAsset = ""

// Classes lists all asset classes in report order.
var Classes = []AssetClass{Native, NFT, Token}

func (c AssetClass) String() string {
	switch c {
	case Native:
		return "native"
	case NFT:
		return "nft"
	case Token:
		return "token"
	default:
		panic(fmt.Sprintf("unknown asset class %d", c))
	}
}

// Decimals returns the fixed number of decimals of the class base unit, and
// false when decimals vary per row (Token).
func (c AssetClass) Decimals() (int32, bool) {
	switch c {
	case Native:
		return 18, true
	case NFT:
		return 0, true
	default:
		return 0, false
	}
}

// ParseAssetClass parses the name of an asset class.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(s) {
	case "native", "eth":
		return Native, nil
	case "nft", "nfts":
		return NFT, nil
	case "token", "erc20":
		return Token, nil
	default:
		return Native, fmt.Errorf("unknown asset class %q", s)
	}
}
