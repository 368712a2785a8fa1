package tvl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenInfo describes a token included in the report.
type TokenInfo struct {
	CoinID    string // price provider identifier, used for column names.
	Address   string // contract address, the token asset key.
	MarketCap decimal.Decimal
}

// DecodeTokens reads a token list (coin_id,address,market_cap, no header) from r.
func DecodeTokens(r io.Reader, name string) ([]TokenInfo, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var tokens []TokenInfo
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return tokens, nil
		}
		if err != nil {
			return nil, fmt.Errorf("format error in %q: %w", name, err)
		}
		if len(record) < 2 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("format error in %q on line %d: expected coin_id,address[,market_cap]", name, line)
		}
		t := TokenInfo{CoinID: record[0], Address: ConvertAddress(record[1])}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			if t.MarketCap, err = decimal.NewFromString(strings.TrimSpace(record[2])); err != nil {
				line, _ := cr.FieldPos(0)
				return nil, fmt.Errorf("format error in %q on line %d: invalid market cap: %w", name, line, err)
			}
		}
		tokens = append(tokens, t)
	}
}

// EncodeTokens writes a token list to w.
func EncodeTokens(w io.Writer, tokens []TokenInfo) error {
	cw := csv.NewWriter(w)
	for _, t := range tokens {
		cw.Write([]string{t.CoinID, t.Address, t.MarketCap.String()})
	}
	cw.Flush()
	return cw.Error()
}
