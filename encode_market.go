package tvl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// This file contains the codecs of the price files. They have no header:
//
//	native prices: date,price
//	token prices:  date,address,price
//
// Several prices for the same day keep the last one read.

// DecodeNativePrices reads native prices from r into m. name is for error message only.
func (m *Market) DecodeNativePrices(r io.Reader, name string) error {
	return decodePrices(r, name, 2, func(record []string) (string, string, string) {
		return NativeAsset, record[0], record[1]
	}, m)
}

// DecodeTokenPrices reads token prices from r into m. name is for error message only.
func (m *Market) DecodeTokenPrices(r io.Reader, name string) error {
	return decodePrices(r, name, 3, func(record []string) (string, string, string) {
		return ConvertAddress(record[1]), record[0], record[2]
	}, m)
}

func decodePrices(r io.Reader, name string, fields int, split func([]string) (asset, day, price string), m *Market) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	cr.ReuseRecord = true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("format error in %q: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		asset, day, price := split(record)
		if len(day) > 10 {
			day = day[:10]
		}
		on, err := date.Parse(day)
		if err != nil {
			return fmt.Errorf("format error in %q on line %d: %w", name, line, err)
		}
		value, err := decimal.NewFromString(strings.TrimSpace(price))
		if err != nil {
			return fmt.Errorf("format error in %q on line %d: invalid price %q: %w", name, line, price, err)
		}
		m.Append(asset, on, value)
	}
}

// EncodeNativePrices writes the native price curve of m to w.
func (m *Market) EncodeNativePrices(w io.Writer) error {
	cw := csv.NewWriter(w)
	if h := m.History(NativeAsset); h != nil {
		for on, price := range h.Values() {
			cw.Write([]string{on.String(), price.String()})
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeTokenPrices writes every token price curve of m to w, token by token.
func (m *Market) EncodeTokenPrices(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, asset := range m.Assets() {
		if asset == NativeAsset {
			continue
		}
		for on, price := range m.History(asset).Values() {
			cw.Write([]string{on.String(), asset, price.String()})
		}
	}
	cw.Flush()
	return cw.Error()
}
