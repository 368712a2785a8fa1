package tvl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

// This file contains the codec for the transfers files produced by the extraction
// queries. There is one file per asset class, each with a header line:
//
//	native, nft: address,day,balance_change
//	token:       address,contract_address,day,decimals,symbol,balance_change
//
// The day may carry a time suffix, only its first 10 characters are read. The
// balance change is always the last column.

// columns locates the fields of a transfers record.
type columns struct {
	account, asset, day, decimals int // -1 when absent.
}

func transferColumns(class AssetClass) columns {
	if class == Token {
		return columns{account: 0, asset: 1, day: 2, decimals: 3}
	}
	return columns{account: 0, asset: -1, day: 1, decimals: -1}
}

// ConvertAddress returns the lowercase `0x…` form of a hex address, also
// accepting Postgres bytea text (`\x…`). Checksummed addresses lose their case.
//
// Every address read from outside goes through it, so accounts and assets
// compare as plain strings.
func ConvertAddress(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	if strings.HasPrefix(address, `\x`) {
		return "0" + address[1:]
	}
	return address
}

// DecodeTransfers lazily decodes the transfers file of class from r.
//
// Rows are yielded in file order; sorting is checked by the Reducer. name is
// only used in error messages.
func DecodeTransfers(r io.Reader, class AssetClass, name string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.ReuseRecord = true
		cols := transferColumns(class)
		fixed, hasFixed := class.Decimals()

		// skip header row
		if _, err := cr.Read(); err != nil {
			if !errors.Is(err, io.EOF) {
				yield(Entry{}, fmt.Errorf("cannot read header of %q: %w", name, err))
			}
			return
		}
		for {
			record, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Entry{}, fmt.Errorf("format error in %q: %w", name, err))
				return
			}
			line, _ := cr.FieldPos(0)
			e, err := decodeTransfer(record, cols)
			if err != nil {
				yield(Entry{}, fmt.Errorf("format error in %q on line %d: %w", name, line, err))
				return
			}
			if hasFixed {
				e.Decimals = fixed
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func decodeTransfer(record []string, cols columns) (e Entry, err error) {
	want := max(cols.day, cols.decimals) + 2
	if len(record) < want {
		return e, fmt.Errorf("expected at least %d columns got %d", want, len(record))
	}
	e.Account = ConvertAddress(record[cols.account])
	if cols.asset >= 0 {
		e.Asset = ConvertAddress(record[cols.asset])
	}
	day := record[cols.day]
	if len(day) > 10 {
		day = day[:10]
	}
	if e.On, err = date.Parse(day); err != nil {
		return e, err
	}
	if cols.decimals >= 0 {
		n, err := strconv.ParseInt(strings.TrimSpace(record[cols.decimals]), 10, 32)
		if err != nil {
			return e, fmt.Errorf("invalid decimals %q: %w", record[cols.decimals], err)
		}
		e.Decimals = int32(n)
	}
	delta := strings.TrimSpace(record[len(record)-1])
	if e.Delta, err = decimal.NewFromString(delta); err != nil {
		return e, fmt.Errorf("invalid balance change %q: %w", delta, err)
	}
	return e, nil
}

// EncodeTransfers writes entries as a transfers file of class.
func EncodeTransfers(w io.Writer, class AssetClass, entries []Entry) error {
	cw := csv.NewWriter(w)
	if class == Token {
		cw.Write([]string{"address", "contract_address", "day", "decimals", "balance_change"})
	} else {
		cw.Write([]string{"address", "day", "balance_change"})
	}
	for _, e := range entries {
		var record []string
		if class == Token {
			record = []string{e.Account, e.Asset, e.On.String(), strconv.Itoa(int(e.Decimals)), e.Delta.String()}
		} else {
			record = []string{e.Account, e.On.String(), e.Delta.String()}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SortEntries sorts entries by account, asset and date, keeping same-day rows
// in their original order.
func SortEntries(entries []Entry) { slices.SortStableFunc(entries, compareEntries) }

// ValidateOrdering checks that entries are sorted the way the Reducer expects.
func ValidateOrdering(class AssetClass, entries []Entry) error {
	for i := 1; i < len(entries); i++ {
		if compareEntries(entries[i-1], entries[i]) > 0 {
			return &OutOfOrderError{Class: class, Previous: entries[i-1], Current: entries[i]}
		}
	}
	return nil
}

// SortTransfers reads a transfers file of class from r and writes it sorted to w.
// All columns, including the ones the Reducer ignores, are preserved.
func SortTransfers(r io.Reader, w io.Writer, class AssetClass) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("cannot read transfers: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	header, rows := records[0], records[1:]

	cols := transferColumns(class)
	type keyed struct {
		entry  Entry
		record []string
	}
	list := make([]keyed, 0, len(rows))
	for i, record := range rows {
		e, err := decodeTransfer(record, cols)
		if err != nil {
			return fmt.Errorf("format error on line %d: %w", i+2, err)
		}
		list = append(list, keyed{e, record})
	}
	slices.SortStableFunc(list, func(a, b keyed) int { return compareEntries(a.entry, b.entry) })

	cw := csv.NewWriter(w)
	cw.Write(header)
	for _, k := range list {
		cw.Write(k.record)
	}
	cw.Flush()
	return cw.Error()
}
