package tvl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReportRow holds the points of one account across all asset classes.
type ReportRow struct {
	Account string
	Native  Points
	NFT     Points
	Tokens  []Points // in Report.Tokens order.
	Total   Points   // native plus tokens, NFT points are kept apart.
}

// Report joins the three class results per account.
type Report struct {
	Tokens []TokenInfo
	Rows   []ReportRow
}

// NewReport joins results over accounts, which must be strictly ascending.
//
// Accounts with no NFT points and no USD points are left out.
func NewReport(accounts []string, tokens []TokenInfo, results map[AssetClass]ResultMap) (*Report, error) {
	native := results[Native].Accounts()
	nfts := results[NFT].Accounts()
	erc20 := results[Token]

	report := &Report{Tokens: tokens}
	for i, account := range accounts {
		if i > 0 && accounts[i-1] >= account {
			return nil, fmt.Errorf("accounts aren't sorted (%s found after %s)", account, accounts[i-1])
		}
		row := ReportRow{
			Account: account,
			Native:  native[account],
			NFT:     nfts[account],
			Tokens:  make([]Points, len(tokens)),
		}
		row.Total = row.Native
		for j, t := range tokens {
			row.Tokens[j] = erc20.Get(t.Address, account)
			row.Total = row.Total.Add(row.Tokens[j])
		}
		if row.NFT.IsPositive() || row.Total.IsPositive() {
			report.Rows = append(report.Rows, row)
		}
	}
	return report, nil
}

// Totals returns the sum of native, NFT and token points over the report rows.
func (r *Report) Totals() (native, nft, tokens Points) {
	for _, row := range r.Rows {
		native = native.Add(row.Native)
		nft = nft.Add(row.NFT)
		tokens = tokens.Add(row.Total.Sub(row.Native))
	}
	return native, nft, tokens
}

// EncodeReport writes the report as CSV:
//
//	safe_address,tvl_eth,tvl_nfts,tvl_<coin_id>...,tvl_total
func EncodeReport(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	header := []string{"safe_address", "tvl_eth", "tvl_nfts"}
	for _, t := range r.Tokens {
		header = append(header, "tvl_"+t.CoinID)
	}
	header = append(header, "tvl_total")
	cw.Write(header)

	for _, row := range r.Rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Account, row.Native.String(), row.NFT.String())
		for _, p := range row.Tokens {
			record = append(record, p.String())
		}
		record = append(record, row.Total.String())
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeAccounts reads the account list: a header line, then one account per
// line in the first column.
func DecodeAccounts(r io.Reader, name string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read header of %q: %w", name, err)
	}
	var accounts []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return accounts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("format error in %q: %w", name, err)
		}
		accounts = append(accounts, ConvertAddress(record[0]))
	}
}
