package tvl

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// entryEqual compares entries field by field, decimals by value.
var entryEqual = cmp.Comparer(func(a, b Entry) bool {
	return a.Account == b.Account && a.Asset == b.Asset && a.On == b.On && a.Decimals == b.Decimals && a.Delta.Equal(b.Delta)
})

func collect(t *testing.T, class AssetClass, input string) ([]Entry, error) {
	t.Helper()
	var list []Entry
	for e, err := range DecodeTransfers(strings.NewReader(input), class, "test.csv") {
		if err != nil {
			return list, err
		}
		list = append(list, e)
	}
	return list, nil
}

func TestDecodeTransfers(t *testing.T) {
	testCases := []struct {
		name  string
		class AssetClass
		input string
		want  []Entry
	}{
		{
			name:  "native",
			class: Native,
			input: "address,day,balance_change\n" +
				"\\x0001,2018-11-25 00:00:00.000 UTC,1000000000000000000\n" +
				"\\x0001,2018-11-26,-250000000000000000\n",
			want: []Entry{
				{Account: "0x0001", On: d("2018-11-25"), Decimals: 18, Delta: ether(1)},
				{Account: "0x0001", On: d("2018-11-26"), Decimals: 18, Delta: dec("-250000000000000000")},
			},
		},
		{
			name:  "nft",
			class: NFT,
			input: "address,day,balance_change\n0x02,2021-03-01,-1\n",
			want:  []Entry{{Account: "0x02", On: d("2021-03-01"), Decimals: 0, Delta: decimal.NewFromInt(-1)}},
		},
		{
			name:  "token",
			class: Token,
			input: "address,contract_address,day,decimals,symbol,balance_change\n" +
				"\\x03,\\x6b17,2020-05-05,18,DAI,123456789012345678901234567890\n",
			want: []Entry{{Account: "0x03", Asset: "0x6b17", On: d("2020-05-05"), Decimals: 18, Delta: dec("123456789012345678901234567890")}},
		},
		{
			name:  "header only",
			class: Native,
			input: "address,day,balance_change\n",
			want:  nil,
		},
		{
			name:  "empty",
			class: Token,
			input: "",
			want:  nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := collect(t, tc.class, tc.input)
			if err != nil {
				t.Fatalf("DecodeTransfers() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got, entryEqual); diff != "" {
				t.Errorf("DecodeTransfers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeTransfers_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		class AssetClass
		input string
		want  string
	}{
		{"bad date", Native, "h,h,h\n0x1,25/11/2018,1\n", "line 2"},
		{"bad delta", Native, "h,h,h\n0x1,2018-11-25,abc\n", "invalid balance change"},
		{"bad decimals", Token, "h,h,h,h,h,h\n0x1,0x2,2018-11-25,x,S,1\n", "invalid decimals"},
		{"missing columns", Token, "h,h,h,h,h,h\n0x1,0x2,2018-11-25\n", "expected at least 5 columns"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := collect(t, tc.class, tc.input)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("DecodeTransfers() error = %v, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestDecodeTransfers_FeedsReducer(t *testing.T) {
	input := "address,day,balance_change\n" +
		"0x02,2022-01-01,1\n" +
		"0x01,2022-01-02,1\n"
	r := NewReducer(NFT, Options{Cutoff: d("2022-01-05")})
	_, err := r.Reduce(DecodeTransfers(strings.NewReader(input), NFT, "nfts.csv"))
	var ooo *OutOfOrderError
	if !errors.As(err, &ooo) {
		t.Errorf("Reduce(DecodeTransfers()) error = %v, want *OutOfOrderError", err)
	}
}

func TestSortEntries(t *testing.T) {
	entries := []Entry{
		tokenEntry("0x02", "0xa", "2020-01-01", 0, "1"),
		tokenEntry("0x01", "0xb", "2020-01-03", 0, "2"),
		tokenEntry("0x01", "0xb", "2020-01-01", 0, "3"),
		tokenEntry("0x01", "0xa", "2020-01-05", 0, "4"),
		tokenEntry("0x01", "0xb", "2020-01-01", 0, "5"),
	}
	if err := ValidateOrdering(Token, entries); err == nil {
		t.Fatalf("ValidateOrdering() on unsorted entries should fail")
	}
	SortEntries(entries)
	if err := ValidateOrdering(Token, entries); err != nil {
		t.Fatalf("ValidateOrdering() after SortEntries() = %v", err)
	}
	var deltas []string
	for _, e := range entries {
		deltas = append(deltas, e.Delta.String())
	}
	// Same day rows keep their relative order.
	if got, want := strings.Join(deltas, ","), "4,3,5,2,1"; got != want {
		t.Errorf("SortEntries() order = %s want %s", got, want)
	}
}

func TestSortTransfers(t *testing.T) {
	input := "address,contract_address,day,decimals,symbol,balance_change\n" +
		"\\x02,\\xaa,2020-01-01,18,AAA,1\n" +
		"\\x01,\\xbb,2020-01-02,6,BBB,2\n" +
		"\\x01,\\xaa,2020-01-03,18,AAA,3\n"
	var out bytes.Buffer
	if err := SortTransfers(strings.NewReader(input), &out, Token); err != nil {
		t.Fatal(err)
	}
	want := "address,contract_address,day,decimals,symbol,balance_change\n" +
		"\\x01,\\xaa,2020-01-03,18,AAA,3\n" +
		"\\x01,\\xbb,2020-01-02,6,BBB,2\n" +
		"\\x02,\\xaa,2020-01-01,18,AAA,1\n"
	if got := out.String(); got != want {
		t.Errorf("SortTransfers() =\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeTransfers(t *testing.T) {
	entries := []Entry{tokenEntry("0x01", "0xaa", "2020-01-03", 6, "-3")}
	var out bytes.Buffer
	if err := EncodeTransfers(&out, Token, entries); err != nil {
		t.Fatal(err)
	}
	// The encoded file has no symbol column, the balance change is still the last one.
	got, err := collect(t, Token, out.String())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries, got, entryEqual); diff != "" {
		t.Errorf("decode(EncodeTransfers()) mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertAddress(t *testing.T) {
	for in, want := range map[string]string{
		`\x12ab`:  "0x12ab",
		`\x12AB`:  "0x12ab",
		"0x12ab":  "0x12ab",
		"0x12AB":  "0x12ab",
		" 0x12ab": "0x12ab",
		"":        "",
	} {
		if got := ConvertAddress(in); got != want {
			t.Errorf("ConvertAddress(%q) = %q want %q", in, got, want)
		}
	}
}
