package tvl

import (
	"errors"
	"testing"

	"github.com/etnz/tvl/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestReducer_EndToEnd(t *testing.T) {
	m := NewMarket()
	m.Append(NativeAsset, d("2018-11-25"), decimal.NewFromInt(100))
	m.Append(NativeAsset, d("2018-11-26"), decimal.NewFromInt(110))

	r := NewReducer(Native, Options{Cutoff: d("2018-11-27"), Prices: m})
	got, err := r.Reduce(Entries(nativeEntry("A", "2018-11-25", ether(1))))
	if err != nil {
		t.Fatalf("Reduce() unexpected error: %v", err)
	}
	want := ResultMap{NativeAsset: {"A": P(1050)}}
	if diff := cmp.Diff(want, got, pointsEqual); diff != "" {
		t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
	}
}

func TestReducer_Native(t *testing.T) {
	window := date.Range{From: d("2021-12-01"), To: d("2022-01-10")}
	m := flatMarket(t, NativeAsset, 2, window)
	r := NewReducer(Native, Options{Cutoff: d("2022-01-05"), Prices: m})

	got, err := r.Reduce(Entries(
		nativeEntry("0x01", "2021-12-30", ether(3)),  // 3 ETH for 2 days in 2021
		nativeEntry("0x01", "2022-01-01", ether(-1)), // 2 ETH for 4 days in 2022
		nativeEntry("0x02", "2022-01-04", ether(1)),  // 1 ETH for 1 day
	))
	if err != nil {
		t.Fatalf("Reduce() unexpected error: %v", err)
	}
	want := ResultMap{NativeAsset: {
		"0x01": P(3*2*2*2 + 2*2*4),
		"0x02": P(2),
	}}
	if diff := cmp.Diff(want, got, pointsEqual); diff != "" {
		t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
	}
}

func TestReducer_Tokens(t *testing.T) {
	const dai, usdc = "0x6b17", "0xa0b8"
	window := date.Range{From: d("2022-01-01"), To: d("2022-02-09")}
	m := flatMarket(t, dai, 1, window)
	for day := range window.Days() {
		m.Append(usdc, day, decimal.NewFromFloat(0.5))
	}
	r := NewReducer(Token, Options{Cutoff: d("2022-01-11"), Prices: m})

	got, err := r.Reduce(Entries(
		tokenEntry("0x01", dai, "2022-01-01", 18, "10000000000000000000"), // 10 DAI for 10 days
		tokenEntry("0x01", usdc, "2022-01-09", 6, "4000000"),              // 4 USDC at 0.5 for 2 days
		tokenEntry("0x02", dai, "2022-01-10", 18, "1000000000000000000"),  // 1 DAI for 1 day
		tokenEntry("0x02", "0xunpriced", "2022-01-01", 18, "1"),           // no price at all
	))
	if err != nil {
		t.Fatalf("Reduce() unexpected error: %v", err)
	}
	want := ResultMap{
		dai:          {"0x01": P(100), "0x02": P(1)},
		usdc:         {"0x01": P(4)},
		"0xunpriced": {"0x02": P(0)},
	}
	if diff := cmp.Diff(want, got, pointsEqual); diff != "" {
		t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
	}
}

func TestReducer_NFTClampsNegative(t *testing.T) {
	r := NewReducer(NFT, Options{Cutoff: d("2022-01-10")})
	got, err := r.Reduce(Entries(
		nftEntry("0x01", "2022-01-01", 2),  // 2 NFTs for 2 days
		nftEntry("0x01", "2022-01-03", -3), // -1 is clamped to 0
		nftEntry("0x01", "2022-01-05", 1),  // then 1 NFT for 5 days
	))
	if err != nil {
		t.Fatalf("Reduce() unexpected error: %v", err)
	}
	want := ResultMap{NativeAsset: {"0x01": P(2*2 + 5)}}
	if diff := cmp.Diff(want, got, pointsEqual); diff != "" {
		t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
	}
}

func TestReducer_SameDayRowsAreAdditive(t *testing.T) {
	window := date.Range{From: d("2019-01-01"), To: d("2019-03-01")}
	m := flatMarket(t, NativeAsset, 7, window)
	r := NewReducer(Native, Options{Cutoff: d("2019-02-01"), Prices: m})

	split, err := r.Reduce(Entries(
		nativeEntry("A", "2019-01-03", ether(1)),
		nativeEntry("A", "2019-01-03", ether(2)),
		nativeEntry("A", "2019-01-03", ether(-1)),
		nativeEntry("A", "2019-01-10", ether(5)),
		nativeEntry("A", "2019-01-10", ether(1)),
	))
	if err != nil {
		t.Fatal(err)
	}
	aggregated, err := r.Reduce(Entries(
		nativeEntry("A", "2019-01-03", ether(2)),
		nativeEntry("A", "2019-01-10", ether(6)),
	))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(aggregated, split, pointsEqual); diff != "" {
		t.Errorf("split rows differ from aggregated rows (-aggregated +split):\n%s", diff)
	}
}

func TestReducer_Idempotent(t *testing.T) {
	window := date.Range{From: d("2020-01-01"), To: d("2020-02-01")}
	m := flatMarket(t, "0xt", 3, window)
	r := NewReducer(Token, Options{Cutoff: d("2020-01-20"), Prices: m})
	entries := Entries(
		tokenEntry("0x01", "0xt", "2020-01-02", 0, "4"),
		tokenEntry("0x01", "0xt", "2020-01-05", 0, "-2"),
		tokenEntry("0x03", "0xt", "2020-01-07", 0, "1"),
	)
	first, err := r.Reduce(entries)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Reduce(entries)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second, pointsEqual); diff != "" {
		t.Errorf("reprocessing differs (-first +second):\n%s", diff)
	}
}

func TestReducer_LastEventOnCutoff(t *testing.T) {
	window := date.Range{From: d("2022-02-01"), To: d("2022-02-10")}
	m := flatMarket(t, NativeAsset, 1, window)
	r := NewReducer(Native, Options{Cutoff: d("2022-02-09"), Prices: m})

	without, err := r.Reduce(Entries(nativeEntry("A", "2022-02-07", ether(1))))
	if err != nil {
		t.Fatal(err)
	}
	with, err := r.Reduce(Entries(
		nativeEntry("A", "2022-02-07", ether(1)),
		nativeEntry("A", "2022-02-09", ether(100)),
	))
	if err != nil {
		t.Fatal(err)
	}
	if !with.Get(NativeAsset, "A").Equal(P(2)) || !without.Get(NativeAsset, "A").Equal(P(2)) {
		t.Errorf("an event on the cutoff must not add value: with=%v without=%v", with.Get(NativeAsset, "A"), without.Get(NativeAsset, "A"))
	}
}

func TestReducer_OutOfOrder(t *testing.T) {
	window := date.Range{From: d("2020-01-01"), To: d("2020-02-01")}
	m := flatMarket(t, NativeAsset, 1, window)
	m2 := flatMarket(t, "0xt", 1, window)
	for day, p := range m.History(NativeAsset).Values() {
		m2.Append(NativeAsset, day, p)
	}

	testCases := []struct {
		name    string
		class   AssetClass
		entries []Entry
	}{
		{
			name:  "descending accounts",
			class: Native,
			entries: []Entry{
				nativeEntry("0x02", "2020-01-01", ether(1)),
				nativeEntry("0x01", "2020-01-02", ether(1)),
			},
		},
		{
			name:  "descending dates",
			class: Native,
			entries: []Entry{
				nativeEntry("0x01", "2020-01-05", ether(1)),
				nativeEntry("0x01", "2020-01-02", ether(1)),
			},
		},
		{
			name:  "descending assets",
			class: Token,
			entries: []Entry{
				tokenEntry("0x01", "0xb", "2020-01-01", 0, "1"),
				tokenEntry("0x01", "0xa", "2020-01-02", 0, "1"),
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReducer(tc.class, Options{Cutoff: d("2020-01-10"), Prices: m2})
			got, err := r.Reduce(Entries(tc.entries...))
			var ooo *OutOfOrderError
			if !errors.As(err, &ooo) {
				t.Fatalf("Reduce() error = %v, want *OutOfOrderError", err)
			}
			if got != nil {
				t.Errorf("Reduce() returned a partial result %v", got)
			}
			if ooo.Current.Key() != tc.entries[1].Key() || ooo.Current.On != tc.entries[1].On {
				t.Errorf("OutOfOrderError.Current = %v want %v", ooo.Current, tc.entries[1])
			}
		})
	}
}

func TestReducer_AssetOrderResetsPerAccount(t *testing.T) {
	m := flatMarket(t, "0xa", 1, date.Range{From: d("2020-01-01"), To: d("2020-01-10")})
	r := NewReducer(Token, Options{Cutoff: d("2020-01-03"), Prices: m})
	_, err := r.Reduce(Entries(
		tokenEntry("0x01", "0xb", "2020-01-01", 0, "1"),
		tokenEntry("0x02", "0xa", "2020-01-01", 0, "1"),
	))
	if err != nil {
		t.Errorf("a smaller asset on a new account is in order, got %v", err)
	}
}

func TestReducer_NegativeBalance(t *testing.T) {
	const stETH = "0xae7ab96520de3a18e5e111b5eaab095312d7fe84"
	const other = "0xbbbb"
	window := date.Range{From: d("2021-01-01"), To: d("2021-02-01")}
	m := flatMarket(t, stETH, 2, window)
	for day := range window.Days() {
		m.Append(other, day, decimal.NewFromInt(2))
	}
	entries := func(asset string) []Entry {
		return []Entry{
			tokenEntry("0x01", asset, "2021-01-01", 0, "10"),
			tokenEntry("0x01", asset, "2021-01-03", 0, "-20"),
			tokenEntry("0x01", asset, "2021-01-05", 0, "4"),
		}
	}
	r := NewReducer(Token, Options{Cutoff: d("2021-01-06"), Prices: m})

	t.Run("rebasing asset clamps", func(t *testing.T) {
		got, err := r.Reduce(Entries(entries(stETH)...))
		if err != nil {
			t.Fatalf("Reduce() unexpected error: %v", err)
		}
		// 10 for 2 days, 0 for 2 days, then 4 for 1 day, all at price 2 in 2021.
		if want := P(10*2*2*2 + 4*2*2); !got.Get(stETH, "0x01").Equal(want) {
			t.Errorf("Reduce() = %v want %v", got.Get(stETH, "0x01"), want)
		}
	})

	t.Run("other asset fails", func(t *testing.T) {
		_, err := r.Reduce(Entries(entries(other)...))
		var neg *NegativeBalanceError
		if !errors.As(err, &neg) {
			t.Fatalf("Reduce() error = %v, want *NegativeBalanceError", err)
		}
		if neg.Account != "0x01" || neg.Asset != other || neg.On != d("2021-01-03") || !neg.Balance.Equal(decimal.NewFromInt(-10)) {
			t.Errorf("NegativeBalanceError = %+v", neg)
		}
	})
}

func TestReducer_StreamError(t *testing.T) {
	boom := errors.New("boom")
	stream := func(yield func(Entry, error) bool) {
		if !yield(nativeEntry("A", "2020-01-01", ether(1)), nil) {
			return
		}
		yield(Entry{}, boom)
	}
	r := NewReducer(NFT, Options{Cutoff: d("2020-01-05")})
	if _, err := r.Reduce(stream); !errors.Is(err, boom) {
		t.Errorf("Reduce() error = %v want %v", err, boom)
	}
}

func TestReducer_Step(t *testing.T) {
	r := NewReducer(NFT, Options{Cutoff: d("2020-01-10")})

	seg, flush, err := r.Step(Segment{}, nftEntry("A", "2020-01-01", 1))
	if err != nil || flush != nil {
		t.Fatalf("first Step() = %v, %v", flush, err)
	}
	if !seg.IsOpen() || seg.Account != "A" || !seg.Balance.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("first Step() segment = %+v", seg)
	}

	seg, flush, err = r.Step(seg, nftEntry("A", "2020-01-04", 1))
	if err != nil || flush != nil {
		t.Fatalf("same group Step() = %v, %v", flush, err)
	}
	if !seg.Value.Equal(P(3*3)) || seg.Since != d("2020-01-04") {
		t.Fatalf("same group Step() segment = %+v", seg)
	}

	seg, flush, err = r.Step(seg, nftEntry("B", "2020-01-02", 1))
	if err != nil {
		t.Fatal(err)
	}
	// A held 1 NFT for 3 days, then 2 NFTs until the cutoff (6 days), all x3 in 2020.
	if flush == nil || flush.Account != "A" || !flush.Value.Equal(P(9+2*6*3)) {
		t.Fatalf("key change Step() flush = %+v", flush)
	}
	if seg.Account != "B" || !seg.Value.IsZero() {
		t.Errorf("key change Step() segment = %+v", seg)
	}

	last, err := r.Finish(seg)
	if err != nil {
		t.Fatal(err)
	}
	if !last.Value.Equal(P(8 * 3)) {
		t.Errorf("Finish() = %v want 24", last.Value)
	}
	if f, err := r.Finish(Segment{}); f != nil || err != nil {
		t.Errorf("Finish(closed) = %v, %v", f, err)
	}
}

func TestReducer_NoPriceTable(t *testing.T) {
	tests := []struct {
		name  string
		class AssetClass
		entry Entry
	}{
		{"native", Native, nativeEntry("A", "2018-11-25", ether(1))},
		{"token", Token, tokenEntry("A", "0xdai", "2018-11-25", 18, "1000000000000000000")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReducer(tc.class, Options{Cutoff: d("2018-11-27")})
			got, err := r.Reduce(Entries(tc.entry))
			var missing *MissingPriceError
			if !errors.As(err, &missing) {
				t.Fatalf("Reduce() without prices = %v, %v want a *MissingPriceError", got, err)
			}
			if missing.On != d("2018-11-25") {
				t.Errorf("missing price reported on %s want 2018-11-25", missing.On)
			}
			if got != nil {
				t.Errorf("Reduce() returned a partial result %v", got)
			}
		})
	}

	// NFT counts need no price table.
	r := NewReducer(NFT, Options{Cutoff: d("2018-11-27")})
	if _, err := r.Reduce(Entries(nftEntry("A", "2018-11-25", 1))); err != nil {
		t.Errorf("Reduce(nft) unexpected error: %v", err)
	}
}

func TestReducer_FinishKeepsGroupDecimals(t *testing.T) {
	window := date.Range{From: d("2020-01-01"), To: d("2020-01-10")}
	m := flatMarket(t, "0xaa", 1, window)
	for day := range window.Days() {
		m.Append("0xbb", day, decimal.NewFromInt(1))
	}
	r := NewReducer(Token, Options{Cutoff: d("2020-01-03"), Prices: m})
	got, err := r.Reduce(Entries(
		tokenEntry("A", "0xaa", "2020-01-01", 6, "1000000"),
		tokenEntry("A", "0xbb", "2020-01-02", 18, "1000000000000000000"),
	))
	if err != nil {
		t.Fatalf("Reduce() unexpected error: %v", err)
	}
	// one unit of each, 2 and 1 days in 2020 (x3).
	want := ResultMap{"0xaa": {"A": P(6)}, "0xbb": {"A": P(3)}}
	if diff := cmp.Diff(want, got, pointsEqual); diff != "" {
		t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
	}
}
