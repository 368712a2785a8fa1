package postgres

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/etnz/tvl"
	"github.com/etnz/tvl/date"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// LedgerStore reads and writes ledger entries in the transfers table.
type LedgerStore struct {
	pool *Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Entries streams the entries of class ordered by account, asset and day, the
// order expected by tvl.Reducer. Byte order collation matches Go string order.
//
// Rows of the same day keep their insertion order.
func (s *LedgerStore) Entries(ctx context.Context, class tvl.AssetClass) iter.Seq2[tvl.Entry, error] {
	query := `
		SELECT account, asset, day, decimals, delta::text
		FROM transfers
		WHERE class = $1
		ORDER BY lower(account) COLLATE "C", lower(asset) COLLATE "C", day, id
	`
	return func(yield func(tvl.Entry, error) bool) {
		rows, err := s.pool.Query(ctx, query, class.String())
		if err != nil {
			yield(tvl.Entry{}, fmt.Errorf("query %s transfers: %w", class, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e     tvl.Entry
				day   time.Time
				delta string
			)
			if err := rows.Scan(&e.Account, &e.Asset, &day, &e.Decimals, &delta); err != nil {
				yield(tvl.Entry{}, fmt.Errorf("scan %s transfer: %w", class, err))
				return
			}
			e.Account, e.Asset = tvl.ConvertAddress(e.Account), tvl.ConvertAddress(e.Asset)
			e.On = date.FromTime(day)
			if e.Delta, err = decimal.NewFromString(delta); err != nil {
				yield(tvl.Entry{}, fmt.Errorf("invalid %s delta %q: %w", class, delta, err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(tvl.Entry{}, fmt.Errorf("iterate %s transfers: %w", class, err))
		}
	}
}

// InsertBulk copies entries of class into the transfers table.
func (s *LedgerStore) InsertBulk(ctx context.Context, class tvl.AssetClass, entries []tvl.Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"transfers"},
		[]string{"class", "account", "asset", "day", "decimals", "delta"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{
				class.String(),
				tvl.ConvertAddress(e.Account),
				tvl.ConvertAddress(e.Asset),
				pgtype.Date{Time: time.Unix(e.On.Unix(), 0).UTC(), Valid: true},
				e.Decimals,
				numeric(e.Delta),
			}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copy %s transfers: %w", class, err)
	}
	return n, nil
}

// Count returns the number of entries of class.
func (s *LedgerStore) Count(ctx context.Context, class tvl.AssetClass) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM transfers WHERE class = $1`, class.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s transfers: %w", class, err)
	}
	return n, nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
