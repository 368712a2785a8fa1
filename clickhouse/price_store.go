package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/etnz/tvl"
	"github.com/etnz/tvl/date"
	"github.com/shopspring/decimal"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PriceStore reads and writes daily USD prices. The native asset is stored
// with an empty asset.
type PriceStore struct {
	conn  *Conn
	table string
}

// NewPriceStore creates a new PriceStore on table.
func NewPriceStore(conn *Conn, table string) (*PriceStore, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PriceStore{conn: conn, table: table}, nil
}

// Migrate creates the table if it does not exist. Rows of the same asset and
// day are collapsed, keeping the last inserted one.
func (s *PriceStore) Migrate(ctx context.Context) error {
	err := s.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			asset      String,
			day        Date,
			price      Decimal(38, 18),
			updated_at DateTime64(3) DEFAULT now64(3)
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (asset, day)
	`, s.table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Load adds every price of the table to m and returns the number of prices read.
func (s *PriceStore) Load(ctx context.Context, m *tvl.Market) (int, error) {
	query := fmt.Sprintf(`
		SELECT asset, day, argMax(price, updated_at)
		FROM %s
		GROUP BY asset, day
		ORDER BY asset, day
	`, s.table)

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			asset string
			day   time.Time
			price decimal.Decimal
		)
		if err := rows.Scan(&asset, &day, &price); err != nil {
			return n, fmt.Errorf("scan price row: %w", err)
		}
		m.Append(tvl.ConvertAddress(asset), date.FromTime(day), price)
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("iterate price rows: %w", err)
	}
	return n, nil
}

// InsertBulk writes the prices of assets in m, every asset when none is given.
func (s *PriceStore) InsertBulk(ctx context.Context, m *tvl.Market, assets ...string) (int, error) {
	if len(assets) == 0 {
		assets = m.Assets()
	}
	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (asset, day, price)", s.table))
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	n := 0
	for _, asset := range assets {
		h := m.History(asset)
		if h == nil {
			continue
		}
		for on, price := range h.Values() {
			if err := batch.Append(asset, time.Unix(on.Unix(), 0).UTC(), price); err != nil {
				return 0, fmt.Errorf("append to batch: %w", err)
			}
			n++
		}
	}
	if n == 0 {
		return 0, batch.Abort()
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}
	return n, nil
}
