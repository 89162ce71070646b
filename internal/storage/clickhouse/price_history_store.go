package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-tax-tracker/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore on ClickHouse.
// The table is append-only; duplicate lookups are expected and kept.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// Record appends one price lookup.
func (s *PriceHistoryStore) Record(ctx context.Context, l storage.PriceLookup) error {
	query := `
		INSERT INTO price_lookups (symbol, day, currency, price, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, query,
		l.Symbol,
		l.Day.UTC(),
		l.Currency,
		l.Price,
		l.FetchedAt.UTC(),
	); err != nil {
		return fmt.Errorf("record price lookup: %w", err)
	}
	return nil
}

// GetBySymbol retrieves lookups for a symbol, ordered by day ASC.
func (s *PriceHistoryStore) GetBySymbol(ctx context.Context, symbol string) ([]storage.PriceLookup, error) {
	query := `
		SELECT symbol, day, currency, price, fetched_at
		FROM price_lookups
		WHERE symbol = ?
		ORDER BY day ASC, fetched_at ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("get price lookups by symbol: %w", err)
	}
	defer rows.Close()

	var lookups []storage.PriceLookup
	for rows.Next() {
		var (
			l              storage.PriceLookup
			day, fetchedAt time.Time
		)
		if err := rows.Scan(&l.Symbol, &day, &l.Currency, &l.Price, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan price lookup: %w", err)
		}
		l.Day = day
		l.FetchedAt = fetchedAt
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price lookups: %w", err)
	}
	return lookups, nil
}
