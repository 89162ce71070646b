// Package storage defines the persistence interfaces for imported
// transactions and price-lookup history.
package storage

import (
	"context"
	"time"

	"solana-tax-tracker/internal/domain"
)

// TransactionStore persists canonical transactions.
type TransactionStore interface {
	// Insert adds a transaction. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// InsertBatch adds many transactions, skipping ids that already
	// exist. Returns the number actually inserted.
	InsertBatch(ctx context.Context, txs []*domain.Transaction) (int, error)

	// GetByID retrieves a transaction. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// GetBySource retrieves all transactions from one source system,
	// ordered by timestamp ASC.
	GetBySource(ctx context.Context, source string) ([]*domain.Transaction, error)

	// GetByYear retrieves all transactions of one calendar year (UTC),
	// ordered by timestamp ASC.
	GetByYear(ctx context.Context, year int) ([]*domain.Transaction, error)
}

// PriceLookup is one resolved historical price, kept as an append-only
// audit log of what enrichment saw.
type PriceLookup struct {
	Symbol    string
	Day       time.Time
	Currency  string
	Price     string // decimal string, empty when the quote was absent
	FetchedAt time.Time
}

// PriceHistoryStore records historical price lookups.
type PriceHistoryStore interface {
	// Record appends one price lookup.
	Record(ctx context.Context, l PriceLookup) error

	// GetBySymbol retrieves lookups for a symbol, ordered by day ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]PriceLookup, error)
}
