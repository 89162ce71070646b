// Package memory provides in-memory storage implementations for tests
// and single-run CLI use.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/storage"
)

// TransactionStore implements storage.TransactionStore in memory.
type TransactionStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Transaction
}

// NewTransactionStore creates an empty in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{byID: make(map[string]*domain.Transaction)}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a transaction. Returns ErrDuplicateKey if the id exists.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[tx.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.byID[tx.ID] = tx
	return nil
}

// InsertBatch adds transactions, skipping existing ids.
func (s *TransactionStore) InsertBatch(ctx context.Context, txs []*domain.Transaction) (int, error) {
	inserted := 0
	for _, tx := range txs {
		err := s.Insert(ctx, tx)
		if err == storage.ErrDuplicateKey {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// GetByID retrieves a transaction. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return tx, nil
}

// GetBySource retrieves transactions from one source, timestamp ASC.
func (s *TransactionStore) GetBySource(_ context.Context, source string) ([]*domain.Transaction, error) {
	return s.filter(func(tx *domain.Transaction) bool { return tx.Source == source }), nil
}

// GetByYear retrieves transactions of one calendar year, timestamp ASC.
func (s *TransactionStore) GetByYear(_ context.Context, year int) ([]*domain.Transaction, error) {
	return s.filter(func(tx *domain.Transaction) bool { return tx.Timestamp.UTC().Year() == year }), nil
}

func (s *TransactionStore) filter(keep func(*domain.Transaction) bool) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Transaction
	for _, tx := range s.byID {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
