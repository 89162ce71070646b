package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/storage"
)

func sampleTx(id string, ts time.Time) *domain.Transaction {
	sol := domain.SOL
	return &domain.Transaction{
		ID:         id,
		Timestamp:  ts,
		Type:       domain.TxSell,
		Chain:      domain.ChainSolana,
		Source:     domain.SourceWallet,
		TokenIn:    &sol,
		AmountIn:   domain.Dec(decimal.RequireFromString("2.5")),
		PriceInEUR: domain.Dec(decimal.RequireFromString("142.31")),
		Fee:        domain.Dec(decimal.RequireFromString("0.000005")),
		AuditNotes: "test transaction",
	}
}

func TestTransactionStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	tx := sampleTx("tx-001", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, tx))

	got, err := store.GetByID(ctx, "tx-001")
	require.NoError(t, err)

	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, tx.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, tx.Type, got.Type)
	assert.Equal(t, tx.Source, got.Source)
	require.NotNil(t, got.TokenIn)
	assert.Equal(t, "SOL", got.TokenIn.Symbol)
	require.NotNil(t, got.AmountIn)
	assert.True(t, got.AmountIn.Equal(decimal.RequireFromString("2.5")))
	require.NotNil(t, got.PriceInEUR)
	assert.True(t, got.PriceInEUR.Equal(decimal.RequireFromString("142.31")))
	assert.Nil(t, got.TokenOut)
	assert.Nil(t, got.GainLossEUR)
	assert.Equal(t, "test transaction", got.AuditNotes)
}

func TestTransactionStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	tx := sampleTx("tx-dup", time.Now().UTC())
	require.NoError(t, store.Insert(ctx, tx))

	err := store.Insert(ctx, tx)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTransactionStore_InsertBatchSkipsDuplicates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, sampleTx("tx-1", ts)))

	n, err := store.InsertBatch(ctx, []*domain.Transaction{
		sampleTx("tx-1", ts),
		sampleTx("tx-2", ts.Add(time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTransactionStore_GetByYear(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, sampleTx("tx-2023", time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC))))
	require.NoError(t, store.Insert(ctx, sampleTx("tx-2024a", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.Insert(ctx, sampleTx("tx-2024b", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))

	got, err := store.GetByYear(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tx-2024b", got[0].ID)
	assert.Equal(t, "tx-2024a", got[1].ID)
}

func TestTransactionStore_GetBySource(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	wallet := sampleTx("tx-w", ts)
	kraken := sampleTx("tx-k", ts)
	kraken.Source = domain.SourceKraken

	require.NoError(t, store.Insert(ctx, wallet))
	require.NoError(t, store.Insert(ctx, kraken))

	got, err := store.GetBySource(ctx, domain.SourceKraken)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tx-k", got[0].ID)
}
