package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const txColumns = `
	id, ts, tx_type, chain, source,
	token_in_symbol, token_in_address, token_in_decimals,
	token_out_symbol, token_out_address, token_out_decimals,
	amount_in, amount_out,
	price_in_usd, price_out_usd, price_in_eur, price_out_eur,
	cost_basis_eur, proceeds_eur, gain_loss_eur, holding_period_days,
	fee, fee_token_symbol, fee_token_address, fee_eur, audit_notes
`

// Insert adds a transaction. Returns ErrDuplicateKey if the id exists.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transactions (` + txColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := s.pool.Exec(ctx, query, insertArgs(tx)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// InsertBatch adds transactions, skipping ids that already exist.
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
func (s *TransactionStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return tx, nil
}

// GetBySource retrieves transactions from one source, timestamp ASC.
func (s *TransactionStore) GetBySource(ctx context.Context, source string) ([]*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE source = $1 ORDER BY ts ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("get transactions by source: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByYear retrieves transactions of one calendar year, timestamp ASC.
func (s *TransactionStore) GetByYear(ctx context.Context, year int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE EXTRACT(YEAR FROM ts AT TIME ZONE 'UTC') = $1
		ORDER BY ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("get transactions by year: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func insertArgs(tx *domain.Transaction) []any {
	inSym, inAddr, inDec := tokenCols(tx.TokenIn)
	outSym, outAddr, outDec := tokenCols(tx.TokenOut)
	feeSym, feeAddr, _ := tokenCols(tx.FeeToken)

	return []any{
		tx.ID, tx.Timestamp.UTC(), string(tx.Type), tx.Chain, tx.Source,
		inSym, inAddr, inDec,
		outSym, outAddr, outDec,
		nullDec(tx.AmountIn), nullDec(tx.AmountOut),
		nullDec(tx.PriceInUSD), nullDec(tx.PriceOutUSD), nullDec(tx.PriceInEUR), nullDec(tx.PriceOutEUR),
		nullDec(tx.CostBasisEUR), nullDec(tx.ProceedsEUR), nullDec(tx.GainLossEUR), nullInt(tx.HoldingPeriodDays),
		nullDec(tx.Fee), feeSym, feeAddr, nullDec(tx.FeeEUR), tx.AuditNotes,
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx                      domain.Transaction
		txType                  string
		inSym, inAddr           sql.NullString
		outSym, outAddr         sql.NullString
		feeSym, feeAddr         sql.NullString
		inDec, outDec           sql.NullInt32
		amountIn, amountOut     decimal.NullDecimal
		priceInUSD, priceOutUSD decimal.NullDecimal
		priceInEUR, priceOutEUR decimal.NullDecimal
		costBasis, proceeds     decimal.NullDecimal
		gainLoss, fee, feeEUR   decimal.NullDecimal
		holdingDays             sql.NullInt32
	)

	err := row.Scan(
		&tx.ID, &tx.Timestamp, &txType, &tx.Chain, &tx.Source,
		&inSym, &inAddr, &inDec,
		&outSym, &outAddr, &outDec,
		&amountIn, &amountOut,
		&priceInUSD, &priceOutUSD, &priceInEUR, &priceOutEUR,
		&costBasis, &proceeds, &gainLoss, &holdingDays,
		&fee, &feeSym, &feeAddr, &feeEUR, &tx.AuditNotes,
	)
	if err != nil {
		return nil, err
	}

	tx.Type = domain.TxType(txType)
	tx.TokenIn = tokenFromCols(inSym, inAddr, inDec, tx.Chain)
	tx.TokenOut = tokenFromCols(outSym, outAddr, outDec, tx.Chain)
	tx.FeeToken = tokenFromCols(feeSym, feeAddr, sql.NullInt32{}, tx.Chain)
	tx.AmountIn = decPtr(amountIn)
	tx.AmountOut = decPtr(amountOut)
	tx.PriceInUSD = decPtr(priceInUSD)
	tx.PriceOutUSD = decPtr(priceOutUSD)
	tx.PriceInEUR = decPtr(priceInEUR)
	tx.PriceOutEUR = decPtr(priceOutEUR)
	tx.CostBasisEUR = decPtr(costBasis)
	tx.ProceedsEUR = decPtr(proceeds)
	tx.GainLossEUR = decPtr(gainLoss)
	tx.Fee = decPtr(fee)
	tx.FeeEUR = decPtr(feeEUR)
	if holdingDays.Valid {
		days := int(holdingDays.Int32)
		tx.HoldingPeriodDays = &days
	}
	return &tx, nil
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func tokenCols(t *domain.Token) (sym, addr sql.NullString, decimals sql.NullInt32) {
	if t == nil {
		return
	}
	sym = sql.NullString{String: t.Symbol, Valid: true}
	addr = sql.NullString{String: t.Address, Valid: true}
	decimals = sql.NullInt32{Int32: int32(t.Decimals), Valid: true}
	return
}

func tokenFromCols(sym, addr sql.NullString, decimals sql.NullInt32, chain string) *domain.Token {
	if !sym.Valid {
		return nil
	}
	return &domain.Token{
		Symbol:   sym.String,
		Name:     sym.String,
		Address:  addr.String,
		Decimals: int(decimals.Int32),
		Chain:    chain,
	}
}

func nullDec(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullInt(i *int) sql.NullInt32 {
	if i == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*i), Valid: true}
}

func decPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
