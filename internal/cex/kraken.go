package cex

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

// Kraken parses the "Ledgers" CSV export:
// txid, refid, time, type, subtype, aclass, asset, amount, fee, balance.
type Kraken struct {
	logger *log.Logger
}

// NewKraken creates the Kraken adapter.
func NewKraken(logger *log.Logger) *Kraken {
	if logger == nil {
		logger = log.Default()
	}
	return &Kraken{logger: logger}
}

// Exchange returns the adapter name.
func (k *Kraken) Exchange() string { return domain.SourceKraken }

// ParseCSV converts a ledgers export into canonical transactions. Rows
// that fail to parse are logged and skipped.
func (k *Kraken) ParseCSV(r io.Reader) ([]*domain.Transaction, error) {
	rows, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("read kraken csv: %w", err)
	}

	var txs []*domain.Transaction
	for i, row := range rows {
		tx, err := k.parseRow(row, len(txs))
		if err != nil {
			k.logger.Printf("[cex] kraken row %d skipped: %v", i+1, err)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (k *Kraken) parseRow(row map[string]string, n int) (*domain.Transaction, error) {
	// The time column is Unix seconds, possibly fractional.
	secs, err := strconv.ParseFloat(row["time"], 64)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", row["time"], err)
	}
	whole, frac := math.Modf(secs)
	ts := time.Unix(int64(whole), int64(frac*1e9)).UTC()

	amount, err := decimal.NewFromString(row["amount"])
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", row["amount"], err)
	}
	fee := decimal.Zero
	if row["fee"] != "" {
		if fee, err = decimal.NewFromString(row["fee"]); err != nil {
			return nil, fmt.Errorf("parse fee %q: %w", row["fee"], err)
		}
	}

	token := tokenForSymbol(row["asset"], domain.SourceKraken)

	txType := domain.TxTransfer
	switch row["type"] {
	case "deposit":
		txType = domain.TxDeposit
	case "withdrawal":
		txType = domain.TxWithdrawal
	case "trade":
		txType = domain.TxSwap
	}

	tx := &domain.Transaction{
		ID:         fmt.Sprintf("kraken_%s_%d", row["txid"], n),
		Timestamp:  ts,
		Type:       txType,
		Chain:      domain.SourceKraken,
		Source:     domain.SourceKraken,
		Raw:        row,
		AuditNotes: fmt.Sprintf("Kraken CSV import: %s", row["type"]),
	}
	if amount.IsNegative() {
		tx.TokenIn = &token
		tx.AmountIn = domain.Dec(amount.Abs())
	} else if amount.IsPositive() {
		tx.TokenOut = &token
		tx.AmountOut = domain.Dec(amount)
	}
	if fee.IsPositive() {
		tx.Fee = domain.Dec(fee)
		tx.FeeToken = &token
	}
	return tx, nil
}

// readRecords reads a CSV into header-keyed row maps.
func readRecords(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var _ Adapter = (*Kraken)(nil)
