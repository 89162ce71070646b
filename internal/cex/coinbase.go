package cex

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

const coinbaseTimeLayout = "2006-01-02T15:04:05Z"

// Coinbase parses the "Transactions" CSV export: Timestamp, Transaction
// Type, Asset, Quantity Transacted, Spot Price Currency, Spot Price at
// Transaction, Subtotal, Total (inclusive of fees), Fees, Notes.
type Coinbase struct {
	logger *log.Logger
}

// NewCoinbase creates the Coinbase adapter.
func NewCoinbase(logger *log.Logger) *Coinbase {
	if logger == nil {
		logger = log.Default()
	}
	return &Coinbase{logger: logger}
}

// Exchange returns the adapter name.
func (c *Coinbase) Exchange() string { return domain.SourceCoinbase }

// ParseCSV converts a transactions export into canonical transactions.
// Rows that fail to parse are logged and skipped.
func (c *Coinbase) ParseCSV(r io.Reader) ([]*domain.Transaction, error) {
	rows, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("read coinbase csv: %w", err)
	}

	var txs []*domain.Transaction
	for i, row := range rows {
		tx, err := c.parseRow(row, len(txs))
		if err != nil {
			c.logger.Printf("[cex] coinbase row %d skipped: %v", i+1, err)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *Coinbase) parseRow(row map[string]string, n int) (*domain.Transaction, error) {
	ts, err := time.Parse(coinbaseTimeLayout, row["Timestamp"])
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", row["Timestamp"], err)
	}

	quantity, err := decimal.NewFromString(row["Quantity Transacted"])
	if err != nil {
		return nil, fmt.Errorf("parse quantity %q: %w", row["Quantity Transacted"], err)
	}
	spotPrice := parseOptionalDecimal(row["Spot Price at Transaction"])
	total := parseOptionalDecimal(row["Total (inclusive of fees)"])
	fees := parseOptionalDecimal(row["Fees"]).Abs()

	token := tokenForSymbol(row["Asset"], domain.SourceCoinbase)
	typeStr := strings.ToLower(row["Transaction Type"])

	tx := &domain.Transaction{
		ID:         fmt.Sprintf("coinbase_%d_%d", ts.Unix(), n),
		Timestamp:  ts.UTC(),
		Type:       domain.TxTransfer,
		Chain:      domain.SourceCoinbase,
		Source:     domain.SourceCoinbase,
		Raw:        row,
		AuditNotes: fmt.Sprintf("Coinbase CSV import: %s", typeStr),
	}
	if fees.IsPositive() {
		tx.Fee = domain.Dec(fees)
		usd := usdToken
		tx.FeeToken = &usd
	}

	switch {
	case strings.Contains(typeStr, "buy") || strings.Contains(typeStr, "receive"):
		// Paid USD, received the asset.
		usd := usdToken
		tx.Type = domain.TxBuy
		tx.TokenIn = &usd
		tx.AmountIn = domain.Dec(total)
		tx.TokenOut = &token
		tx.AmountOut = domain.Dec(quantity)
		tx.PriceInUSD = domain.Dec(decimal.NewFromInt(1))
		tx.PriceOutUSD = domain.Dec(spotPrice)
	case strings.Contains(typeStr, "sell") || strings.Contains(typeStr, "send"):
		// Gave the asset, received USD net of fees.
		usd := usdToken
		tx.Type = domain.TxSell
		tx.TokenIn = &token
		tx.AmountIn = domain.Dec(quantity)
		tx.TokenOut = &usd
		tx.AmountOut = domain.Dec(total.Sub(fees))
		tx.PriceInUSD = domain.Dec(spotPrice)
		tx.PriceOutUSD = domain.Dec(decimal.NewFromInt(1))
	case strings.Contains(typeStr, "convert"):
		tx.Type = domain.TxSwap
		tx.TokenIn = &token
		tx.AmountIn = domain.Dec(quantity.Abs())
	default:
		if quantity.IsPositive() {
			tx.TokenOut = &token
			tx.AmountOut = domain.Dec(quantity)
		} else if quantity.IsNegative() {
			tx.TokenIn = &token
			tx.AmountIn = domain.Dec(quantity.Abs())
		}
	}
	return tx, nil
}

func parseOptionalDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var _ Adapter = (*Coinbase)(nil)
