// Package normalization merges transactions from multiple sources into
// a single deduplicated, chronologically ordered, price-enriched list.
package normalization

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/pricing"
)

// Normalizer prepares transactions for tax calculation. All methods
// mutate only price fields and never drop a transaction for a pricing
// failure.
type Normalizer struct {
	prices    pricing.PriceSource
	converter pricing.CurrencyConverter
	logger    *log.Logger
}

// New creates a Normalizer with the given price collaborators.
func New(prices pricing.PriceSource, converter pricing.CurrencyConverter, logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Normalizer{
		prices:    prices,
		converter: converter,
		logger:    logger,
	}
}

// Normalize deduplicates by ID (first occurrence wins), orders by
// timestamp with a stable sort, and enriches every transaction with EUR
// unit prices. The input slice is not modified.
func (n *Normalizer) Normalize(ctx context.Context, txs []*domain.Transaction) ([]*domain.Transaction, error) {
	seen := make(map[string]bool, len(txs))
	out := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx == nil || seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	for _, tx := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n.enrich(ctx, tx)
	}

	n.logger.Printf("[normalizer] normalized %d transactions (%d duplicates dropped)", len(out), len(txs)-len(out))
	return out, nil
}

// Merge concatenates transaction lists from several sources and
// normalizes the result.
func (n *Normalizer) Merge(ctx context.Context, lists ...[]*domain.Transaction) ([]*domain.Transaction, error) {
	var all []*domain.Transaction
	for _, list := range lists {
		all = append(all, list...)
	}
	return n.Normalize(ctx, all)
}

// FilterByYear returns the transactions whose timestamp falls in the
// given calendar year (UTC).
func FilterByYear(txs []*domain.Transaction, year int) []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Timestamp.UTC().Year() == year {
			out = append(out, tx)
		}
	}
	return out
}

// enrich fills the EUR unit-price fields of one transaction. Each side
// is skipped when already priced, so enrichment is idempotent. Missing
// upstream prices leave the field nil and are not errors.
func (n *Normalizer) enrich(ctx context.Context, tx *domain.Transaction) {
	if tx.TokenIn != nil && positive(tx.AmountIn) && tx.PriceInEUR == nil {
		usd, eur := n.unitPrices(ctx, tx.TokenIn.Symbol, *tx.AmountIn, tx.Timestamp)
		tx.PriceInUSD = usd
		tx.PriceInEUR = eur
	}
	if tx.TokenOut != nil && positive(tx.AmountOut) && tx.PriceOutEUR == nil {
		usd, eur := n.unitPrices(ctx, tx.TokenOut.Symbol, *tx.AmountOut, tx.Timestamp)
		tx.PriceOutUSD = usd
		tx.PriceOutEUR = eur
	}
	if positive(tx.Fee) && tx.FeeEUR == nil {
		feeToken := tx.FeeToken
		if feeToken == nil {
			t := domain.SOL
			feeToken = &t
		}
		_, eurUnit := n.unitPrices(ctx, feeToken.Symbol, *tx.Fee, tx.Timestamp)
		if eurUnit != nil {
			total := eurUnit.Mul(*tx.Fee)
			tx.FeeEUR = &total
		}
	}
}

// unitPrices resolves the USD unit price at the transaction timestamp
// and derives the EUR unit price via the total value at that date.
func (n *Normalizer) unitPrices(ctx context.Context, symbol string, amount decimal.Decimal, at time.Time) (usd, eur *decimal.Decimal) {
	usd, err := n.prices.UnitPrice(ctx, symbol, at, "usd")
	if err != nil {
		n.logger.Printf("[normalizer] price lookup failed for %s at %s: %v", symbol, at.Format(time.RFC3339), err)
		return nil, nil
	}
	if usd == nil {
		return nil, nil
	}

	totalUSD := usd.Mul(amount)
	totalEUR, err := n.converter.Convert(ctx, totalUSD, "USD", "EUR", at)
	if err != nil {
		n.logger.Printf("[normalizer] fx conversion failed for %s at %s: %v", symbol, at.Format(time.RFC3339), err)
		return usd, nil
	}
	if amount.IsZero() {
		return usd, nil
	}

	perUnit := totalEUR.Div(amount)
	return usd, &perUnit
}

func positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}
