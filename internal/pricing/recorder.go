package pricing

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/storage"
)

// RecordingSource wraps a PriceSource, counting lookups and appending
// each result to a price-history audit log. Recording is best-effort:
// a failed append never fails the lookup.
type RecordingSource struct {
	next    PriceSource
	history storage.PriceHistoryStore
	lookups prometheus.Counter
	logger  *log.Logger
}

// NewRecordingSource wraps next. Either history or lookups may be nil
// to disable that half of the recording.
func NewRecordingSource(next PriceSource, history storage.PriceHistoryStore, lookups prometheus.Counter, logger *log.Logger) *RecordingSource {
	if logger == nil {
		logger = log.Default()
	}
	return &RecordingSource{next: next, history: history, lookups: lookups, logger: logger}
}

func (r *RecordingSource) UnitPrice(ctx context.Context, symbol string, at time.Time, currency string) (*decimal.Decimal, error) {
	price, err := r.next.UnitPrice(ctx, symbol, at, currency)
	if err != nil {
		return nil, err
	}

	if r.lookups != nil {
		r.lookups.Inc()
	}
	if r.history != nil {
		lookup := storage.PriceLookup{
			Symbol:    symbol,
			Day:       at.UTC().Truncate(24 * time.Hour),
			Currency:  currency,
			FetchedAt: time.Now().UTC(),
		}
		if price != nil {
			lookup.Price = price.String()
		}
		if recErr := r.history.Record(ctx, lookup); recErr != nil {
			r.logger.Printf("[pricing] record lookup %s: %v", symbol, recErr)
		}
	}
	return price, err
}

var _ PriceSource = (*RecordingSource)(nil)
