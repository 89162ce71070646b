// Package pricing resolves historical asset prices and currency
// exchange rates from external market-data APIs.
package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource returns the historical unit price of an asset.
// A nil price with a nil error means the source has no quote for that
// asset and date; callers treat it as a valid absence, not a failure.
type PriceSource interface {
	UnitPrice(ctx context.Context, symbol string, at time.Time, currency string) (*decimal.Decimal, error)
}

// CurrencyConverter converts an amount between fiat currencies at a
// historical date. Same-currency conversion is exact and local.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, asOf time.Time) (decimal.Decimal, error)
}
