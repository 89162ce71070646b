package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxSummary aggregates the outcome of one tax calculation.
type TaxSummary struct {
	TotalGainsEUR     decimal.Decimal
	TotalLossesEUR    decimal.Decimal
	NetGainLossEUR    decimal.Decimal
	StakingRewardsEUR decimal.Decimal
	TaxableAmountEUR  decimal.Decimal
	TransactionCount  int
}

// TaxReport is the complete, self-contained output of the tax engine.
// Transactions carry their computed tax fields and serve as the
// immutable record of how the summary was derived.
type TaxReport struct {
	Country      string
	Year         int
	GeneratedAt  time.Time
	Summary      TaxSummary
	Transactions []*Transaction
	AuditTrail   string
}
