// Package tax computes jurisdiction-specific tax reports from enriched
// canonical transactions using lot accounting.
package tax

import (
	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

// CostBasisMethod names the lot-consumption order of a jurisdiction.
type CostBasisMethod string

const (
	// FIFO consumes the oldest acquired lots first.
	FIFO CostBasisMethod = "FIFO"
)

// Rules are the jurisdiction parameters driving a calculation.
type Rules struct {
	CountryCode       string
	CountryName       string
	CostBasis         CostBasisMethod
	HoldingPeriodDays int
	// TaxFreeThresholdEUR is subtracted from net gains plus staking
	// income before the taxable amount is floored at zero.
	TaxFreeThresholdEUR decimal.Decimal
	// StakingIsIncome reports whether staking rewards are taxed as
	// ordinary income at receipt.
	StakingIsIncome bool
}

// Engine computes a complete TaxReport for one jurisdiction. Compute is
// deterministic: identical inputs yield an identical report. It never
// fails for malformed per-transaction data; missing fields degrade to
// zero or unset and processing continues.
type Engine interface {
	Country() string
	Compute(txs []*domain.Transaction, year int) (*domain.TaxReport, error)
}
