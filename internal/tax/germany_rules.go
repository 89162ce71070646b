package tax

import "github.com/shopspring/decimal"

// germanyRules encodes the private-sale rules of §23 EStG as applied to
// crypto assets: FIFO lot consumption, a one-year speculation period,
// staking rewards taxed as income at receipt, and the 600 EUR
// tax-free threshold for private sale gains.
var germanyRules = Rules{
	CountryCode:         "DE",
	CountryName:         "Germany",
	CostBasis:           FIFO,
	HoldingPeriodDays:   365,
	TaxFreeThresholdEUR: decimal.NewFromInt(600),
	StakingIsIncome:     true,
}
