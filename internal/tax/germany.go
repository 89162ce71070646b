package tax

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

// Germany computes German tax reports under the rules in germanyRules.
type Germany struct {
	rules Rules
}

// NewGermany creates the German tax engine.
func NewGermany() *Germany {
	return &Germany{rules: germanyRules}
}

// Country returns the ISO country code.
func (g *Germany) Country() string { return g.rules.CountryCode }

// Compute runs the full calculation over the given transactions for one
// tax year. Transactions are expected to be year-filtered and enriched;
// missing price fields degrade the affected figures to zero instead of
// failing.
func (g *Germany) Compute(txs []*domain.Transaction, year int) (*domain.TaxReport, error) {
	var rewards, capital []*domain.Transaction
	for _, tx := range txs {
		switch tx.Type {
		case domain.TxStakeReward:
			rewards = append(rewards, tx)
		case domain.TxBuy, domain.TxSell, domain.TxSwap:
			capital = append(capital, tx)
		}
	}

	stakingIncome := g.stakingIncome(rewards)

	// Lot accounting walks capital events oldest first.
	ordered := make([]*domain.Transaction, len(capital))
	copy(ordered, capital)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	book := newLotBook()
	var gains, losses decimal.Decimal
	var disposalLines []string

	for _, tx := range ordered {
		switch tx.Type {
		case domain.TxBuy:
			g.acquire(book, tx, true)
		case domain.TxSell:
			line := g.dispose(book, tx, &gains, &losses)
			if line != "" {
				disposalLines = append(disposalLines, line)
			}
		case domain.TxSwap:
			// A swap is a disposal of the given asset and an
			// acquisition of the received one. The disposal leg owns
			// the transaction's tax fields.
			line := g.dispose(book, tx, &gains, &losses)
			if line != "" {
				disposalLines = append(disposalLines, line)
			}
			g.acquire(book, tx, false)
		}
	}

	net := gains.Sub(losses)
	taxable := net.Add(stakingIncome).Sub(g.rules.TaxFreeThresholdEUR)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	summary := domain.TaxSummary{
		TotalGainsEUR:     gains,
		TotalLossesEUR:    losses,
		NetGainLossEUR:    net,
		StakingRewardsEUR: stakingIncome,
		TaxableAmountEUR:  taxable,
		TransactionCount:  len(txs),
	}

	return &domain.TaxReport{
		Country:      g.rules.CountryCode,
		Year:         year,
		GeneratedAt:  time.Now().UTC(),
		Summary:      summary,
		Transactions: txs,
		AuditTrail:   g.auditTrail(year, summary, disposalLines),
	}, nil
}

// stakingIncome sums the EUR value of reward events. Rewards missing a
// price or amount are excluded from the sum, not errors.
func (g *Germany) stakingIncome(rewards []*domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range rewards {
		if tx.PriceOutEUR == nil || tx.AmountOut == nil {
			continue
		}
		total = total.Add(tx.PriceOutEUR.Mul(*tx.AmountOut))
	}
	return total
}

// acquire pushes a lot for the received side of tx. For a pure BUY the
// cost basis is also recorded on the transaction; for the acquisition
// leg of a swap the tax fields belong to the disposal leg.
func (g *Germany) acquire(book *lotBook, tx *domain.Transaction, recordBasis bool) {
	if tx.TokenOut == nil || tx.AmountOut == nil || !tx.AmountOut.IsPositive() {
		return
	}
	basis := decimal.Zero
	if tx.PriceOutEUR != nil {
		basis = tx.PriceOutEUR.Mul(*tx.AmountOut)
	}
	book.push(tx.TokenOut.Address, &Lot{
		Amount:     *tx.AmountOut,
		CostBasis:  basis,
		AcquiredAt: tx.Timestamp,
	})
	if recordBasis {
		tx.CostBasisEUR = &basis
	}
}

// dispose consumes lots for the given side of tx, records the tax
// fields, and accumulates the gain or loss. Returns an audit line, or
// empty when tx has no disposable side.
func (g *Germany) dispose(book *lotBook, tx *domain.Transaction, gains, losses *decimal.Decimal) string {
	if tx.TokenIn == nil || tx.AmountIn == nil || !tx.AmountIn.IsPositive() {
		return ""
	}

	amount := *tx.AmountIn
	proceeds := decimal.Zero
	if tx.PriceInEUR != nil {
		proceeds = tx.PriceInEUR.Mul(amount)
	}

	c := book.consume(tx.TokenIn.Address, amount)
	gainLoss := proceeds.Sub(c.costBasis)

	tx.CostBasisEUR = &c.costBasis
	tx.ProceedsEUR = &proceeds
	tx.GainLossEUR = &gainLoss

	holdingDays := 0
	if oldest := book.oldest(tx.TokenIn.Address); oldest != nil {
		holdingDays = int(tx.Timestamp.Sub(oldest.AcquiredAt).Hours() / 24)
	}
	tx.HoldingPeriodDays = &holdingDays

	if gainLoss.IsNegative() {
		*losses = losses.Add(gainLoss.Abs())
	} else {
		*gains = gains.Add(gainLoss)
	}

	line := fmt.Sprintf("%s dispose %s %s: proceeds %s EUR, cost basis %s EUR, gain/loss %s EUR",
		tx.Timestamp.UTC().Format("2006-01-02"), amount, tx.TokenIn.Symbol, proceeds, c.costBasis, gainLoss)
	if c.uncovered.IsPositive() {
		line += fmt.Sprintf(" (uncovered %s at zero cost basis)", c.uncovered)
	}
	return line
}

// auditTrail renders the deterministic plain-text record of the
// calculation: the rules applied and the summary figures.
func (g *Germany) auditTrail(year int, s domain.TaxSummary, disposals []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tax calculation for %s, year %d\n", g.rules.CountryName, year)
	fmt.Fprintf(&b, "Cost basis method: %s\n", g.rules.CostBasis)
	fmt.Fprintf(&b, "Holding period rule: gains on assets held over %d days are tax-free\n", g.rules.HoldingPeriodDays)
	fmt.Fprintf(&b, "Tax-free threshold: %s EUR\n", g.rules.TaxFreeThresholdEUR)
	fmt.Fprintf(&b, "Staking rewards treated as income: %t\n", g.rules.StakingIsIncome)
	b.WriteString("\n")

	if len(disposals) > 0 {
		b.WriteString("Disposals:\n")
		for _, line := range disposals {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total gains: %s EUR\n", s.TotalGainsEUR)
	fmt.Fprintf(&b, "Total losses: %s EUR\n", s.TotalLossesEUR)
	fmt.Fprintf(&b, "Net gain/loss: %s EUR\n", s.NetGainLossEUR)
	fmt.Fprintf(&b, "Staking rewards: %s EUR\n", s.StakingRewardsEUR)
	fmt.Fprintf(&b, "Taxable amount: %s EUR\n", s.TaxableAmountEUR)
	return b.String()
}

var _ Engine = (*Germany)(nil)
