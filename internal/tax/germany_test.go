package tax

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func at(day int) time.Time {
	return time.Date(2024, 6, day, 12, 0, 0, 0, time.UTC)
}

func buy(id string, day int, token *domain.Token, amount, unitEUR string) *domain.Transaction {
	return &domain.Transaction{
		ID:          id,
		Timestamp:   at(day),
		Type:        domain.TxBuy,
		TokenOut:    token,
		AmountOut:   domain.Dec(dec(amount)),
		PriceOutEUR: domain.Dec(dec(unitEUR)),
	}
}

func sell(id string, day int, token *domain.Token, amount, unitEUR string) *domain.Transaction {
	return &domain.Transaction{
		ID:         id,
		Timestamp:  at(day),
		Type:       domain.TxSell,
		TokenIn:    token,
		AmountIn:   domain.Dec(dec(amount)),
		PriceInEUR: domain.Dec(dec(unitEUR)),
	}
}

func reward(id string, day int, amount, unitEUR string) *domain.Transaction {
	sol := domain.SOL
	tx := &domain.Transaction{
		ID:        id,
		Timestamp: at(day),
		Type:      domain.TxStakeReward,
		TokenOut:  &sol,
		AmountOut: domain.Dec(dec(amount)),
	}
	if unitEUR != "" {
		tx.PriceOutEUR = domain.Dec(dec(unitEUR))
	}
	return tx
}

func TestFIFOConservation(t *testing.T) {
	sol := domain.SOL
	txs := []*domain.Transaction{
		buy("b1", 1, &sol, "10", "2"),  // basis 20
		buy("b2", 2, &sol, "5", "4"),   // basis 20
		sell("s1", 3, &sol, "12", "5"), // proceeds 60
	}

	report, err := NewGermany().Compute(txs, 2024)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	disposal := txs[2]
	if disposal.CostBasisEUR == nil || !disposal.CostBasisEUR.Equal(dec("28")) {
		t.Fatalf("cost basis = %v, want 28", disposal.CostBasisEUR)
	}
	if disposal.ProceedsEUR == nil || !disposal.ProceedsEUR.Equal(dec("60")) {
		t.Fatalf("proceeds = %v, want 60", disposal.ProceedsEUR)
	}
	if disposal.GainLossEUR == nil || !disposal.GainLossEUR.Equal(dec("32")) {
		t.Fatalf("gain = %v, want 32", disposal.GainLossEUR)
	}
	if !report.Summary.TotalGainsEUR.Equal(dec("32")) {
		t.Fatalf("total gains = %s, want 32", report.Summary.TotalGainsEUR)
	}
}

func TestFIFOSplitLeavesShrunkenLot(t *testing.T) {
	book := newLotBook()
	book.push("mint", &Lot{Amount: dec("10"), CostBasis: dec("20"), AcquiredAt: at(1)})
	book.push("mint", &Lot{Amount: dec("5"), CostBasis: dec("20"), AcquiredAt: at(2)})

	c := book.consume("mint", dec("12"))
	if !c.costBasis.Equal(dec("28")) {
		t.Fatalf("consumed basis = %s, want 28", c.costBasis)
	}
	if !c.uncovered.IsZero() {
		t.Fatalf("uncovered = %s, want 0", c.uncovered)
	}

	rest := book.oldest("mint")
	if rest == nil || !rest.Amount.Equal(dec("3")) || !rest.CostBasis.Equal(dec("12")) {
		t.Fatalf("remaining lot = %+v, want 3 units with basis 12", rest)
	}
}

func TestDisposalBeyondLotsGetsZeroBasis(t *testing.T) {
	sol := domain.SOL
	txs := []*domain.Transaction{
		buy("b1", 1, &sol, "2", "10"),  // basis 20
		sell("s1", 2, &sol, "5", "10"), // proceeds 50, only 2 covered
	}

	report, err := NewGermany().Compute(txs, 2024)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	disposal := txs[1]
	if !disposal.CostBasisEUR.Equal(dec("20")) {
		t.Fatalf("cost basis = %s, want 20 (uncovered remainder is zero-basis)", disposal.CostBasisEUR)
	}
	if !disposal.GainLossEUR.Equal(dec("30")) {
		t.Fatalf("gain = %s, want 30", disposal.GainLossEUR)
	}
	if disposal.HoldingPeriodDays == nil || *disposal.HoldingPeriodDays != 0 {
		t.Fatalf("holding period = %v, want 0 for an emptied queue", disposal.HoldingPeriodDays)
	}
	if !report.Summary.NetGainLossEUR.Equal(dec("30")) {
		t.Fatalf("net = %s, want 30", report.Summary.NetGainLossEUR)
	}
}

func TestThreshold(t *testing.T) {
	sol := domain.SOL
	cases := []struct {
		name     string
		proceeds string
		want     string
	}{
		// Gains of 550 stay under the 600 EUR threshold.
		{"under threshold", "650", "0"},
		// Gains of 650 leave 50 taxable.
		{"over threshold", "750", "50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txs := []*domain.Transaction{
				buy("b1", 1, &sol, "1", "100"),
				sell("s1", 2, &sol, "1", tc.proceeds),
			}
			report, err := NewGermany().Compute(txs, 2024)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !report.Summary.TaxableAmountEUR.Equal(dec(tc.want)) {
				t.Fatalf("taxable = %s, want %s", report.Summary.TaxableAmountEUR, tc.want)
			}
		})
	}
}

func TestStakingIncomeSkipsUnpriced(t *testing.T) {
	txs := []*domain.Transaction{
		reward("r1", 1, "2", "100"),  // 200 EUR
		reward("r2", 2, "1", ""),     // unpriced, excluded
		reward("r3", 3, "0.5", "90"), // 45 EUR
	}

	report, err := NewGermany().Compute(txs, 2024)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !report.Summary.StakingRewardsEUR.Equal(dec("245")) {
		t.Fatalf("staking income = %s, want 245", report.Summary.StakingRewardsEUR)
	}
}

func TestSwapProcessesBothLegs(t *testing.T) {
	sol := domain.SOL
	usdc := domain.SPLToken("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", 6)

	swap := &domain.Transaction{
		ID:        "swap1",
		Timestamp: at(5),
		Type:      domain.TxSwap,
		// Give 2 SOL, receive 300 USDC.
		TokenIn:     &sol,
		AmountIn:    domain.Dec(dec("2")),
		PriceInEUR:  domain.Dec(dec("150")),
		TokenOut:    &usdc,
		AmountOut:   domain.Dec(dec("300")),
		PriceOutEUR: domain.Dec(dec("0.95")),
	}
	txs := []*domain.Transaction{
		buy("b1", 1, &sol, "2", "100"), // basis 200
		swap,
		sell("s1", 10, &usdc, "300", "1"), // proceeds 300
	}

	report, err := NewGermany().Compute(txs, 2024)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// Swap disposal leg: proceeds 300, basis 200, gain 100.
	if !swap.GainLossEUR.Equal(dec("100")) {
		t.Fatalf("swap gain = %v, want 100", swap.GainLossEUR)
	}
	// Swap acquisition leg created a 300-unit USDC lot with basis 285,
	// consumed by the later sale: gain 300 - 285 = 15.
	final := txs[2]
	if !final.CostBasisEUR.Equal(dec("285")) {
		t.Fatalf("usdc sale basis = %v, want 285", final.CostBasisEUR)
	}
	if !report.Summary.TotalGainsEUR.Equal(dec("115")) {
		t.Fatalf("total gains = %s, want 115", report.Summary.TotalGainsEUR)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	sol := domain.SOL
	build := func() []*domain.Transaction {
		return []*domain.Transaction{
			buy("b1", 1, &sol, "10", "2"),
			buy("b2", 2, &sol, "5", "4"),
			sell("s1", 3, &sol, "12", "5"),
			reward("r1", 4, "1", "120"),
		}
	}

	first, err := NewGermany().Compute(build(), 2024)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, err := NewGermany().Compute(build(), 2024)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// decimal.Decimal equality is by value, never by struct comparison.
	pairs := []struct {
		name string
		a, b decimal.Decimal
	}{
		{"total gains", first.Summary.TotalGainsEUR, second.Summary.TotalGainsEUR},
		{"total losses", first.Summary.TotalLossesEUR, second.Summary.TotalLossesEUR},
		{"net gain/loss", first.Summary.NetGainLossEUR, second.Summary.NetGainLossEUR},
		{"staking rewards", first.Summary.StakingRewardsEUR, second.Summary.StakingRewardsEUR},
		{"taxable amount", first.Summary.TaxableAmountEUR, second.Summary.TaxableAmountEUR},
	}
	for _, p := range pairs {
		if !p.a.Equal(p.b) {
			t.Errorf("%s differs: %s vs %s", p.name, p.a, p.b)
		}
	}
	if first.Summary.TransactionCount != second.Summary.TransactionCount {
		t.Errorf("transaction counts differ: %d vs %d",
			first.Summary.TransactionCount, second.Summary.TransactionCount)
	}
	if first.AuditTrail != second.AuditTrail {
		t.Fatal("audit trails differ between identical runs")
	}
}

func TestAuditTrailStatesRulesAndFigures(t *testing.T) {
	sol := domain.SOL
	report, err := NewGermany().Compute([]*domain.Transaction{
		buy("b1", 1, &sol, "1", "100"),
		sell("s1", 2, &sol, "1", "800"),
	}, 2024)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, want := range []string{
		"Germany",
		"FIFO",
		"365 days",
		"600 EUR",
		"Total gains: 700 EUR",
		"Taxable amount: 100 EUR",
	} {
		if !strings.Contains(report.AuditTrail, want) {
			t.Errorf("audit trail missing %q:\n%s", want, report.AuditTrail)
		}
	}
}

func TestResolve(t *testing.T) {
	engine, err := Resolve("de")
	if err != nil {
		t.Fatalf("Resolve(de): %v", err)
	}
	if engine.Country() != "DE" {
		t.Fatalf("Country() = %s, want DE", engine.Country())
	}

	if _, err := Resolve("XX"); !errors.Is(err, ErrUnsupportedCountry) {
		t.Fatalf("Resolve(XX) = %v, want ErrUnsupportedCountry", err)
	}

	countries := SupportedCountries()
	if len(countries) != 1 || countries[0] != "DE" {
		t.Fatalf("SupportedCountries() = %v, want [DE]", countries)
	}
}
