package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

// RenderMarkdown renders the report as a Markdown document.
func RenderMarkdown(r *domain.TaxReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Tax Report %d (%s)\n\n", r.Year, r.Country))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Gains | %s EUR |\n", r.Summary.TotalGainsEUR))
	sb.WriteString(fmt.Sprintf("| Total Losses | %s EUR |\n", r.Summary.TotalLossesEUR))
	sb.WriteString(fmt.Sprintf("| Net Gain/Loss | %s EUR |\n", r.Summary.NetGainLossEUR))
	sb.WriteString(fmt.Sprintf("| Staking Rewards | %s EUR |\n", r.Summary.StakingRewardsEUR))
	sb.WriteString(fmt.Sprintf("| Taxable Amount | %s EUR |\n", r.Summary.TaxableAmountEUR))
	sb.WriteString(fmt.Sprintf("| Transactions | %d |\n", r.Summary.TransactionCount))
	sb.WriteString("\n")

	// Transactions
	sb.WriteString("## Transactions\n\n")
	if len(r.Transactions) > 0 {
		sb.WriteString("| Date | Type | In | Out | Proceeds EUR | Cost Basis EUR | Gain/Loss EUR |\n")
		sb.WriteString("|------|------|----|-----|--------------|----------------|---------------|\n")
		for _, tx := range r.Transactions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n",
				tx.Timestamp.UTC().Format("2006-01-02"),
				tx.Type,
				side(tx.TokenIn, tx.AmountIn),
				side(tx.TokenOut, tx.AmountOut),
				decString(tx.ProceedsEUR),
				decString(tx.CostBasisEUR),
				decString(tx.GainLossEUR)))
		}
	} else {
		sb.WriteString("No transactions in this period.\n")
	}
	sb.WriteString("\n")

	// Audit Trail
	if r.AuditTrail != "" {
		sb.WriteString("## Audit Trail\n\n")
		sb.WriteString("```\n")
		sb.WriteString(r.AuditTrail)
		if !strings.HasSuffix(r.AuditTrail, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
	}

	return sb.String()
}

func side(t *domain.Token, amount *decimal.Decimal) string {
	if t == nil || amount == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", amount, t.Symbol)
}
