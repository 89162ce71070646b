// Package reporting renders tax reports as CSV and Markdown documents.
package reporting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

// RenderCSV renders the report's transactions as a CSV string, one row
// per transaction with its computed tax fields.
func RenderCSV(r *domain.TaxReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("id,timestamp,type,source,token_in,amount_in,token_out,amount_out,")
	sb.WriteString("price_in_eur,price_out_eur,cost_basis_eur,proceeds_eur,gain_loss_eur,")
	sb.WriteString("holding_period_days,fee_eur\n")

	// Rows
	for _, tx := range r.Transactions {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			tx.ID,
			tx.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			tx.Type,
			tx.Source,
			tokenSymbol(tx.TokenIn),
			decString(tx.AmountIn),
			tokenSymbol(tx.TokenOut),
			decString(tx.AmountOut),
			decString(tx.PriceInEUR),
			decString(tx.PriceOutEUR),
			decString(tx.CostBasisEUR),
			decString(tx.ProceedsEUR),
			decString(tx.GainLossEUR),
			intString(tx.HoldingPeriodDays),
			decString(tx.FeeEUR),
		))
	}

	return sb.String()
}

func tokenSymbol(t *domain.Token) string {
	if t == nil {
		return ""
	}
	return t.Symbol
}

func decString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func intString(i *int) string {
	if i == nil {
		return ""
	}
	return fmt.Sprintf("%d", *i)
}
