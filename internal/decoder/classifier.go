package decoder

import (
	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
)

// swapSides holds the resolved legs of a detected swap and the transfer
// events it replaces.
type swapSides struct {
	tokenIn   *domain.Token // asset given up
	amountIn  decimal.Decimal
	tokenOut  *domain.Token // asset received
	amountOut decimal.Decimal
	replaced  map[*domain.Transaction]bool
}

func (s *swapSides) removes(ev *domain.Transaction) bool {
	return s.replaced[ev]
}

// classifyInput is the shape of observed movements a rule matches on.
type classifyInput struct {
	tokenGiven    []*domain.Transaction // token transfers out of the wallet
	tokenReceived []*domain.Transaction // token transfers into the wallet
	solIn         []nativeTransfer
	solOut        []nativeTransfer
}

// swapRule pairs a shape predicate with a result builder. Rules are
// evaluated in order; the first match wins.
type swapRule struct {
	name  string
	match func(in classifyInput) *swapSides
}

// swapRules is the swap disambiguation decision table. Tie-break
// priority is the slice order.
var swapRules = []swapRule{
	{
		// One token out, one token in, no native movement.
		name: "token-to-token",
		match: func(in classifyInput) *swapSides {
			if len(in.tokenGiven) != 1 || len(in.tokenReceived) != 1 ||
				len(in.solIn)+len(in.solOut) != 0 {
				return nil
			}
			given, received := in.tokenGiven[0], in.tokenReceived[0]
			if given.TokenIn.Equal(*received.TokenOut) {
				// Same mint on both sides is a plain transfer between
				// owners, not a swap.
				return nil
			}
			return &swapSides{
				tokenIn:   given.TokenIn,
				amountIn:  *given.AmountIn,
				tokenOut:  received.TokenOut,
				amountOut: *received.AmountOut,
				replaced:  map[*domain.Transaction]bool{given: true, received: true},
			}
		},
	},
	{
		// SOL out, one token in, no other token outflows.
		name: "sol-to-token",
		match: func(in classifyInput) *swapSides {
			if len(in.solOut) != 1 || len(in.tokenReceived) != 1 || len(in.tokenGiven) != 0 {
				return nil
			}
			received := in.tokenReceived[0]
			return &swapSides{
				tokenIn:   tokenRef(domain.SOL),
				amountIn:  in.solOut[0].diff.Abs(),
				tokenOut:  received.TokenOut,
				amountOut: *received.AmountOut,
				replaced:  map[*domain.Transaction]bool{received: true},
			}
		},
	},
	{
		// One token out, SOL in, no other token inflows.
		name: "token-to-sol",
		match: func(in classifyInput) *swapSides {
			if len(in.tokenGiven) != 1 || len(in.solIn) != 1 || len(in.tokenReceived) != 0 {
				return nil
			}
			given := in.tokenGiven[0]
			return &swapSides{
				tokenIn:   given.TokenIn,
				amountIn:  *given.AmountIn,
				tokenOut:  tokenRef(domain.SOL),
				amountOut: in.solIn[0].diff,
				replaced:  map[*domain.Transaction]bool{given: true},
			}
		},
	},
}

// classifySwap inspects the transfer events decoded so far plus the
// pending native transfers and returns the swap they form, or nil when
// no rule matches.
func classifySwap(events []*domain.Transaction, native []nativeTransfer) *swapSides {
	var in classifyInput
	for _, ev := range events {
		if ev.Type != domain.TxTransfer {
			continue
		}
		if ev.TokenIn != nil {
			in.tokenGiven = append(in.tokenGiven, ev)
		}
		if ev.TokenOut != nil {
			in.tokenReceived = append(in.tokenReceived, ev)
		}
	}
	for _, nt := range native {
		if nt.diff.IsPositive() {
			in.solIn = append(in.solIn, nt)
		} else {
			in.solOut = append(in.solOut, nt)
		}
	}

	for _, rule := range swapRules {
		if sides := rule.match(in); sides != nil {
			return sides
		}
	}
	return nil
}
