// Package decoder reconstructs canonical economic events from raw Solana
// transaction records by interpreting balance deltas.
package decoder

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"solana-tax-tracker/internal/domain"
	"solana-tax-tracker/internal/solana"
)

// Detection thresholds, in native units.
var (
	// minRewardDelta is the smallest balance increase considered a
	// candidate staking reward.
	minRewardDelta = decimal.RequireFromString("0.0001")

	// rewardSanityCap bounds balance-diff reward detection: larger
	// increases on non-wallet accounts are ordinary transfers.
	rewardSanityCap = decimal.NewFromInt(10)

	// minTransferDelta filters out dust and rounding noise.
	minTransferDelta = decimal.RequireFromString("0.000001")
)

// Decode converts one raw transaction record into zero or more canonical
// transactions for the given wallet address. Records without a block
// timestamp are dropped (empty result), never an error. Decode is a pure
// function of its inputs.
func Decode(raw *solana.Transaction, wallet string) []*domain.Transaction {
	if raw == nil || raw.Meta == nil || raw.BlockTime == 0 {
		return nil
	}

	meta := raw.Meta
	sig := raw.Signature
	ts := time.Unix(raw.BlockTime, 0).UTC()
	fee := lamportsToSOL(int64(meta.Fee))

	var accountKeys []string
	if raw.Message != nil {
		accountKeys = raw.Message.AccountKeys
	}

	var events []*domain.Transaction

	// consumed marks account indices claimed by reward detection so the
	// same balance delta is never also emitted as a transfer.
	consumed := make(map[int]bool)

	// Tier 1: explicit rewards array.
	rewardFound := false
	for _, r := range meta.Rewards {
		if r.Lamports <= 0 {
			continue
		}
		rewardFound = true
		amount := lamportsToSOL(r.Lamports)

		idx := indexOfAccount(accountKeys, r.Pubkey)
		var id string
		if idx >= 0 {
			consumed[idx] = true
			id = fmt.Sprintf("%s_reward_%d_%d", sig, idx, len(events))
		} else {
			// Stake accounts are often absent from accountKeys; the
			// reward still counts.
			id = fmt.Sprintf("%s_reward_stake_%s_%d", sig, shortKey(r.Pubkey), len(events))
		}

		events = append(events, &domain.Transaction{
			ID:         id,
			Timestamp:  ts,
			Type:       domain.TxStakeReward,
			Chain:      domain.ChainSolana,
			Source:     domain.SourceWallet,
			TokenOut:   tokenRef(domain.SOL),
			AmountOut:  domain.Dec(amount),
			Fee:        domain.Dec(decimal.Zero),
			Raw:        raw,
			AuditNotes: fmt.Sprintf("Staking reward: %s SOL to %s (type: %s)", amount, shortKey(r.Pubkey), r.RewardType),
		})
	}

	// Tier 2: balance-diff fallback, only when tier 1 found nothing.
	if !rewardFound {
		hasTokenMovement := len(meta.PreTokenBalances) > 0 || len(meta.PostTokenBalances) > 0
		n := len(meta.PreBalances)
		if len(meta.PostBalances) < n {
			n = len(meta.PostBalances)
		}
		for i := 0; i < n; i++ {
			if consumed[i] {
				continue
			}
			delta := lamportsDelta(meta.PreBalances[i], meta.PostBalances[i])
			if !delta.GreaterThan(minRewardDelta) {
				continue
			}
			if !delta.Sub(fee).Abs().GreaterThan(minRewardDelta) {
				// Delta coincides with the fee.
				continue
			}

			isWallet := wallet != "" && i < len(accountKeys) && accountKeys[i] == wallet
			if !isWallet && (hasTokenMovement || !delta.LessThan(rewardSanityCap)) {
				continue
			}

			consumed[i] = true
			events = append(events, &domain.Transaction{
				ID:         fmt.Sprintf("%s_reward_balance_%d", sig, i),
				Timestamp:  ts,
				Type:       domain.TxStakeReward,
				Chain:      domain.ChainSolana,
				Source:     domain.SourceWallet,
				TokenOut:   tokenRef(domain.SOL),
				AmountOut:  domain.Dec(delta),
				Fee:        domain.Dec(decimal.Zero),
				Raw:        raw,
				AuditNotes: fmt.Sprintf("Staking reward detected from balance change: +%s SOL on account %d", delta, i),
			})
		}
	}

	// Token transfers: net change per (owner, mint) pair.
	for _, tc := range tokenChanges(meta) {
		diff := tc.post.Sub(tc.pre)
		if !diff.Abs().GreaterThan(minTransferDelta) {
			continue
		}

		token := domain.SPLToken(tc.mint, tc.decimals)
		txFee := decimal.Zero
		if len(events) == 0 {
			txFee = fee
		}

		if diff.IsPositive() {
			events = append(events, &domain.Transaction{
				ID:         fmt.Sprintf("%s_token_in_%d", sig, len(events)),
				Timestamp:  ts,
				Type:       domain.TxTransfer,
				Chain:      domain.ChainSolana,
				Source:     domain.SourceWallet,
				TokenOut:   &token,
				AmountOut:  domain.Dec(diff),
				Fee:        domain.Dec(txFee),
				Raw:        raw,
				AuditNotes: "Token transfer detected",
			})
		} else {
			events = append(events, &domain.Transaction{
				ID:         fmt.Sprintf("%s_token_out_%d", sig, len(events)),
				Timestamp:  ts,
				Type:       domain.TxTransfer,
				Chain:      domain.ChainSolana,
				Source:     domain.SourceWallet,
				TokenIn:    &token,
				AmountIn:   domain.Dec(diff.Abs()),
				Fee:        domain.Dec(txFee),
				Raw:        raw,
				AuditNotes: "Token transfer detected",
			})
		}
	}

	// Native transfers: balance deltas not claimed as rewards and not
	// explained by the fee (or its absorption on the payer account).
	var native []nativeTransfer
	n := len(meta.PreBalances)
	if len(meta.PostBalances) < n {
		n = len(meta.PostBalances)
	}
	for i := 0; i < n; i++ {
		if consumed[i] {
			continue
		}
		diff := lamportsDelta(meta.PreBalances[i], meta.PostBalances[i])
		if !diff.Abs().GreaterThan(minTransferDelta) {
			continue
		}
		if !diff.Sub(fee).Abs().GreaterThan(minTransferDelta) {
			continue
		}
		if !diff.Add(fee).Abs().GreaterThan(minTransferDelta) {
			continue
		}
		native = append(native, nativeTransfer{index: i, diff: diff})
	}

	// Swap disambiguation over the collected transfers.
	if sides := classifySwap(events, native); sides != nil {
		kept := events[:0:0]
		for _, ev := range events {
			if !sides.removes(ev) {
				kept = append(kept, ev)
			}
		}
		events = kept

		events = append(events, &domain.Transaction{
			ID:        fmt.Sprintf("%s_swap", sig),
			Timestamp: ts,
			Type:      domain.TxSwap,
			Chain:     domain.ChainSolana,
			Source:    domain.SourceWallet,
			TokenIn:   sides.tokenIn,
			AmountIn:  domain.Dec(sides.amountIn),
			TokenOut:  sides.tokenOut,
			AmountOut: domain.Dec(sides.amountOut),
			Fee:       domain.Dec(fee),
			Raw:       raw,
			AuditNotes: fmt.Sprintf("Swap: %s %s -> %s %s",
				sides.amountIn, sides.tokenIn.Symbol, sides.amountOut, sides.tokenOut.Symbol),
		})
	} else {
		for _, nt := range native {
			if nt.diff.IsPositive() {
				events = append(events, &domain.Transaction{
					ID:         fmt.Sprintf("%s_sol_in_%d", sig, nt.index),
					Timestamp:  ts,
					Type:       domain.TxTransfer,
					Chain:      domain.ChainSolana,
					Source:     domain.SourceWallet,
					TokenOut:   tokenRef(domain.SOL),
					AmountOut:  domain.Dec(nt.diff),
					Fee:        domain.Dec(decimal.Zero),
					Raw:        raw,
					AuditNotes: "SOL transfer received",
				})
			} else {
				events = append(events, &domain.Transaction{
					ID:         fmt.Sprintf("%s_sol_out_%d", sig, nt.index),
					Timestamp:  ts,
					Type:       domain.TxTransfer,
					Chain:      domain.ChainSolana,
					Source:     domain.SourceWallet,
					TokenIn:    tokenRef(domain.SOL),
					AmountIn:   domain.Dec(nt.diff.Abs()),
					Fee:        domain.Dec(decimal.Zero),
					Raw:        raw,
					AuditNotes: "SOL transfer sent",
				})
			}
		}
	}

	// Every decodable record yields at least one auditable entry.
	if len(events) == 0 {
		events = append(events, &domain.Transaction{
			ID:         sig,
			Timestamp:  ts,
			Type:       domain.TxTransfer,
			Chain:      domain.ChainSolana,
			Source:     domain.SourceWallet,
			Fee:        domain.Dec(fee),
			Raw:        raw,
			AuditNotes: "Transaction parsed but no clear transfer detected",
		})
	}

	return events
}

// nativeTransfer is a non-fee SOL balance delta for one account index.
type nativeTransfer struct {
	index int
	diff  decimal.Decimal
}

// tokenChange is the aggregated pre/post balance for one (owner, mint).
type tokenChange struct {
	owner    string
	mint     string
	pre      decimal.Decimal
	post     decimal.Decimal
	decimals int
}

// tokenChanges aggregates token balance snapshots per (owner, mint) in
// first-seen order, carrying the largest decimal precision observed.
func tokenChanges(meta *solana.TransactionMeta) []*tokenChange {
	byKey := make(map[string]*tokenChange)
	var order []string

	get := func(owner, mint string, decimals int) *tokenChange {
		key := owner + "_" + mint
		tc, ok := byKey[key]
		if !ok {
			tc = &tokenChange{owner: owner, mint: mint, decimals: decimals}
			byKey[key] = tc
			order = append(order, key)
		}
		if decimals > tc.decimals {
			tc.decimals = decimals
		}
		return tc
	}

	for _, b := range meta.PreTokenBalances {
		tc := get(b.Owner, b.Mint, b.Amount.Decimals)
		tc.pre = tokenUIAmount(b.Amount)
	}
	for _, b := range meta.PostTokenBalances {
		tc := get(b.Owner, b.Mint, b.Amount.Decimals)
		tc.post = tokenUIAmount(b.Amount)
	}

	changes := make([]*tokenChange, 0, len(order))
	for _, key := range order {
		changes = append(changes, byKey[key])
	}
	return changes
}

// tokenUIAmount extracts the human-unit amount of a balance snapshot.
func tokenUIAmount(a solana.TokenAmount) decimal.Decimal {
	if a.UIAmountString != "" {
		if d, err := decimal.NewFromString(a.UIAmountString); err == nil {
			return d
		}
	}
	if a.Amount != "" {
		if d, err := decimal.NewFromString(a.Amount); err == nil {
			return d.Shift(int32(-a.Decimals))
		}
	}
	return decimal.Zero
}

// lamportsToSOL converts lamports to SOL exactly.
func lamportsToSOL(lamports int64) decimal.Decimal {
	return decimal.New(lamports, -9)
}

// lamportsDelta returns (post - pre) in SOL.
func lamportsDelta(pre, post uint64) decimal.Decimal {
	return decimal.New(int64(post)-int64(pre), -9)
}

func indexOfAccount(keys []string, pubkey string) int {
	for i, k := range keys {
		if k == pubkey {
			return i
		}
	}
	return -1
}

func shortKey(k string) string {
	if len(k) > 8 {
		return k[:8]
	}
	return k
}

func tokenRef(t domain.Token) *domain.Token {
	return &t
}
