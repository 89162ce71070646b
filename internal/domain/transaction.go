package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType classifies the economic intent of a transaction.
type TxType string

// Transaction type constants.
const (
	TxBuy         TxType = "BUY"
	TxSell        TxType = "SELL"
	TxSwap        TxType = "SWAP"
	TxTransfer    TxType = "TRANSFER"
	TxStakeReward TxType = "STAKE_REWARD"
	TxDeposit     TxType = "DEPOSIT"
	TxWithdrawal  TxType = "WITHDRAWAL"
)

// Chain identifiers.
const (
	ChainSolana = "solana"
)

// Transaction source systems.
const (
	SourceWallet   = "wallet"
	SourceKraken   = "kraken"
	SourceCoinbase = "coinbase"
)

// Transaction is the unified representation of an economic event,
// independent of the system it was imported from.
//
// Direction convention: TokenIn/AmountIn is the asset given up by the
// owner, TokenOut/AmountOut is the asset received. A SWAP carries both
// sides, a plain transfer carries exactly one.
//
// Price fields are populated once by the normalizer; the tax fields are
// populated once by the tax engine. Everything else is immutable after
// creation.
type Transaction struct {
	ID        string
	Timestamp time.Time // UTC
	Type      TxType
	Chain     string
	Source    string

	TokenIn   *Token
	TokenOut  *Token
	AmountIn  *decimal.Decimal
	AmountOut *decimal.Decimal

	// Unit prices filled by enrichment.
	PriceInUSD  *decimal.Decimal
	PriceOutUSD *decimal.Decimal
	PriceInEUR  *decimal.Decimal
	PriceOutEUR *decimal.Decimal

	// Filled by the tax engine during a calculation pass.
	CostBasisEUR      *decimal.Decimal
	ProceedsEUR       *decimal.Decimal
	GainLossEUR       *decimal.Decimal
	HoldingPeriodDays *int

	Fee      *decimal.Decimal
	FeeToken *Token
	FeeEUR   *decimal.Decimal

	// Raw keeps the original record for traceability.
	Raw        any
	AuditNotes string
}

// Dec returns a pointer to a copy of d, for optional decimal fields.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}
