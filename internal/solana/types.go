package solana

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// Transaction represents a confirmed Solana transaction with the metadata
// needed to reconstruct balance movements.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds), 0 when unavailable
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64 // lamports
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	Rewards           []Reward
	LogMessages       []string
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// TokenBalance is an SPL token balance snapshot for one account.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       TokenAmount
}

// TokenAmount is the RPC uiTokenAmount representation.
type TokenAmount struct {
	Amount         string // raw integer amount as string
	Decimals       int
	UIAmountString string // human amount, exact decimal string
}

// Reward is one entry of the meta.rewards array.
type Reward struct {
	Pubkey      string
	Lamports    int64
	PostBalance uint64
	RewardType  string
}
