package solana

import (
	"context"
	"errors"
)

// ErrRateLimited is returned (wrapped) when the RPC endpoint keeps
// responding 429 after all retry attempts.
var ErrRateLimited = errors.New("rpc rate limited")

// RPCClient defines the Solana RPC HTTP interface consumed by ingestion.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature.
	// Returns (nil, nil) if the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with
	// pagination, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts SignaturesOpts) ([]SignatureInfo, error)
}
