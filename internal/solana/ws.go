package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface used for
// live wallet watching.
type WSClient interface {
	// WatchAddress subscribes to transactions mentioning the address and
	// delivers their signatures as they are confirmed.
	WatchAddress(ctx context.Context, address string) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification announces a newly confirmed transaction that
// mentions the watched address.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}
