package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateAddress checks that addr is a well-formed Solana address:
// base58 text that decodes to exactly 32 bytes.
func ValidateAddress(addr string) error {
	if len(addr) < 32 || len(addr) > 44 {
		return fmt.Errorf("address length %d outside 32..44", len(addr))
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("decodes to %d bytes, want 32", len(decoded))
	}
	return nil
}

// IsOnCurve reports whether addr decodes to a valid ed25519 curve point.
// Wallet addresses are on-curve; program-derived addresses are not.
func IsOnCurve(addr string) bool {
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
