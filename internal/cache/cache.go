// Package cache provides a best-effort keyed response cache with
// per-entry TTL. It is injected as a capability: callers must tolerate
// misses without correctness impact.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a process-wide keyed store with a time-to-live per entry.
// Implementations are best-effort; Get reports a miss for expired,
// evicted, or never-set keys.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Key builds a deterministic cache key from a prefix and arguments.
func Key(prefix string, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// NoOp is a Cache that stores nothing. Useful in tests.
type NoOp struct{}

func (NoOp) Get(context.Context, string) (string, bool)         { return "", false }
func (NoOp) Set(context.Context, string, string, time.Duration) {}

var _ Cache = NoOp{}
