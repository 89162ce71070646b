package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a Redis server, for sharing price and
// exchange-rate lookups across processes. All failures degrade to
// cache misses.
type Redis struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedis creates a Redis cache from an address like "localhost:6379".
func NewRedis(addr string, logger *log.Logger) *Redis {
	if logger == nil {
		logger = log.Default()
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

// Get fetches a key; any Redis error is treated as a miss.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		r.logger.Printf("[cache] redis get %s: %v", key, err)
		return "", false
	}
	return val, true
}

// Set stores a key with TTL; errors are logged and dropped.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Printf("[cache] redis set %s: %v", key, err)
	}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Cache = (*Redis)(nil)
