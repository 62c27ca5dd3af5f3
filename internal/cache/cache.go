// Package cache holds the key/value stores used for resolved stream links
// and the time-boxed cache used for upstream catalog responses.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/phimkappa/phimkappa/internal/config"
	"github.com/phimkappa/phimkappa/internal/constants"
)

// Store is a byte-oriented key/value store with per-entry expiry.
// Get reports a miss with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Sweeper is implemented by stores that keep expired entries on disk until removed.
type Sweeper interface {
	Sweep() (int, error)
}

// Open creates the Store selected by cfg.CacheBackend.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case constants.CacheBackendMemory, "":
		return NewMemoryStore(defaultMemoryItems)
	case constants.CacheBackendBolt:
		return NewBoltStore(cfg.DatabasePath)
	case constants.CacheBackendRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
