package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a size-bounded in-memory cache whose entries share one TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
	Clear()
}

// ResponseCache keeps upstream response bodies keyed by request URL.
// Writes may be refused by the admission policy once full; a refused
// body is simply fetched again.
type ResponseCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// New creates a ResponseCache holding roughly capacity entries for ttl each.
func New(capacity int, ttl time.Duration) (*ResponseCache, error) {
	if capacity <= 0 {
		capacity = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,
		// cost counts entries, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &ResponseCache{cache: c, ttl: ttl}, nil
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set stores value with cost 1 so capacity bounds the entry count.
func (c *ResponseCache) Set(key string, value []byte) {
	c.cache.SetWithTTL(key, value, 1, c.ttl)
	c.cache.Wait()
}

func (c *ResponseCache) Delete(key string) {
	c.cache.Del(key)
}

func (c *ResponseCache) Clear() {
	c.cache.Clear()
}

func (c *ResponseCache) Close() {
	c.cache.Close()
}
