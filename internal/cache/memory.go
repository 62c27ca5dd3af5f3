package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoryItems = 100000

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store with LRU eviction and per-entry expiry.
// A Set is always readable until it expires or is evicted as least recently used.
type MemoryStore struct {
	lru *lru.Cache[string, memoryItem]
	now func() time.Time
}

// NewMemoryStore creates a store holding at most maxItems entries.
func NewMemoryStore(maxItems int) (*MemoryStore, error) {
	if maxItems <= 0 {
		maxItems = defaultMemoryItems
	}
	c, err := lru.New[string, memoryItem](maxItems)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{lru: c, now: time.Now}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return item.value, true, nil
}

// Set stores value for ttl. A non-positive ttl never expires.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, item)
	return nil
}

func (m *MemoryStore) Close() error {
	m.lru.Purge()
	return nil
}
