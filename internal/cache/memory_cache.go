package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-memory Cache backend with per-entry TTL. It is
// the default when no Valkey URL is configured and the backend used in
// tests. Expired entries are dropped lazily on read.
type MemoryCache struct {
	items map[string]memoryItem
	mu    sync.RWMutex
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
	}
}

// Get retrieves a value; returns nil for missing or expired keys
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, nil
	}

	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry.
		if cur, ok := c.items[key]; ok && !cur.expiresAt.IsZero() && time.Now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, nil
	}

	// Copy so callers cannot mutate the stored value
	data := make([]byte, len(item.data))
	copy(data, item.data)
	return data, nil
}

// Set stores a value; expiration <= 0 means no expiry
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	data := make([]byte, len(value))
	copy(data, value)

	item := memoryItem{data: data}
	if expiration > 0 {
		item.expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

// Delete removes a key
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Exists checks if a key exists and is unexpired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// Close is a no-op for the in-memory backend
func (c *MemoryCache) Close() error {
	return nil
}

// Health always succeeds for the in-memory backend
func (c *MemoryCache) Health(_ context.Context) error {
	return nil
}

// Clear removes all entries
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]memoryItem)
	c.mu.Unlock()
}

// Size returns the current number of entries, including expired ones
// not yet collected.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
