package client

import "sync"

// CampaignsKey is the cache key and resource path of the campaign list.
const CampaignsKey = "/api/campaigns"

// Cache holds the last known value per resource key. It is owned by the
// application root and shared by reference; values are stored as given, so
// callers must not mutate what they Write or Read.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

// NewCache creates an empty cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]V)}
}

func (c *Cache[V]) Read(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[V]) Write(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Update replaces the entry with fn's result while holding the lock. When
// fn returns an error the entry is left untouched.
func (c *Cache[V]) Update(key string, fn func(current V, ok bool) (V, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.entries[key]
	next, err := fn(current, ok)
	if err != nil {
		return err
	}
	c.entries[key] = next
	return nil
}
