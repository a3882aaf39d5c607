package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value  string
	stored time.Time
}

// InMemoryCache keeps translations for the lifetime of the process.
// It is safe for concurrent use.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
// If ttlSeconds is 0 or negative, entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	return &InMemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryCache) expired(e memoryEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.stored) > c.ttl
}

// Get returns the cached translation for key. Expired entries are dropped
// on read.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if c.expired(e, c.now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.stored.Equal(e.stored) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores a translation, replacing any previous value and resetting its age.
func (c *InMemoryCache) Set(key string, value string) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, stored: c.now()}
	c.mu.Unlock()
	return nil
}

// Delete removes key if present.
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops expired entries and returns how many were removed.
func (c *InMemoryCache) Purge() int {
	if c.ttl <= 0 {
		return 0
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries from the cache.
func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
}

// Entries returns a snapshot of the live entries.
func (c *InMemoryCache) Entries(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.entries))
	for key, e := range c.entries {
		if !c.expired(e, now) {
			out[key] = e.value
		}
	}
	return out, nil
}

var (
	_ TranslationCache = (*InMemoryCache)(nil)
	_ Lister           = (*InMemoryCache)(nil)
)
