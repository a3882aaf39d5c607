// Package cache provides translation caches keyed by rpgtl.CacheKey.
package cache

import (
	"context"
	"fmt"
	"strings"
)

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found or expired.
	Get(key string) (string, bool)

	// Set stores a translation in the cache.
	Set(key string, value string) error
}

// Lister is implemented by caches whose live entries can be enumerated.
// Exporter requires it.
type Lister interface {
	Entries(ctx context.Context) (map[string]string, error)
}

// Cache types accepted by Config.Type.
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeSQLite = "sqlite"
)

// Config selects and configures a cache backend.
type Config struct {
	Type       string // none, memory, redis or sqlite (default: memory)
	TTL        int    // Seconds; 0 or less never expires
	RedisURL   string
	SQLitePath string
	KeyPrefix  string // Redis only
}

// New opens the cache described by cfg. A "none" cache returns nil with no
// error. Callers should close the result when it implements io.Closer.
func New(cfg Config) (TranslationCache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case TypeNone:
		return nil, nil
	case "", TypeMemory:
		return NewInMemoryCache(cfg.TTL), nil
	case TypeRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis cache requires a URL")
		}
		c, err := NewRedisCache(RedisConfig{URL: cfg.RedisURL, TTL: cfg.TTL, KeyPrefix: cfg.KeyPrefix})
		if err != nil {
			return nil, err
		}
		return c, nil
	case TypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite cache requires a path")
		}
		c, err := NewSQLiteCache(cfg.SQLitePath, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
