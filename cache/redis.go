package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key written to Redis.
const DefaultKeyPrefix = "rpgtl:"

// opTimeout bounds a single Get or Set.
const opTimeout = 2 * time.Second

// RedisCache shares translations between processes through Redis.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379/0")
	TTL       int    // TTL in seconds (0 = no expiration)
	KeyPrefix string // Prefix for all keys (default: "rpgtl:")
}

// NewRedisCache connects to cfg.URL and verifies the server answers.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, &rpgtl.CacheError{Message: "invalid redis URL", Cause: err}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &rpgtl.CacheError{Message: "redis unreachable", Cause: err}
	}

	return NewRedisCacheFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing Redis client.
func NewRedisCacheFromClient(client *redis.Client, ttlSeconds int, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}

	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves a value from Redis. Connection errors count as a miss.
func (c *RedisCache) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a value in Redis with the configured TTL.
func (c *RedisCache) Set(key string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, c.keyPrefix+key, value, c.ttl).Err(); err != nil {
		return &rpgtl.CacheError{Message: "redis set failed", Cause: err}
	}
	return nil
}

// Entries scans every key under the prefix. Keys in the result have the
// prefix removed.
func (c *RedisCache) Entries(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, &rpgtl.CacheError{Message: "redis scan failed", Cause: err}
		}

		if len(keys) > 0 {
			vals, err := c.client.MGet(ctx, keys...).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return nil, &rpgtl.CacheError{Message: "redis mget failed", Cause: err}
			}
			for i, v := range vals {
				// Keys that expired between SCAN and MGET come back nil
				if s, ok := v.(string); ok {
					out[strings.TrimPrefix(keys[i], c.keyPrefix)] = s
				}
			}
		}

		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var (
	_ TranslationCache = (*RedisCache)(nil)
	_ Lister           = (*RedisCache)(nil)
)
