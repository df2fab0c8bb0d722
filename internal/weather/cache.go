package weather

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores temperatures under a key for a limited time.
type Cache interface {
	// Get reports whether a live value exists for key.
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, v float64, ttl time.Duration) error
}

// RedisCache stores temperatures as strings in Redis.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a cache storing keys under prefix.
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "redis get")
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		// Corrupt entry, treat as miss.
		return 0, false, nil
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, v float64, ttl time.Duration) error {
	val := strconv.FormatFloat(v, 'f', -1, 64)
	if err := c.client.Set(ctx, c.prefix+key, val, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// DefaultMemoryCacheSize bounds the number of locations kept in process.
const DefaultMemoryCacheSize = 128

type memoryEntry struct {
	value   float64
	expires time.Time
}

// MemoryCache is an in-process Cache used when no Redis is configured.
// Entries live at most maxTTL; a shorter ttl passed to Set is honored on
// read.
type MemoryCache struct {
	entries *expirable.LRU[string, memoryEntry]
	now     func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache(maxTTL time.Duration) *MemoryCache {
	if maxTTL <= 0 {
		maxTTL = DefaultCacheTTL
	}
	return &MemoryCache{
		entries: expirable.NewLRU[string, memoryEntry](DefaultMemoryCacheSize, nil, maxTTL),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (float64, bool, error) {
	e, ok := c.entries.Get(key)
	if !ok {
		return 0, false, nil
	}
	if !c.now().Before(e.expires) {
		c.entries.Remove(key)
		return 0, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, v float64, ttl time.Duration) error {
	c.entries.Add(key, memoryEntry{value: v, expires: c.now().Add(ttl)})
	return nil
}
