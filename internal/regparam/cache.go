package regparam

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds resolved parameter versions for hot keys. Entries are a
// derived, recomputable projection: the resolver re-validates the
// effective interval at use, so a stale entry degrades to a re-fetch,
// never a wrong answer. Implementations must never fail a read path;
// cache errors are treated as misses.
type Cache interface {
	Get(ctx context.Context, paramKey, condHash string) (*Parameter, bool)
	Set(ctx context.Context, paramKey, condHash string, p Parameter)
	// InvalidateKey drops every entry for the parameter key, all
	// condition variants. Called on any write to that key.
	InvalidateKey(ctx context.Context, paramKey string)
}

// ---------------------------------------------------------------------------
// In-process cache
// ---------------------------------------------------------------------------

type memoryCacheEntry struct {
	param    Parameter
	storedAt time.Time
}

// MemoryCache is a TTL-bounded in-process cache used when Redis is not
// configured, and in unit tests.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryCacheEntry
	index   map[string][]string
}

// NewMemoryCache creates an in-process cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryCacheEntry),
		index:   make(map[string][]string),
	}
}

func cacheKey(paramKey, condHash string) string {
	return "regparam:" + paramKey + ":" + condHash
}

func (c *MemoryCache) Get(_ context.Context, paramKey, condHash string) (*Parameter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(paramKey, condHash)]
	if !ok || time.Since(entry.storedAt) > c.ttl {
		return nil, false
	}
	p := entry.param
	return &p, true
}

func (c *MemoryCache) Set(_ context.Context, paramKey, condHash string, p Parameter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(paramKey, condHash)
	if _, exists := c.entries[key]; !exists {
		c.index[paramKey] = append(c.index[paramKey], key)
	}
	c.entries[key] = memoryCacheEntry{param: p, storedAt: time.Now()}
}

func (c *MemoryCache) InvalidateKey(_ context.Context, paramKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.index[paramKey] {
		delete(c.entries, key)
	}
	delete(c.index, paramKey)
}

// ---------------------------------------------------------------------------
// Redis cache
// ---------------------------------------------------------------------------

// RedisCache caches resolved parameters in Redis with a short TTL. A set
// per parameter key indexes the condition variants so invalidation does
// not need a keyspace scan.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache creates a Redis-backed parameter cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func indexKey(paramKey string) string {
	return "regparam-idx:" + paramKey
}

func (c *RedisCache) Get(ctx context.Context, paramKey, condHash string) (*Parameter, bool) {
	raw, err := c.client.Get(ctx, cacheKey(paramKey, condHash)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "param cache read failed", "param_key", paramKey, "error", err)
		}
		return nil, false
	}
	var p Parameter
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *RedisCache) Set(ctx context.Context, paramKey, condHash string, p Parameter) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	key := cacheKey(paramKey, condHash)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, indexKey(paramKey), key)
	pipe.Expire(ctx, indexKey(paramKey), c.ttl*2)
	if _, err := pipe.Exec(ctx); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "param cache write failed", "param_key", paramKey, "error", err)
	}
}

func (c *RedisCache) InvalidateKey(ctx context.Context, paramKey string) {
	members, err := c.client.SMembers(ctx, indexKey(paramKey)).Result()
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "param cache invalidation failed", "param_key", paramKey, "error", err)
		}
		return
	}
	if len(members) > 0 {
		c.client.Del(ctx, members...)
	}
	c.client.Del(ctx, indexKey(paramKey))
}
