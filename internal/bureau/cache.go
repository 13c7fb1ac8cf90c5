package bureau

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the last good report per applicant. Used when both
// bureaus are unavailable, so entries outlive the request that wrote
// them.
type Cache interface {
	Get(ctx context.Context, residentHash string) (*Report, bool)
	Set(ctx context.Context, residentHash string, rep Report)
}

func bureauCacheKey(residentHash string) string {
	// Shortened hash keeps keys compact; 16 hex chars is collision-safe
	// at this cardinality.
	if len(residentHash) > 16 {
		residentHash = residentHash[:16]
	}
	return "bureau:" + residentHash
}

// MemoryCache is an in-process report cache for tests and development.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	report   Report
	storedAt time.Time
}

// NewMemoryCache creates an in-process report cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, residentHash string) (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[bureauCacheKey(residentHash)]
	if !ok || time.Since(entry.storedAt) > c.ttl {
		return nil, false
	}
	rep := entry.report
	return &rep, true
}

func (c *MemoryCache) Set(_ context.Context, residentHash string, rep Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[bureauCacheKey(residentHash)] = memoryEntry{report: rep, storedAt: time.Now()}
}

// RedisCache shares bureau reports across instances with a 1h default
// TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed report cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, residentHash string) (*Report, bool) {
	raw, err := c.client.Get(ctx, bureauCacheKey(residentHash)).Bytes()
	if err != nil {
		return nil, false
	}
	var rep Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, false
	}
	return &rep, true
}

func (c *RedisCache) Set(ctx context.Context, residentHash string, rep Report) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return
	}
	c.client.Set(ctx, bureauCacheKey(residentHash), raw, c.ttl)
}
