package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"github.com/mohamedkhairy/ict-dashboard/internal/storage"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
)

// Cache stores fetched series for a bounded time
type Cache interface {
	Get(ctx context.Context, key string) (models.Series, bool)
	Set(ctx context.Context, key string, s models.Series, ttl time.Duration)
	Name() string
}

// CacheKey returns the key a series is cached under
func CacheKey(g models.Granularity, symbol string) string {
	return fmt.Sprintf("ictdash:bars:%s:%s", g, symbol)
}

type cacheEntry struct {
	series  models.Series
	expires time.Time
}

// MemoryCache is an in-process TTL cache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	clock   func() time.Time
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		clock:   time.Now,
	}
}

func (c *MemoryCache) Name() string { return "memory" }

// Get returns a copy of an unexpired entry
func (c *MemoryCache) Get(_ context.Context, key string) (models.Series, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.clock().Before(e.expires) {
		return nil, false
	}
	return append(models.Series(nil), e.series...), true
}

func (c *MemoryCache) Set(_ context.Context, key string, s models.Series, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		series:  append(models.Series(nil), s...),
		expires: c.clock().Add(ttl),
	}
}

// RedisCache stores series as JSON in Redis with a TTL
type RedisCache struct {
	client storage.RedisClient
	loc    *time.Location
}

// NewRedisCache creates a cache backed by client. Cached timestamps are
// restored into loc.
func NewRedisCache(client storage.RedisClient, loc *time.Location) *RedisCache {
	return &RedisCache{client: client, loc: loc}
}

func (c *RedisCache) Name() string { return "redis" }

func (c *RedisCache) Get(ctx context.Context, key string) (models.Series, bool) {
	var s models.Series
	found, err := c.client.GetJSON(ctx, key, &s)
	if err != nil {
		logger.Warn("Failed to read cached bars",
			logger.String("key", key),
			logger.ErrorField(err),
		)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return s.InLocation(c.loc), true
}

func (c *RedisCache) Set(ctx context.Context, key string, s models.Series, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, key, s, ttl); err != nil {
		logger.Warn("Failed to cache bars",
			logger.String("key", key),
			logger.ErrorField(err),
		)
	}
}
