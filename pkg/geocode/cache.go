package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Cache stores geocode results by query key. Both matches and
// non-matches are stored; lookup errors never are.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Put(ctx context.Context, key string, result *Result) error
}

// CacheKey returns SHA-256 hex of the normalized query.
func CacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Result)}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, key string) (*Result, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

// Put implements Cache.
func (m *MemoryCache) Put(_ context.Context, key string, result *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = *result
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// CachedClient consults a Cache before delegating to the wrapped Client.
// Cache hits do not wait on the wrapped client's limiter.
type CachedClient struct {
	next  Client
	cache Cache
}

// NewCachedClient wraps next with cache.
func NewCachedClient(next Client, cache Cache) *CachedClient {
	return &CachedClient{next: next, cache: cache}
}

// Geocode implements Client. Cache failures are logged and bypassed.
func (c *CachedClient) Geocode(ctx context.Context, query string) (*Result, error) {
	key := CacheKey(query)

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("geocode: cache read failed", zap.String("query", query), zap.Error(err))
	} else if ok {
		zap.L().Debug("geocode cache hit", zap.String("query", query), zap.Bool("matched", cached.Matched))
		return cached, nil
	}

	result, err := c.next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, key, result); err != nil {
		zap.L().Warn("geocode: cache write failed", zap.String("query", query), zap.Error(err))
	}
	return result, nil
}
