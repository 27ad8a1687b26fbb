package gitctx

import (
	"context"
	"sync"
	"time"

	"github.com/timvw/claude-panes/internal/model"
)

// Cache holds git results keyed by working directory. Panes sharing a path
// share one entry.
//
// Entries expire after the TTL so branch switches and new commits show up on
// a later refresh without restarting.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	info     model.GitInfo
	cachedAt time.Time
}

// NewCache creates a cache with the given TTL. A TTL of 0 disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Lookup returns the cached result for path if present and not expired.
// Pending results are never cached.
func (c *Cache) Lookup(path string) (model.GitInfo, bool) {
	if c.ttl <= 0 {
		return model.GitInfo{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.cachedAt) > c.ttl {
		return model.GitInfo{}, false
	}
	return entry.info, true
}

// Store saves a result for path.
func (c *Cache) Store(path string, info model.GitInfo) {
	if c.ttl <= 0 || info.State() == model.GitPending {
		return
	}
	c.mu.Lock()
	c.entries[path] = cacheEntry{info: info, cachedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes the entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedEnricher wraps an Enricher with a Cache.
type CachedEnricher struct {
	next  Enricher
	cache *Cache
}

// NewCachedEnricher returns next wrapped with a cache of the given TTL.
func NewCachedEnricher(next Enricher, ttl time.Duration) *CachedEnricher {
	return &CachedEnricher{next: next, cache: NewCache(ttl)}
}

// Enrich returns the cached result for path or resolves and stores it.
func (e *CachedEnricher) Enrich(ctx context.Context, path string) model.GitInfo {
	if info, ok := e.cache.Lookup(path); ok {
		return info
	}
	info := e.next.Enrich(ctx, path)
	// A cancelled lookup may have degraded to not-repo; don't remember it.
	if ctx.Err() == nil {
		e.cache.Store(path, info)
	}
	return info
}

// Invalidate drops the cached result for path.
func (e *CachedEnricher) Invalidate(path string) {
	e.cache.Invalidate(path)
}
