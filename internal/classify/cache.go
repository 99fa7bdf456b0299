package classify

import (
	"sync"
	"time"

	"github.com/leefowlercu/imagedrop/internal/metrics"
)

// Cache stores definitive probe results. Timeouts are never cached.
type Cache interface {
	Get(rawURL string) (isImage bool, ok bool)
	Put(rawURL string, isImage bool)
}

// ResultCache remembers definitive probe results per URL for a fixed TTL.
// It is safe for concurrent use.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	isImage bool
	expires time.Time
}

// NewResultCache creates a cache whose entries expire after ttl.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached result for rawURL.
func (c *ResultCache) Get(rawURL string) (isImage bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[rawURL]
	if !found {
		metrics.RecordCacheAccess("probe", false)
		return false, false
	}

	if c.now().After(entry.expires) {
		delete(c.entries, rawURL)
		metrics.ProbeCacheSize.Set(float64(len(c.entries)))
		metrics.RecordCacheAccess("probe", false)
		return false, false
	}

	metrics.RecordCacheAccess("probe", true)
	return entry.isImage, true
}

// Put stores a result for rawURL.
func (c *ResultCache) Put(rawURL string, isImage bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[rawURL] = cacheEntry{isImage: isImage, expires: c.now().Add(c.ttl)}
	metrics.ProbeCacheSize.Set(float64(len(c.entries)))
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prune removes expired entries.
func (c *ResultCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	metrics.ProbeCacheSize.Set(float64(len(c.entries)))
	return removed
}
