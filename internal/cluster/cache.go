package cluster

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/canvass/internal/metrics"
)

// Cache is a concurrent-safe LRU cache of clustering passes with TTL
// expiration. Entries are keyed by company, zoom, and store revision, so a
// mutation of the business set never serves stale clusters.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

type cacheEntry struct {
	clusters  []Cluster
	createdAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCache creates a Cache with the given capacity and TTL.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func cacheKey(companyID string, zoom int, revision uint64) string {
	return fmt.Sprintf("%s/%d/%d", companyID, zoom, revision)
}

// Get returns the cached pass, or false on miss or expiration.
func (c *Cache) Get(companyID string, zoom int, revision uint64) ([]Cluster, bool) {
	key := cacheKey(companyID, zoom, revision)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.miss()
		return nil, false
	}

	if c.ttl > 0 && time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.miss()
		return nil, false
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	metrics.ClusterCacheHitsTotal.Inc()
	return entry.clusters, true
}

// Put stores a pass, evicting the oldest entry when at capacity.
func (c *Cache) Put(companyID string, zoom int, revision uint64, clusters []Cluster) {
	key := cacheKey(companyID, zoom, revision)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &cacheEntry{clusters: clusters, createdAt: time.Now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &cacheEntry{clusters: clusters, createdAt: time.Now()}
	c.order = append(c.order, key)
}

// Invalidate drops every entry for companyID.
func (c *Cache) Invalidate(companyID string) {
	prefix := companyID + "/"

	c.mu.Lock()
	defer c.mu.Unlock()

	var remaining []string
	for _, key := range c.order {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		} else {
			remaining = append(remaining, key)
		}
	}
	c.order = remaining
}

// Stats returns cache performance statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *Cache) miss() {
	c.misses.Add(1)
	metrics.ClusterCacheMissesTotal.Inc()
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
