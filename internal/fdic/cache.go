package fdic

import (
	"sync"
	"time"

	"github.com/finquarry/callreport/pkg/models"
)

// cacheEntry wraps one stored API response. Entries are immutable once
// stored; an entry past expiresAt is logically gone even while still in
// the map, and is physically purged on the next cache operation.
type cacheEntry struct {
	response    *models.APIResponse
	queryHash   string
	cachedAt    time.Time
	expiresAt   time.Time
	queryParams map[string]string // debugging only
}

// responseCache is a thread-safe, bounded, TTL-based store for API
// responses. Error responses always get errorTTL regardless of the
// caller-supplied TTL, so a transient provider failure cannot pin a bad
// answer for half an hour. One mutex covers every operation; this is the
// only shared mutable state in the engine.
type responseCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	defaultTTL time.Duration
	errorTTL   time.Duration
}

func newResponseCache(maxEntries int, defaultTTL, errorTTL time.Duration) *responseCache {
	if maxEntries < 1 {
		maxEntries = 100
	}
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	if errorTTL <= 0 {
		errorTTL = 5 * time.Minute
	}
	return &responseCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		errorTTL:   errorTTL,
	}
}

// get returns the stored response for key, purging the entry first if it
// has expired.
func (c *responseCache) get(key string) (*models.APIResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.response, true
}

// put stores a response under key. ttl <= 0 selects the default TTL;
// error responses are pinned to the short error TTL either way. When the
// insert would exceed maxEntries, expired entries are purged first, then
// the entry with the oldest cachedAt is evicted.
func (c *responseCache) put(key string, resp *models.APIResponse, ttl time.Duration, params map[string]string) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if !resp.Success {
		ttl = c.errorTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.purgeExpiredLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	now := time.Now()
	c.entries[key] = &cacheEntry{
		response:    resp,
		queryHash:   key,
		cachedAt:    now,
		expiresAt:   now.Add(ttl),
		queryParams: params,
	}
}

// purgeExpiredLocked removes all expired entries. Must hold mu.
func (c *responseCache) purgeExpiredLocked() {
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// evictOldestLocked removes the entry with the oldest cachedAt timestamp
// (insertion-time order, not last-access). Must hold mu.
func (c *responseCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.cachedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.cachedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// clear removes all entries unconditionally.
func (c *responseCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// stats reports total, active, and expired entry counts.
func (c *responseCache) stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	stats := models.CacheStats{TotalEntries: len(c.entries)}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stats.ExpiredEntries++
		} else {
			stats.ActiveEntries++
		}
	}
	return stats
}
