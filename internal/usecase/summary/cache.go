package summary

import (
	"sync"
	"time"

	"github.com/bkyoung/pr-summarizer/internal/domain"
)

// DefaultCacheTTL is the default lifetime of a cache entry.
const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	summaries  domain.AISummaries
	insertedAt time.Time
}

// Cache is a fingerprint-keyed in-memory store of generated summaries.
// Expired entries are purged lazily on read. Values returned from Get are
// copies; mutating them does not affect the stored entry. Safe for
// concurrent use; entries are keyed independently so writers never contend
// beyond the map lock.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL. A non-positive TTL falls
// back to DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the cache's time source (for testing).
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the summaries stored under key, or false on miss. An entry
// whose age meets or exceeds the TTL is removed and reported as a miss.
func (c *Cache) Get(key string) (domain.AISummaries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.AISummaries{}, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return domain.AISummaries{}, false
	}
	return copySummaries(entry.summaries), true
}

// Set stores summaries under key, replacing any existing entry
// (last-writer-wins). The stored value is a copy of the argument.
func (c *Cache) Set(key string, summaries domain.AISummaries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		summaries:  copySummaries(summaries),
		insertedAt: c.now(),
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// CleanupExpired removes all expired entries and returns the count removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.insertedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently stored, including any that
// have expired but not yet been purged.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// copySummaries returns a value copy of the summaries. AISummaries contains
// no reference types beyond strings, so a shallow copy is a full copy.
func copySummaries(s domain.AISummaries) domain.AISummaries {
	return s
}
