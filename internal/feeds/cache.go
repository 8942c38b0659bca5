package feeds

import (
	"sync"
	"time"

	"openlinkedin/internal/core"
)

// feedCache is a TTL cache of parsed feed items keyed by source URL. Entries
// are only replaced by successful fetches, so a failed refresh never evicts
// usable data; it simply leaves the entry to expire.
type feedCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	hits    int64
	misses  int64
}

type cacheEntry struct {
	items    []core.FeedItem
	storedAt time.Time
}

func newFeedCache(ttl time.Duration) *feedCache {
	return &feedCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *feedCache) get(url string, now time.Time) ([]core.FeedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok || now.Sub(entry.storedAt) >= c.ttl {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.items, true
}

func (c *feedCache) put(url string, items []core.FeedItem, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = cacheEntry{items: items, storedAt: now}
}

func (c *feedCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *feedCache) stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
