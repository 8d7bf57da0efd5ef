package assist

import (
	"sync"
	"time"
)

// cacheEntry is valid only while now - createdAt < ttl; expired entries are
// treated as absent and replaced on the next put.
type cacheEntry struct {
	value     any
	createdAt time.Time
}

// resultCache is a cache-aside store keyed by exact input text. It makes no
// in-flight deduplication promise: two concurrent callers missing on the
// same key both invoke their producers.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newResultCache(ttl time.Duration, now func() time.Time) *resultCache {
	if now == nil {
		now = time.Now
	}
	return &resultCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// get re-checks the TTL at read time, not at an earlier lookup: another
// feature may have evicted or overwritten the entry in between.
func (c *resultCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *resultCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, createdAt: c.now()}
}
