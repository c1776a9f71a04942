package orchestrator

import (
	"sync"
	"time"

	"github.com/carewise-labs/guidance-cli/internal/model"
)

// ttlCache is a small read-through cache in front of the content store. It is
// never a source of truth; entries expire and the store remains authoritative.
type ttlCache struct {
	mu      sync.Mutex
	entries map[model.Key]cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type cacheEntry struct {
	content   model.Content
	expiresAt time.Time
}

func newTTLCache(ttl time.Duration, maxSize int) *ttlCache {
	return &ttlCache{
		entries: make(map[model.Key]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *ttlCache) Get(key model.Key) (*model.Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	content := entry.content
	return &content, true
}

func (c *ttlCache) Set(key model.Key, content model.Content) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{
		content:   content,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *ttlCache) Invalidate(key model.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// evictLocked drops expired entries, then arbitrary ones if still full.
func (c *ttlCache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	for k := range c.entries {
		if len(c.entries) < c.maxSize {
			break
		}
		delete(c.entries, k)
	}
}
