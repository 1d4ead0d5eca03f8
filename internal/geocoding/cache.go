package geocoding

import (
	"sync"
	"time"
)

// Cache is a thread-safe TTL cache. Expired items are dropped lazily.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
}

type cacheItem struct {
	value  any
	expiry time.Time
}

// NewCache creates a cache whose items live for ttl
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Set adds an item to the cache
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.items) >= maxCacheItems {
		c.pruneLocked(now)
	}
	c.items[key] = cacheItem{value: value, expiry: now.Add(c.ttl)}
}

// Get retrieves an unexpired item
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, found := c.items[key]
	if !found || c.now().After(item.expiry) {
		return nil, false
	}
	return item.value, true
}

// Len returns the number of stored items, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

const maxCacheItems = 4096

func (c *Cache) pruneLocked(now time.Time) {
	for k, v := range c.items {
		if now.After(v.expiry) {
			delete(c.items, k)
		}
	}
}
