package pricefeed

import (
	"sync"
	"time"
)

// cacheEntry is a cached quote.
type cacheEntry struct {
	expiry time.Time
	value  float64
}

// quoteCache provides thread-safe TTL caching of quotes keyed by symbol.
type quoteCache struct {
	entries map[string]cacheEntry
	now     func() time.Time
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newQuoteCache creates a cache with the given TTL. A non-positive TTL disables caching.
func newQuoteCache(ttl time.Duration) *quoteCache {
	cache := &quoteCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	if ttl > 0 {
		go cache.cleanup(max(ttl, time.Minute))
	}

	return cache
}

// get retrieves a quote if present and not expired.
func (c *quoteCache) get(key string) (float64, bool) {
	if c.ttl <= 0 {
		return 0, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiry) {
		return 0, false
	}
	return entry.value, true
}

// set stores a quote.
func (c *quoteCache) set(key string, value float64) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:  value,
		expiry: c.now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *quoteCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *quoteCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *quoteCache) Close() {
	close(c.stopCh)
}
