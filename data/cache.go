package data

import (
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

type cacheItem[T any] struct {
	value     *T
	expiresAt time.Time
}

// Cache is a sliding-TTL map. It holds rendered dashboard snapshots keyed by ETag,
// never fetched weather.
type Cache[K comparable, V any] struct {
	items map[K]*cacheItem[V]
	ttl   time.Duration
	clock clock.Clock
	mutex sync.Mutex
}

// NewCache creates a new cache.
func NewCache[K comparable, V any](ttl time.Duration, clk clock.Clock) *Cache[K, V] {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &Cache[K, V]{
		items: make(map[K]*cacheItem[V]),
		ttl:   ttl,
		clock: clk,
	}
}

// Get returns the value for key, or nil when missing or expired.
// Getting an item extends its TTL
func (c *Cache[K, V]) Get(key K) *V {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	item, found := c.items[key]
	if !found {
		return nil
	}
	now := c.clock.Now()
	if now.After(item.expiresAt) {
		delete(c.items, key)
		return nil
	}
	item.expiresAt = now.Add(c.ttl)

	return item.value
}

// Set stores value under key and drops anything already expired.
func (c *Cache[K, V]) Set(key K, value *V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	for k, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, k)
		}
	}
	c.items[key] = &cacheItem[V]{
		value:     value,
		expiresAt: now.Add(c.ttl),
	}
}

func (c *Cache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}
