// Package cache provides the ports.Cache implementations used for finished
// leaderboards: an in-process map for single instances and Redis for
// deployments that run several.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"learnboard/application/ports"
)

// InMemoryCache provides a simple in-memory cache implementation
type InMemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time // zero never expires
}

var _ ports.Cache = (*InMemoryCache)(nil)

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	c := &InMemoryCache{
		items: make(map[string]cacheItem),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go c.cleanupExpired(time.Minute)
	return c
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || item.expired(c.now()) {
		return nil, false
	}
	return item.value, true
}

// Set stores a value. A non-positive ttl keeps it until deleted.
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Incr increments the decimal counter at key, starting from zero.
func (c *InMemoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	if item, ok := c.items[key]; ok && !item.expired(c.now()) {
		var err error
		if n, err = strconv.ParseInt(string(item.value), 10, 64); err != nil {
			return 0, err
		}
	}
	n++
	c.items[key] = cacheItem{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// Close stops the expiry sweep.
func (c *InMemoryCache) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// cleanupExpired periodically removes expired items
func (c *InMemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := c.now()
			for key, item := range c.items {
				if item.expired(now) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
