// Package cache provides a small in-process TTL cache used for the
// dashboard summary. Single-node deployment; nothing here needs to
// survive a restart.
package cache

import (
	"sync"
	"time"
)

type item[T any] struct {
	value    T
	deadline time.Time
}

// TTL is a concurrency-safe cache whose entries expire a fixed duration
// after being set.
type TTL[T any] struct {
	mu      sync.RWMutex
	items   map[string]item[T]
	ttl     time.Duration
	janitor *time.Ticker
	done    chan struct{}
}

// NewTTL creates a cache whose entries live for ttl. A background
// janitor evicts expired entries so abandoned keys do not accumulate.
func NewTTL[T any](ttl time.Duration) *TTL[T] {
	c := &TTL[T]{
		items:   make(map[string]item[T]),
		ttl:     ttl,
		janitor: time.NewTicker(ttl),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the cached value for key. The second return is false when
// the key is absent or past its deadline; expiry is checked on read, so
// a value is never served stale between janitor sweeps.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(it.deadline) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores value under key, resetting its deadline.
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	c.items[key] = item[T]{value: value, deadline: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key immediately. Deleting an absent key is a no-op.
func (c *TTL[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len reports the number of entries, expired ones included until the
// next sweep.
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor goroutine.
func (c *TTL[T]) Close() {
	c.janitor.Stop()
	close(c.done)
}

func (c *TTL[T]) sweep() {
	for {
		select {
		case <-c.done:
			return
		case now := <-c.janitor.C:
			c.mu.Lock()
			for k, it := range c.items {
				if now.After(it.deadline) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
