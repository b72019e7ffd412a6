// Package dedup holds the pipeline's short-lived ingestion state: a
// TTL-bounded cache of recently seen message ids and the per-dialog
// last-observed timestamp watermarks.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/feedsink/feedsink/internal/store"
)

type entry struct {
	msg       *store.Message
	expiresAt time.Time
}

// Cache answers "have we seen this message id recently". Entries expire a
// fixed TTL after insertion; a periodic sweep reclaims them, and lookups
// ignore expired entries between sweeps so the TTL is exact regardless of
// the sweep period. It is not a durability mechanism.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	sweep   time.Duration
	cancel  context.CancelFunc
}

// NewCache creates a cache with the given entry TTL and sweep period.
func NewCache(ttl, sweep time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		sweep:   sweep,
	}
}

// Add records the message id. The eviction deadline is fixed at insertion
// time; re-adding an id does not extend an existing entry's lifetime
// because the pipeline never adds an id it already holds.
func (c *Cache) Add(msg *store.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[msg.ID] = entry{msg: msg, expiresAt: time.Now().Add(c.ttl)}
}

// Contains reports whether the id was added within the TTL window.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, id)
		return false
	}
	return true
}

// Get returns the cached message for id, if still live.
func (c *Cache) Get(id string) (*store.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.msg, true
}

// Delete removes an entry before its deadline.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Start launches the janitor goroutine that sweeps expired entries.
func (c *Cache) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(c.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweepExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the janitor.
func (c *Cache) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Cache) sweepExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}
