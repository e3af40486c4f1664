package feed

import (
	"context"
	"sync"

	"donationhub/internal/domain"
)

// Loader reads the current public feed from the store.
type Loader func(ctx context.Context) ([]domain.Donation, error)

// Cache memoises the unfiltered public feed. Every event published on the
// hub drops the snapshot before Publish returns, so a writer's next read
// never sees its own change missing.
type Cache struct {
	mu    sync.Mutex
	items []domain.Donation
	valid bool
	gen   uint64

	cancel func()
}

func NewCache(hub *Hub) *Cache {
	c := &Cache{}
	c.cancel = hub.Observe(func(Event) { c.Invalidate() })
	return c
}

// Get returns the cached snapshot or loads a fresh one. A snapshot loaded
// while an invalidation happened is returned but not kept.
func (c *Cache) Get(ctx context.Context, load Loader) ([]domain.Donation, error) {
	c.mu.Lock()
	if c.valid {
		items := c.items
		c.mu.Unlock()
		return items, nil
	}
	gen := c.gen
	c.mu.Unlock()

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.items = items
		c.valid = true
	}
	c.mu.Unlock()
	return items, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.valid = false
	c.items = nil
	c.mu.Unlock()
}

// Valid reports whether a snapshot is currently held.
func (c *Cache) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Close stops observing the hub.
func (c *Cache) Close() {
	c.cancel()
}
