package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"pipeline/internal/core"
)

// Batch is one normalized pipeline load. A Batch is never mutated after it
// has been published; reloads publish a new one.
type Batch struct {
	ID uuid.UUID
	// Key identifies the input: the content hash of an upload or the identity
	// of a configured source.
	Key      string
	Source   string
	LoadedAt time.Time
	Dataset  *core.Dataset
}

// Records returns the normalized records of the batch.
func (b *Batch) Records() []core.Opportunity {
	if b == nil || b.Dataset == nil {
		return nil
	}
	return b.Dataset.Records
}

// LoadFunc produces a normalized dataset. It is only called on a cache miss.
type LoadFunc func(ctx context.Context) (*core.Dataset, error)

// BatchCache holds the current batch and the values derived from it. The
// current batch is swapped in one step once a load has fully succeeded, so
// readers see either the previous batch or the new one and never a partial
// state. A failed load leaves the current batch in place.
type BatchCache struct {
	mu      sync.RWMutex
	current *Batch
	group   singleflight.Group

	summaries *LRUCache[core.Summary]
	searches  *LRUCache[[]core.Opportunity]

	now func() time.Time
}

// NewBatchCache creates a batch cache whose derived summaries and search
// results are kept in LRU caches of the given size and TTL.
func NewBatchCache(size int, ttl time.Duration) *BatchCache {
	return &BatchCache{
		summaries: NewLRUCache[core.Summary](size, ttl),
		searches:  NewLRUCache[[]core.Opportunity](size, ttl),
		now:       time.Now,
	}
}

// Cleaners exposes the derived caches for registration with a Manager.
func (c *BatchCache) Cleaners() []Cleaner {
	return []Cleaner{c.summaries, c.searches}
}

// Current returns the published batch, if any.
func (c *BatchCache) Current() (*Batch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.current != nil
}

// Load returns the current batch when its key matches, and otherwise runs
// load and publishes the result. The boolean reports whether the current
// batch was reused. Concurrent loads of the same key share one call.
func (c *BatchCache) Load(ctx context.Context, key, source string, load LoadFunc) (*Batch, bool, error) {
	if b, ok := c.Current(); ok && b.Key == key {
		return b, true, nil
	}
	b, err := c.load(ctx, key, source, load)
	return b, false, err
}

// Refresh always runs load, even if the key matches the current batch.
func (c *BatchCache) Refresh(ctx context.Context, key, source string, load LoadFunc) (*Batch, error) {
	return c.load(ctx, key, source, load)
}

func (c *BatchCache) load(ctx context.Context, key, source string, load LoadFunc) (*Batch, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		ds, err := load(ctx)
		if err != nil {
			return nil, err
		}
		b := &Batch{
			ID:       uuid.New(),
			Key:      key,
			Source:   source,
			LoadedAt: c.now().UTC(),
			Dataset:  ds,
		}
		c.Replace(b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Batch), nil
}

// Replace publishes b as the current batch and drops every derived value.
func (c *BatchCache) Replace(b *Batch) {
	c.mu.Lock()
	c.current = b
	c.mu.Unlock()
	c.purge()
}

// Invalidate discards the current batch. The next Load always runs its
// LoadFunc.
func (c *BatchCache) Invalidate() {
	c.Replace(nil)
}

func (c *BatchCache) purge() {
	c.summaries.Purge()
	c.searches.Purge()
}

// Summary returns the aggregate of b, computing it at most once per batch
// while it stays cached.
func (c *BatchCache) Summary(b *Batch) core.Summary {
	key := b.ID.String()
	if s, ok := c.summaries.Get(key); ok {
		return s
	}
	s := core.Aggregate(b.Records())
	c.summaries.Set(key, s)
	return s
}

// Search returns the records of b matching query. Results are cached per
// batch and query.
func (c *BatchCache) Search(b *Batch, query string) []core.Opportunity {
	if query == "" {
		return b.Records()
	}
	key := b.ID.String() + "\x00" + query
	if r, ok := c.searches.Get(key); ok {
		return r
	}
	r := core.Search(b.Records(), query)
	c.searches.Set(key, r)
	return r
}
