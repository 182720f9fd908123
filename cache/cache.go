// Package cache memoizes link results for the duration of one run.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/boillodmanuel/markdown-link-check/result"
)

// Entry is a stored result and the number of times it was served again.
type Entry struct {
	Result result.LinkResult
	hits   atomic.Int64
}

// Hits returns how many lookups and duplicate stores this entry absorbed.
func (e *Entry) Hits() int64 { return e.hits.Load() }

// Cache maps link identities to results. Reads are concurrent and Store is
// a linearizable insert-if-absent: the first result stored for an identity
// is the one every later lookup sees.
type Cache struct {
	entries sync.Map // identity -> *Entry
	seen    *SeenFilter
	hits    atomic.Int64
	misses  atomic.Int64
	size    atomic.Int64
}

// New creates an empty Cache. seen is optional.
func New(seen *SeenFilter) *Cache {
	return &Cache{seen: seen}
}

// Get returns the result stored for identity. A found result counts as a
// hit; absence is not counted, the subsequent Store accounts for the miss.
func (c *Cache) Get(identity string) (result.LinkResult, bool) {
	if c.seen != nil && !c.seen.MayContain(identity) {
		return result.LinkResult{}, false
	}
	v, ok := c.entries.Load(identity)
	if !ok {
		return result.LinkResult{}, false
	}
	e := v.(*Entry)
	e.hits.Add(1)
	c.hits.Add(1)
	return e.Result, true
}

// Store inserts r under identity unless a result is already present. It
// returns the result that is now cached and whether r was inserted. An
// insert counts as a miss; losing the race counts as a hit.
func (c *Cache) Store(identity string, r result.LinkResult) (result.LinkResult, bool) {
	if c.seen != nil {
		c.seen.Add(identity)
	}
	e := &Entry{Result: r}
	v, loaded := c.entries.LoadOrStore(identity, e)
	if loaded {
		existing := v.(*Entry)
		existing.hits.Add(1)
		c.hits.Add(1)
		return existing.Result, false
	}
	c.misses.Add(1)
	c.size.Add(1)
	return r, true
}

// Entry returns the entry for identity without counting a lookup.
func (c *Cache) Entry(identity string) (*Entry, bool) {
	v, ok := c.entries.Load(identity)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// Hits returns the number of results served from the cache.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of results inserted into the cache.
func (c *Cache) Misses() int64 { return c.misses.Load() }

// Len returns the number of cached identities.
func (c *Cache) Len() int { return int(c.size.Load()) }

// Close releases the seen filter, if any.
func (c *Cache) Close() error {
	if c.seen == nil {
		return nil
	}
	return c.seen.Close()
}
