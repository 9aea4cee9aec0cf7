// Package cache implements a time-bounded memoizing cache: a generic
// read-through store keyed by composite string keys, with TTL expiry and
// least-recently-used eviction. It is used to avoid repeating expensive
// reads such as key unwrapping, channel metadata fetches, and membership
// lookups.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// keyDelimiter separates key parts in the composite cache key. A unit
// separator keeps ["a","b"] distinct from ["ab"] for realistic inputs.
const keyDelimiter = "\x1f"

// Options configures a Cache. TTL and MaxEntries must both be positive.
type Options struct {
	// TTL is the maximum age of an entry before a read reloads it.
	TTL time.Duration
	// MaxEntries is the capacity bound; inserting beyond it evicts the
	// least recently accessed entry.
	MaxEntries int
	// Clock is the time source. Defaults to the real clock; tests inject
	// a fake.
	Clock clockwork.Clock
}

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
	element    *list.Element
}

// Cache is a read-through memoizing cache bounded by entry count and entry
// age. The zero value is not usable; construct with New.
//
// Concurrent Read calls for the same key are not deduplicated: each caller
// invokes its loader independently and the last one to finish overwrites the
// slot. Callers that need single-flight semantics must layer them on top.
type Cache[V any] struct {
	ttl     time.Duration
	max     int
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // front = most recently used
}

// New returns a Cache with the given options, or ErrInvalidConfiguration if
// TTL or MaxEntries is not positive.
func New[V any](opts Options) (*Cache[V], error) {
	if opts.TTL <= 0 {
		return nil, invalidConfigurationf("ttl must be positive, got %s", opts.TTL)
	}
	if opts.MaxEntries <= 0 {
		return nil, invalidConfigurationf("max entries must be positive, got %d", opts.MaxEntries)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Cache[V]{
		ttl:     opts.TTL,
		max:     opts.MaxEntries,
		clock:   clock,
		entries: make(map[string]*entry[V]),
		order:   list.New(),
	}, nil
}

// Key joins key parts into the composite cache key. An empty slice and empty
// strings are valid parts, distinct from every other key.
func Key(parts []string) string {
	return strings.Join(parts, keyDelimiter)
}

// ReadSync returns the cached value for the composite key built from parts,
// invoking load on a miss or when the cached entry is older than the TTL.
// Every access moves the entry to the most-recently-used position. A failed
// load caches nothing and returns the loader's error.
func (c *Cache[V]) ReadSync(parts []string, load func() (V, error)) (V, error) {
	key := Key(parts)

	c.mu.Lock()
	if val, ok := c.fresh(key); ok {
		c.mu.Unlock()
		return val, nil
	}
	c.mu.Unlock()

	val, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.store(key, val)
	c.mu.Unlock()
	return val, nil
}

// Read is ReadSync for loaders that perform I/O. The loader runs outside the
// cache's critical section, so two reads for the same key issued before
// either loader finishes will both invoke load; whichever finishes last
// determines the cached value. A failed load leaves no entry behind, so the
// next read retries instead of serving a cached failure.
func (c *Cache[V]) Read(ctx context.Context, parts []string, load func(ctx context.Context) (V, error)) (V, error) {
	key := Key(parts)

	c.mu.Lock()
	if val, ok := c.fresh(key); ok {
		c.mu.Unlock()
		return val, nil
	}
	c.mu.Unlock()

	val, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.store(key, val)
	c.mu.Unlock()
	return val, nil
}

// Clear removes all entries. Values already returned to callers are
// unaffected.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
	c.order.Init()
}

// Len returns the current number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// fresh returns the entry's value if it exists and is within the TTL,
// promoting it to most recently used. Must be called with the lock held.
func (c *Cache[V]) fresh(key string) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.clock.Since(e.insertedAt) > c.ttl {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(e.element)
	return e.value, true
}

// store inserts or refreshes the entry for key, evicting the least recently
// used entry if the insert would exceed capacity. Must be called with the
// lock held.
func (c *Cache[V]) store(key string, val V) {
	if e, ok := c.entries[key]; ok {
		e.value = val
		e.insertedAt = c.clock.Now()
		c.order.MoveToFront(e.element)
		return
	}

	if len(c.entries) >= c.max {
		c.evictOldest()
	}

	e := &entry[V]{
		key:        key,
		value:      val,
		insertedAt: c.clock.Now(),
	}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// evictOldest removes the least recently accessed entry. Must be called with
// the lock held.
func (c *Cache[V]) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry[V])
	c.order.Remove(back)
	delete(c.entries, e.key)
}
