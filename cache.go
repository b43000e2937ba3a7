/*
Package hybridcache is an in-process key/value cache with a hybrid
LFU/LRU eviction policy.

Entries carry a frequency counter; the eviction victim is always the
least-frequently-used entry, and among entries tied at the lowest
frequency the least-recently-promoted one goes first (the LRU
tie-break). All operations are O(1) amortized and safe for concurrent
use from multiple goroutines.

Two capacity models are provided:
  - HybridCache: capacity is a maximum item count
  - SizedCache:  capacity is a maximum cumulative byte size of values
*/
package hybridcache

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/Andronovo-bit/hybridcache/bucket"
	"github.com/Andronovo-bit/hybridcache/types"
	"golang.org/x/sync/singleflight"
)

/*
HybridCache is the count-based cache engine.

It connects:
- the key index (key → node)
- the frequency buckets (frequency → recency-ordered list)
- the minimum-frequency cursor
- the node pool

Capacity is denominated in items: the resident count never exceeds it
once an operation has completed.
*/
type HybridCache[K comparable, V any] struct {
	core[K, V]

	// capacity is the maximum resident item count.
	capacity int

	// initialCapacity is the construction-time capacity. Non-shrink
	// SetCapacity calls can never take capacity below this floor.
	initialCapacity int

	// sf collapses concurrent loads of the same missing key in
	// GetOrLoad, so the loader runs once instead of once per caller.
	sf singleflight.Group
}

// Option configures a HybridCache.
type Option[K comparable, V any] func(*HybridCache[K, V])

// WithMetrics wires a metrics sink into the cache.
// The default is a no-op sink.
func WithMetrics[K comparable, V any](m types.Metrics) Option[K, V] {
	return func(c *HybridCache[K, V]) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New creates a count-based cache holding at most capacity items.
// Capacity must be at least 1.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*HybridCache[K, V], error) {
	if capacity < 1 {
		return nil, invalidCapacityError(int64(capacity))
	}
	c := &HybridCache[K, V]{
		capacity:        capacity,
		initialCapacity: capacity,
	}
	c.core.init()
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Add stores key → value with the default initial frequency of 1.
func (c *HybridCache[K, V]) Add(key K, value V) {
	c.AddWithFrequency(key, value, 1)
}

/*
AddWithFrequency stores key → value, starting the entry's frequency at
initialFrequency (values below 1 are raised to 1). A higher initial
frequency protects a fresh entry from immediate eviction.

For a key that is already resident the value is updated in place, and
the update counts as an access (frequency promotion) ONLY if the value
actually changed: rewriting an identical value over and over must not
inflate the entry's frequency.
*/
func (c *HybridCache[K, V]) AddWithFrequency(key K, value V, initialFrequency int64) {
	if initialFrequency < 1 {
		initialFrequency = 1
	}

	// Existing-key fast path: no structural change, so the read lock
	// plus the node lock is enough.
	c.mu.RLock()
	if n, ok := c.keyIndex[key]; ok {
		c.updateNode(n, value)
		c.mu.RUnlock()
		return
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check: another goroutine may have inserted the key between
	// dropping the read lock and taking the write lock.
	if n, ok := c.keyIndex[key]; ok {
		c.updateNode(n, value)
		return
	}

	// Make room BEFORE admitting the newcomer.
	if len(c.keyIndex) >= c.capacity {
		c.evictOne()
	}

	c.install(c.pool.Acquire(key, value, initialFrequency), initialFrequency)
}

// updateNode applies an in-place value update, promoting on change.
// Caller must hold the structural lock (read is enough).
func (c *HybridCache[K, V]) updateNode(n *bucket.Node[K, V], value V) {
	n.Lock()
	if !reflect.DeepEqual(n.Value, value) {
		n.Value = value
		c.promote(n)
	}
	n.Unlock()
}

// Get returns the value for key, counting the access (the entry is
// promoted to the next frequency bucket).
// Returns ErrKeyNotFound if the key is not resident.
func (c *HybridCache[K, V]) Get(key K) (V, error) {
	return c.get(key)
}

// TryGet is the non-failing variant of Get: it reports absence with
// a boolean instead of an error. A hit still counts as an access.
func (c *HybridCache[K, V]) TryGet(key K) (V, bool) {
	value, err := c.get(key)
	if err != nil {
		var zero V
		return zero, false
	}
	return value, true
}

// GetFrequency returns the entry's current frequency without touching
// it: the read does not count as an access.
// Returns ErrKeyNotFound if the key is not resident.
func (c *HybridCache[K, V]) GetFrequency(key K) (int64, error) {
	return c.getFrequency(key)
}

/*
GetOrLoad returns the cached value for key, or loads it through loader
on a miss and admits the result.

Concurrent callers missing on the same key are collapsed: the loader
runs once and everyone shares its answer. A failed load is never
cached and the error is returned as-is.
*/
func (c *HybridCache[K, V]) GetOrLoad(ctx context.Context, key K, loader types.Loader[K, V]) (V, error) {
	if value, ok := c.TryGet(key); ok {
		return value, nil
	}

	c.metrics.Load()
	v, err, _ := c.sf.Do(fmt.Sprint(key), func() (any, error) {
		return loader.Load(ctx, key)
	})
	if err != nil {
		var zero V
		return zero, err
	}

	value := v.(V)
	c.Add(key, value)
	return value, nil
}

/*
SetCapacity changes the maximum item count, evicting as needed.

With shrink == false the new capacity is clamped so it never ends up
below the construction-time capacity: growing is unrestricted, but a
"grow" call cannot be used to sneak capacity under the original floor.
With shrink == true the capacity is set exactly as requested.

Returns ErrInvalidCapacity when newCapacity is below 1.
*/
func (c *HybridCache[K, V]) SetCapacity(newCapacity int, shrink bool) error {
	if newCapacity < 1 {
		return invalidCapacityError(int64(newCapacity))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if newCapacity == c.capacity {
		return nil
	}
	if !shrink && newCapacity < c.initialCapacity {
		newCapacity = c.initialCapacity
	}
	c.capacity = newCapacity

	// Bounded by the precomputed excess so the loop terminates even
	// if an eviction unexpectedly fails to shrink the structure.
	maxEvictions := len(c.keyIndex) - c.capacity
	for i := 0; i < maxEvictions && len(c.keyIndex) > c.capacity; i++ {
		if _, ok := c.evictOne(); !ok {
			break
		}
	}
	return nil
}

// Capacity returns the current maximum item count.
func (c *HybridCache[K, V]) Capacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capacity
}

// Len returns the number of currently resident entries.
func (c *HybridCache[K, V]) Len() int {
	return c.length()
}

// Remove deletes a key immediately, outside the eviction policy.
// Removing an absent key is a safe no-op.
func (c *HybridCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeKey(key)
}

// Enumerate returns a snapshot sequence over all resident entries.
// Every resident key is visited exactly once; there is no ordering
// guarantee. The sequence is finite and restartable.
func (c *HybridCache[K, V]) Enumerate() iter.Seq2[K, V] {
	return c.enumerate()
}
