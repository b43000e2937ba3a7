package hybridcache

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/Andronovo-bit/hybridcache/sizeof"
	"github.com/Andronovo-bit/hybridcache/types"
	"golang.org/x/sync/singleflight"
)

/*
SizedCache is the size-based cache engine.

Eviction policy and bookkeeping are identical to HybridCache; only the
capacity model differs. Capacity and residency are denominated in
bytes of value payload, priced by a SizeEstimator at admission time:

- every new value is priced before deciding whether eviction is needed
- an update of an existing key is charged only the delta between the
  old and the new value's price
- one Add may evict several entries, since evicted values vary in size

The estimator defaults to the reflective deep-size oracle in the
sizeof package.
*/
type SizedCache[K comparable, V any] struct {
	core[K, V]

	// capacity and currentSize are bytes. Both are only mutated under
	// the structural write lock.
	capacity        int64
	initialCapacity int64
	currentSize     int64

	estimator types.SizeEstimator[V]
	sf        singleflight.Group
}

// SizedOption configures a SizedCache.
type SizedOption[K comparable, V any] func(*SizedCache[K, V])

// WithSizedMetrics wires a metrics sink into the cache.
func WithSizedMetrics[K comparable, V any](m types.Metrics) SizedOption[K, V] {
	return func(c *SizedCache[K, V]) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithEstimator replaces the default size oracle.
func WithEstimator[K comparable, V any](e types.SizeEstimator[V]) SizedOption[K, V] {
	return func(c *SizedCache[K, V]) {
		if e != nil {
			c.estimator = e
		}
	}
}

// NewSized creates a size-based cache with a budget of
// capacity × unit bytes. Capacity must be at least 1.
func NewSized[K comparable, V any](capacity int64, unit SizeUnit, opts ...SizedOption[K, V]) (*SizedCache[K, V], error) {
	if capacity < 1 {
		return nil, invalidCapacityError(capacity)
	}
	if unit < B {
		unit = B
	}
	c := &SizedCache[K, V]{
		capacity:        unit.Bytes(capacity),
		initialCapacity: unit.Bytes(capacity),
		estimator:       sizeof.Estimator[V]{},
	}
	c.core.init()
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Add stores key → value with the default initial frequency of 1.
func (c *SizedCache[K, V]) Add(key K, value V) {
	c.AddWithFrequency(key, value, 1)
}

/*
AddWithFrequency stores key → value under the byte budget.

Semantics mirror HybridCache.AddWithFrequency (in-place update with
promote-on-change for resident keys, initial frequency floor of 1),
with two size-specific twists:

  - admission evicts repeatedly until the newcomer's price fits
  - a value whose price alone exceeds the whole budget is rejected
    outright; evicting everything still could not make it fit

Unlike the count-based engine, updates run under the structural write
lock: a value swap changes the byte accounting and may itself force
evictions.
*/
func (c *SizedCache[K, V]) AddWithFrequency(key K, value V, initialFrequency int64) {
	if initialFrequency < 1 {
		initialFrequency = 1
	}
	cost := c.estimator.EstimateSizeInBytes(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.keyIndex[key]; ok {
		n.Lock()
		changed := !reflect.DeepEqual(n.Value, value)
		if changed {
			c.currentSize += cost - n.Cost
			n.Value = value
			n.Cost = cost
			c.promote(n)
		}
		n.Unlock()
		if changed {
			// A grown value may have pushed the cache over budget.
			c.evictUntilFit(0)
		}
		return
	}

	if cost > c.capacity {
		return
	}

	c.evictUntilFit(cost)

	n := c.pool.Acquire(key, value, initialFrequency)
	n.Cost = cost
	c.currentSize += cost
	c.install(n, initialFrequency)
}

// evictUntilFit evicts until incoming more bytes would fit under the
// budget. Caller must hold the structural write lock. The loop is
// bounded by the resident count so it terminates even if an eviction
// fails to free anything.
func (c *SizedCache[K, V]) evictUntilFit(incoming int64) {
	maxEvictions := len(c.keyIndex)
	for i := 0; i < maxEvictions && c.currentSize+incoming > c.capacity; i++ {
		freed, ok := c.evictOne()
		if !ok {
			break
		}
		c.currentSize -= freed
	}
}

// Get returns the value for key, counting the access.
// Returns ErrKeyNotFound if the key is not resident.
func (c *SizedCache[K, V]) Get(key K) (V, error) {
	return c.get(key)
}

// TryGet is the non-failing variant of Get.
func (c *SizedCache[K, V]) TryGet(key K) (V, bool) {
	value, err := c.get(key)
	if err != nil {
		var zero V
		return zero, false
	}
	return value, true
}

// GetFrequency returns the entry's current frequency without counting
// an access. Returns ErrKeyNotFound if the key is not resident.
func (c *SizedCache[K, V]) GetFrequency(key K) (int64, error) {
	return c.getFrequency(key)
}

// GetOrLoad returns the cached value for key, or loads it through
// loader on a miss and admits the result. Concurrent misses on the
// same key share a single loader call.
func (c *SizedCache[K, V]) GetOrLoad(ctx context.Context, key K, loader types.Loader[K, V]) (V, error) {
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
SetCapacity changes the byte budget to newCapacity × unit, evicting
until the resident bytes fit.

Floor semantics match HybridCache.SetCapacity: non-shrink calls are
clamped to the construction-time budget, shrink calls are applied
exactly. Returns ErrInvalidCapacity when newCapacity is below 1.
*/
func (c *SizedCache[K, V]) SetCapacity(newCapacity int64, shrink bool, unit SizeUnit) error {
	if newCapacity < 1 {
		return invalidCapacityError(newCapacity)
	}
	if unit < B {
		unit = B
	}
	capacityBytes := unit.Bytes(newCapacity)

	c.mu.Lock()
	defer c.mu.Unlock()

	if capacityBytes == c.capacity {
		return nil
	}
	if !shrink && capacityBytes < c.initialCapacity {
		capacityBytes = c.initialCapacity
	}
	c.capacity = capacityBytes
	c.evictUntilFit(0)
	return nil
}

// Capacity returns the current budget in bytes.
func (c *SizedCache[K, V]) Capacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capacity
}

// CurrentSizeInBytes returns the cumulative price of resident values.
func (c *SizedCache[K, V]) CurrentSizeInBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentSize
}

// RemainingSizeInBytes returns the unused part of the budget.
func (c *SizedCache[K, V]) RemainingSizeInBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capacity - c.currentSize
}

// Len returns the number of currently resident entries.
func (c *SizedCache[K, V]) Len() int {
	return c.length()
}

// Remove deletes a key immediately, refunding its bytes.
// Removing an absent key is a safe no-op.
func (c *SizedCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cost, ok := c.removeKey(key); ok {
		c.currentSize -= cost
	}
}

// Enumerate returns an unordered snapshot sequence over all resident
// entries; every resident key is visited exactly once.
func (c *SizedCache[K, V]) Enumerate() iter.Seq2[K, V] {
	return c.enumerate()
}
