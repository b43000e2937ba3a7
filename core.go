package hybridcache

import (
	"iter"
	"sync"

	"github.com/Andronovo-bit/hybridcache/bucket"
	"github.com/Andronovo-bit/hybridcache/pool"
	"github.com/Andronovo-bit/hybridcache/types"
)

/*
core is the shared machinery of both cache variants: the key index, the
frequency-bucketed lists, the minimum-frequency cursor and the node
pool. The capacity model (item count vs. bytes) lives in the embedding
type; core neither knows nor cares what "full" means.

Locking, outside-in:

  - mu (structural): write-locked by anything that changes WHICH keys
    are resident or triggers eviction (new-key insertion, eviction,
    capacity changes, removal). Read-locked by lookups and promotions.

  - per-node lock: serializes value updates and promotion of one node,
    so two goroutines hitting the same key each get their own
    frequency increment instead of a collapsed one.

  - fmu: guards freqIndex and minFrequency. Promotions run under the
    structural READ lock and still create/consult buckets, so the
    frequency index needs its own guard.

  - per-bucket lock: inside FrequencyBucket, protecting pointer surgery.

Acquisition order is always structural → node → fmu → bucket; no path
acquires them in any other order, which rules out deadlock. Holding the
read lock across a whole promotion also means eviction (write lock) can
never retire a node that a reader is still touching, which is what
makes recycling nodes through the pool safe.
*/
type core[K comparable, V any] struct {
	mu  sync.RWMutex
	fmu sync.Mutex

	keyIndex  map[K]*bucket.Node[K, V]
	freqIndex map[int64]*bucket.FrequencyBucket[K, V]

	// minFrequency always names the smallest frequency with a
	// non-empty bucket, or 1 when the cache is empty.
	minFrequency int64

	pool    *pool.NodePool[K, V]
	metrics types.Metrics
}

// init readies an embedded zero-value core for use.
func (c *core[K, V]) init() {
	c.keyIndex = make(map[K]*bucket.Node[K, V])
	c.freqIndex = make(map[int64]*bucket.FrequencyBucket[K, V])
	c.minFrequency = 1
	c.pool = pool.New[K, V]()
	c.metrics = types.NoopMetrics{}
}

// bucketFor returns the bucket for frequency f, creating it if absent.
// Caller must hold fmu.
func (c *core[K, V]) bucketFor(f int64) *bucket.FrequencyBucket[K, V] {
	b, ok := c.freqIndex[f]
	if !ok {
		b = bucket.NewFrequencyBucket[K, V]()
		c.freqIndex[f] = b
	}
	return b
}

/*
promote moves a node from its current bucket to the next-higher one.
Caller must hold the structural lock (read is enough) and the node lock.

The minFrequency update here is the cheap path: frequency rises by
exactly 1 per promotion, so when the old bucket empties out the
next-lowest occupied frequency can only be the one we are about to
fill. No scan needed.
*/
func (c *core[K, V]) promote(n *bucket.Node[K, V]) {
	old := n.Frequency()

	c.fmu.Lock()
	defer c.fmu.Unlock()

	if b, ok := c.freqIndex[old]; ok {
		b.Remove(n)
		if b.IsEmpty() {
			delete(c.freqIndex, old)
			if old == c.minFrequency {
				c.minFrequency++
			}
		}
	}

	c.bucketFor(n.IncrementFrequency()).AddFirst(n)
}

// install publishes a freshly acquired node: key index, bucket, cursor.
// Caller must hold the structural write lock.
//
// A new entry only ever LOWERS the cursor: inserting at a
// higher-than-minimum frequency does not change which entry is
// currently the least valuable.
func (c *core[K, V]) install(n *bucket.Node[K, V], frequency int64) {
	c.keyIndex[n.Key] = n

	c.fmu.Lock()
	defer c.fmu.Unlock()

	c.bucketFor(frequency).AddFirst(n)
	if frequency == 1 || frequency < c.minFrequency {
		c.minFrequency = frequency
	}
}

// scanMinFrequency recomputes the cursor from scratch: the smallest
// frequency with a non-empty bucket, or 1 when nothing is resident.
// Caller must hold fmu.
//
// Unlike promotion, eviction cannot increment its way to the answer:
// once the minimum bucket is gone the next occupied frequency may sit
// arbitrarily far above it.
func (c *core[K, V]) scanMinFrequency() int64 {
	var (
		minFreq int64
		found   bool
	)
	for f, b := range c.freqIndex {
		if b.IsEmpty() {
			continue
		}
		if !found || f < minFreq {
			minFreq = f
			found = true
		}
	}
	if !found {
		return 1
	}
	return minFreq
}

/*
evictOne removes the LFU victim: the tail (least recently promoted)
node of the minimum-frequency bucket. Caller must hold the structural
write lock.

Returns the evicted node's cost so the size-based variant can settle
its accounting, and false if there was nothing to evict.
*/
func (c *core[K, V]) evictOne() (int64, bool) {
	c.fmu.Lock()
	b, ok := c.freqIndex[c.minFrequency]
	if !ok || b.IsEmpty() {
		// Cursor points at nothing. Should not happen while the
		// invariants hold, but recover by rescanning rather than
		// wedging the eviction loop.
		c.minFrequency = c.scanMinFrequency()
		if b, ok = c.freqIndex[c.minFrequency]; !ok {
			c.fmu.Unlock()
			return 0, false
		}
	}

	n, ok := b.RemoveLast()
	if !ok {
		c.fmu.Unlock()
		return 0, false
	}

	if b.IsEmpty() {
		delete(c.freqIndex, c.minFrequency)
		c.minFrequency = c.scanMinFrequency()
	}
	c.fmu.Unlock()

	delete(c.keyIndex, n.Key)
	cost := n.Cost
	c.pool.Release(n)
	c.metrics.Eviction()
	return cost, true
}

// removeKey unlinks and retires one key outside the eviction path
// (explicit invalidation). Caller must hold the structural write lock.
// Returns the node's cost and whether the key was resident.
func (c *core[K, V]) removeKey(key K) (int64, bool) {
	n, ok := c.keyIndex[key]
	if !ok {
		return 0, false
	}

	c.fmu.Lock()
	f := n.Frequency()
	if b, ok := c.freqIndex[f]; ok {
		b.Remove(n)
		if b.IsEmpty() {
			delete(c.freqIndex, f)
			if f == c.minFrequency {
				c.minFrequency = c.scanMinFrequency()
			}
		}
	}
	c.fmu.Unlock()

	delete(c.keyIndex, key)
	cost := n.Cost
	c.pool.Release(n)
	return cost, true
}

// get looks the key up and, on a hit, runs promotion and returns the
// (possibly just-updated) value.
func (c *core[K, V]) get(key K) (V, error) {
	c.mu.RLock()
	n, ok := c.keyIndex[key]
	if !ok {
		c.mu.RUnlock()
		c.metrics.Miss()
		var zero V
		return zero, keyNotFoundError(key)
	}

	n.Lock()
	c.promote(n)
	value := n.Value
	n.Unlock()
	c.mu.RUnlock()

	c.metrics.Hit()
	return value, nil
}

// getFrequency is a pure read: no promotion, no node lock (the counter
// is atomic).
func (c *core[K, V]) getFrequency(key K) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.keyIndex[key]
	if !ok {
		return 0, keyNotFoundError(key)
	}
	return n.Frequency(), nil
}

// length returns the resident item count.
func (c *core[K, V]) length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keyIndex)
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

/*
enumerate yields every currently resident key/value pair exactly once.

This is an inspection facility, not an ordered iteration primitive:
the sequence is a point-in-time snapshot with NO ordering guarantee,
and entries added or evicted after the snapshot are not reflected.
*/
func (c *core[K, V]) enumerate() iter.Seq2[K, V] {
	c.mu.RLock()
	snapshot := make([]entry[K, V], 0, len(c.keyIndex))
	for k, n := range c.keyIndex {
		n.Lock()
		v := n.Value
		n.Unlock()
		snapshot = append(snapshot, entry[K, V]{key: k, value: v})
	}
	c.mu.RUnlock()

	return func(yield func(K, V) bool) {
		for _, e := range snapshot {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}
