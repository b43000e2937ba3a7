package bucket

import (
	"sync"
	"sync/atomic"
)

/*
Node is ONE resident cache entry.

A node lives in exactly two places at the same time:
- the cache's key index (key → node)
- exactly one frequency bucket (via its prev/next links)

Both references must always point at the same node object. The cache
engine is responsible for keeping them in sync; the node itself only
carries the state.
*/
type Node[K comparable, V any] struct {

	// Key is the cache key this node represents.
	Key K

	// Value is the stored payload. Mutated in place on updates.
	// Callers must hold the node lock while reading or writing it.
	Value V

	// Cost is the byte price of Value, charged by the size-based cache.
	// The count-based cache leaves it at zero.
	Cost int64

	// freq counts accesses. It is atomic so that pure reads
	// (GetFrequency, enumeration snapshots) never need the node lock.
	freq atomic.Int64

	// mu serializes mutations of this one node: value updates and
	// the unlink/relink dance during promotion.
	mu sync.Mutex

	// prev/next thread the node into its current frequency bucket.
	// Owned by the bucket; nil while the node is pooled.
	prev *Node[K, V]
	next *Node[K, V]
}

// Lock acquires the per-node lock.
func (n *Node[K, V]) Lock() { n.mu.Lock() }

// Unlock releases the per-node lock.
func (n *Node[K, V]) Unlock() { n.mu.Unlock() }

// Frequency returns the current access count without locking.
func (n *Node[K, V]) Frequency() int64 { return n.freq.Load() }

// SetFrequency overwrites the access count.
// Used when a node is (re)initialized with an initial frequency.
func (n *Node[K, V]) SetFrequency(f int64) { n.freq.Store(f) }

// IncrementFrequency bumps the access count by one and returns the
// new value. Promotion relies on the counter rising by exactly 1.
func (n *Node[K, V]) IncrementFrequency() int64 { return n.freq.Add(1) }

/*
Reset wipes every field back to its zero value.

Must only be called once the node is fully unlinked from its bucket
AND removed from the key index. A reset node still reachable from
either place would hand two keys the same storage.
*/
func (n *Node[K, V]) Reset() {
	var (
		zeroK K
		zeroV V
	)
	n.Key = zeroK
	n.Value = zeroV
	n.Cost = 0
	n.freq.Store(0)
	n.prev = nil
	n.next = nil
}
