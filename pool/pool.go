/*
Package pool recycles retired cache nodes.

Every eviction would otherwise turn into garbage and every admission
into a fresh allocation. On a hot cache that churn is pure GC pressure,
so retired nodes are kept on a free-list and handed back out on the
next admission.

There is NO ordering guarantee on which retired node gets reused.
*/
package pool

import (
	"sync"

	"github.com/Andronovo-bit/hybridcache/bucket"
)

// NodePool is a concurrent free-list of nodes.
// It is internally synchronized; callers need no external locking
// around Acquire/Release.
type NodePool[K comparable, V any] struct {
	p sync.Pool
}

// New creates a pool that constructs fresh nodes on demand
// when no retired node is available.
func New[K comparable, V any]() *NodePool[K, V] {
	return &NodePool[K, V]{
		p: sync.Pool{
			New: func() any {
				return new(bucket.Node[K, V])
			},
		},
	}
}

// Acquire returns a node initialized with the given fields.
// The node comes from the free-list when possible, otherwise it is
// freshly allocated.
func (np *NodePool[K, V]) Acquire(key K, value V, frequency int64) *bucket.Node[K, V] {
	n := np.p.Get().(*bucket.Node[K, V])
	n.Key = key
	n.Value = value
	n.SetFrequency(frequency)
	return n
}

/*
Release resets a node and returns it to the free-list.

Must be called only after the node has been unlinked from its bucket
and removed from the key index. Releasing a node that is still
externally reachable would let a later Acquire hand the same storage
to a second key.
*/
func (np *NodePool[K, V]) Release(n *bucket.Node[K, V]) {
	n.Reset()
	np.p.Put(n)
}
