// This file implements the frequency bucket: all resident keys that
// currently share one frequency value, ordered by recency.

package bucket

import "sync"

/*
FrequencyBucket is a doubly-linked list of nodes with sentinel head and
tail elements.

Ordering is by recency of insertion INTO THIS BUCKET:
- head side = most recently promoted/inserted
- tail side = least recently promoted/inserted

That tail-side ordering is what gives the cache its LRU tie-break among
keys with equal frequency: the eviction candidate is always the tail.

Every operation is O(1). Sentinels mean no nil checks during surgery:
a real node always has a real neighbour on both sides.

The bucket locks itself. Promotion moves a node between two different
buckets, and unrelated promotions may touch the same bucket at the same
time; interleaved pointer writes would tear the list apart.
*/
type FrequencyBucket[K comparable, V any] struct {
	mu   sync.Mutex
	head *Node[K, V] // sentinel
	tail *Node[K, V] // sentinel
	size int
}

// NewFrequencyBucket creates an empty bucket with linked sentinels.
func NewFrequencyBucket[K comparable, V any]() *FrequencyBucket[K, V] {
	b := &FrequencyBucket[K, V]{
		head: &Node[K, V]{},
		tail: &Node[K, V]{},
	}
	b.head.next = b.tail
	b.tail.prev = b.head
	return b
}

// AddFirst links node directly after the head sentinel,
// making it the most recently promoted entry of this bucket.
func (b *FrequencyBucket[K, V]) AddFirst(n *Node[K, V]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n.prev = b.head
	n.next = b.head.next
	b.head.next.prev = n
	b.head.next = n
	b.size++
}

// Remove unlinks node using its own prev/next pointers.
// The caller must guarantee the node is currently a member of THIS
// bucket; the list has no way to verify that cheaply.
func (b *FrequencyBucket[K, V]) Remove(n *Node[K, V]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	b.size--
}

// RemoveLast unlinks and returns the node just before the tail
// sentinel (the least recently promoted entry), or false if the
// bucket is empty.
func (b *FrequencyBucket[K, V]) RemoveLast() (*Node[K, V], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.tail.prev
	if n == b.head {
		// Only sentinels left
		return nil, false
	}

	n.prev.next = b.tail
	b.tail.prev = n.prev
	n.prev = nil
	n.next = nil
	b.size--
	return n, true
}

// IsEmpty reports whether the bucket holds no data nodes.
func (b *FrequencyBucket[K, V]) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head.next == b.tail
}

// Len returns the number of data nodes in the bucket.
func (b *FrequencyBucket[K, V]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}
