package api

import (
	"context"
	"iter"

	"github.com/Andronovo-bit/hybridcache/types"
)

/*
Cache defines the PUBLIC API of the count-based hybrid LFU/LRU cache.
This is a contract that guarantees certain behaviors without exposing
internals: the frequency buckets, the minimum-frequency cursor, the
node pool and the locking discipline all stay hidden behind it.
*/
type Cache[K comparable, V any] interface {

	/*
		Add stores a key-value pair.

		BEHAVIOR:
		---------
		- New key: admitted with frequency 1, evicting the
		  least-frequently-used entry first if the cache is full
		  (least-recently-promoted breaks frequency ties)
		- Existing key: value updated in place; the update counts as
		  an access only if the value actually changed
	*/
	Add(key K, value V)

	/*
		AddWithFrequency is Add with an explicit starting frequency.
		A higher initial frequency shields a fresh entry from being
		evicted before it has had a chance to prove itself.
		Values below 1 are raised to 1.
	*/
	AddWithFrequency(key K, value V, initialFrequency int64)

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		---------
		1. Key resident: the access is counted (the entry moves up one
		   frequency bucket) and the value is returned
		2. Key absent: ErrKeyNotFound is returned
	*/
	Get(key K) (V, error)

	// TryGet is the non-failing variant of Get: absence is reported
	// with a boolean instead of an error.
	TryGet(key K) (V, bool)

	// GetFrequency returns the entry's current access frequency
	// WITHOUT counting an access. Returns ErrKeyNotFound when absent.
	GetFrequency(key K) (int64, error)

	/*
		GetOrLoad retrieves the value, loading it through the given
		loader on a miss. Concurrent misses on one key are collapsed
		into a single loader call. Failed loads are never cached.
	*/
	GetOrLoad(ctx context.Context, key K, loader types.Loader[K, V]) (V, error)

	/*
		SetCapacity resizes the cache, evicting as needed.

		- shrink == false: grow freely, but never below the
		  construction-time capacity (the floor)
		- shrink == true:  apply exactly as requested

		Returns ErrInvalidCapacity for capacities below 1.
	*/
	SetCapacity(newCapacity int, shrink bool) error

	// Capacity returns the current maximum item count.
	Capacity() int

	// Len returns the number of currently resident entries.
	Len() int

	// Remove deletes a key immediately (manual invalidation, data
	// consistency after updates, administrative cleanup). Idempotent:
	// removing a non-existing key is safe.
	Remove(key K)

	// Enumerate yields every resident entry exactly once, in no
	// particular order. A debugging/inspection facility, not an
	// ordered iteration primitive.
	Enumerate() iter.Seq2[K, V]
}

/*
SizedCache is the contract of the size-based variant: identical policy,
but capacity and residency are denominated in bytes of value payload,
priced by a SizeEstimator when values are admitted.
*/
type SizedCache[K comparable, V any] interface {
	Add(key K, value V)
	AddWithFrequency(key K, value V, initialFrequency int64)
	Get(key K) (V, error)
	TryGet(key K) (V, bool)
	GetFrequency(key K) (int64, error)
	GetOrLoad(ctx context.Context, key K, loader types.Loader[K, V]) (V, error)
	Len() int
	Remove(key K)
	Enumerate() iter.Seq2[K, V]

	// SetCapacity resizes the byte budget to newCapacity × unit.
	// Floor semantics match Cache.SetCapacity.
	SetCapacity(newCapacity int64, shrink bool, unit types.SizeUnit) error

	// Capacity returns the current budget in bytes.
	Capacity() int64

	// CurrentSizeInBytes returns the cumulative price of all resident
	// values; RemainingSizeInBytes returns capacity minus that.
	CurrentSizeInBytes() int64
	RemainingSizeInBytes() int64
}
