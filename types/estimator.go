package types

/*
SizeEstimator prices a value in bytes for the size-based cache.

The cache treats this as an opaque pricing oracle:
- it must be deterministic for a given value's structure and contents
- it must have no side effects

The estimate is consulted once per Add (and once per update, to price
the delta between old and new value). It is never re-run for values
already resident, so a value that mutates after insertion keeps its
admission-time price.
*/
type SizeEstimator[V any] interface {
	EstimateSizeInBytes(value V) int64
}

// SizeEstimatorFunc adapts a plain function to the SizeEstimator interface.
type SizeEstimatorFunc[V any] func(value V) int64

func (f SizeEstimatorFunc[V]) EstimateSizeInBytes(value V) int64 {
	return f(value)
}
