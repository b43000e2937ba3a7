package types

import "context"

// Loader is the contract between the cache and the outside world when
// the cache does NOT have the data.
type Loader[K comparable, V any] interface {

	/*
		Load is called on a cache miss inside GetOrLoad.
		1. Cache checks memory → key not found
		2. Cache calls Load(key)
		3. Loader fetches from DB/API/computation
		4. Cache admits the result
		5. Cache returns the value

		A failed Load is never cached.
	*/
	Load(ctx context.Context, key K) (V, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

func (f LoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}
