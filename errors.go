package hybridcache

import "fmt"

type constError string

func (e constError) Error() string { return string(e) }

// ErrKeyNotFound is returned by Get and GetFrequency for absent keys.
const ErrKeyNotFound = constError("key not found")

// ErrInvalidCapacity is returned by New and SetCapacity
// when the requested capacity is below 1.
const ErrInvalidCapacity = constError("invalid capacity")

func keyNotFoundError(key any) error {
	return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
}

func invalidCapacityError(capacity int64) error {
	return fmt.Errorf("%w: must be >=1 but %d was requested",
		ErrInvalidCapacity, capacity)
}
