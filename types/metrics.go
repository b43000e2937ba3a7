package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will
call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when the cache successfully returns a value.
	Hit()

	// Miss is called when the cache does NOT find a key.
	Miss()

	// Eviction is called when a key is removed because the cache is
	// full and needs space.
	Eviction()

	// Load is called when GetOrLoad has to go to the loader.
	Load()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

We don't want to force every user of the cache to implement metrics,
and we don't want `if metrics != nil` conditions on the hot path.
So the default implementation simply ignores all metric events.
*/
type NoopMetrics struct{}

// All methods below intentionally do nothing.
// This satisfies the Metrics interface without side effects.

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Eviction() {}
func (NoopMetrics) Load()     {}
