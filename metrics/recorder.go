// Package metrics provides a ready-made Metrics implementation that
// counts cache events and tracks a moving hit rate.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Andronovo-bit/hybridcache/types"
	"github.com/VividCortex/ewma"
)

var _ types.Metrics = (*Recorder)(nil)

// Recorder counts hits, misses, evictions and loads, and keeps an
// exponentially-weighted moving average of the hit rate (1.0 for a
// hit, 0.0 for a miss), so a long-running cache shows how it is doing
// NOW rather than averaged over its whole lifetime.
//
// Safe for concurrent use; the counters are lock-free, only the
// moving average takes a small mutex.
type Recorder struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	loads     atomic.Int64

	mu      sync.Mutex
	hitRate ewma.MovingAverage
}

// NewRecorder creates a Recorder with the default EWMA decay.
func NewRecorder() *Recorder {
	return &Recorder{hitRate: ewma.NewMovingAverage()}
}

func (r *Recorder) Hit() {
	r.hits.Add(1)
	r.mu.Lock()
	r.hitRate.Add(1)
	r.mu.Unlock()
}

func (r *Recorder) Miss() {
	r.misses.Add(1)
	r.mu.Lock()
	r.hitRate.Add(0)
	r.mu.Unlock()
}

func (r *Recorder) Eviction() { r.evictions.Add(1) }

func (r *Recorder) Load() { r.loads.Add(1) }

// Snapshot is a point-in-time copy of the recorded values.
type Snapshot struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Loads     int64

	// HitRate is the moving average in [0, 1]. It reads 0 until the
	// EWMA has warmed up (a handful of samples).
	HitRate float64
}

// Snapshot returns the current counter values and moving hit rate.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	rate := r.hitRate.Value()
	r.mu.Unlock()

	return Snapshot{
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Evictions: r.evictions.Load(),
		Loads:     r.loads.Load(),
		HitRate:   rate,
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("hits=%d misses=%d evictions=%d loads=%d hit-rate=%.2f",
		s.Hits, s.Misses, s.Evictions, s.Loads, s.HitRate)
}
