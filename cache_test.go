package hybridcache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	hybridcache "github.com/Andronovo-bit/hybridcache"
	"github.com/Andronovo-bit/hybridcache/metrics"
	"github.com/Andronovo-bit/hybridcache/types"
	"golang.org/x/sync/errgroup"
)

//
// ================= BASIC OPERATIONS =================
//

func TestAddAndRetrieve(t *testing.T) {
	c, err := hybridcache.New[string, string](10)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	c.Add("key1", "value1")

	v, err := c.Get("key1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if v != "value1" {
		t.Fatalf("expected value1, got %v", v)
	}
}

func TestRetrieveNonExistentKey(t *testing.T) {
	c, _ := hybridcache.New[string, string](10)

	if _, err := c.Get("missing"); !errors.Is(err, hybridcache.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if _, err := c.GetFrequency("missing"); !errors.Is(err, hybridcache.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if _, ok := c.TryGet("missing"); ok {
		t.Fatal("TryGet on absent key should report false")
	}
}

func TestUpdateExistingKey(t *testing.T) {
	c, _ := hybridcache.New[string, string](10)

	c.Add("key1", "value1")
	c.Add("key1", "value2")

	v, _ := c.Get("key1")
	if v != "value2" {
		t.Fatalf("expected value2, got %v", v)
	}
	if c.Len() != 1 {
		t.Fatalf("update must not grow the cache, len=%d", c.Len())
	}
}

func TestRemoveKey(t *testing.T) {
	c, _ := hybridcache.New[string, string](10)

	c.Add("key1", "value1")
	c.Remove("key1")

	if _, err := c.Get("key1"); !errors.Is(err, hybridcache.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound after remove, got %v", err)
	}

	// Removing again is a safe no-op.
	c.Remove("key1")
}

func TestNewRejectsInvalidCapacity(t *testing.T) {
	if _, err := hybridcache.New[string, string](0); !errors.Is(err, hybridcache.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := hybridcache.New[string, string](-3); !errors.Is(err, hybridcache.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
}

//
// ================= FREQUENCY SEMANTICS =================
//

func TestFrequencyPromotionOnGet(t *testing.T) {
	c, _ := hybridcache.New[string, string](10)

	c.Add("key", "value")

	f, _ := c.GetFrequency("key")
	if f != 1 {
		t.Fatalf("fresh key should have frequency 1, got %d", f)
	}

	for i := int64(1); i <= 5; i++ {
		c.Get("key")
		f, _ = c.GetFrequency("key")
		if f != 1+i {
			t.Fatalf("after %d gets expected frequency %d, got %d", i, 1+i, f)
		}
	}
}

func TestGetFrequencyIsPureRead(t *testing.T) {
	c, _ := hybridcache.New[string, string](10)
	c.Add("key", "value")

	for i := 0; i < 5; i++ {
		c.GetFrequency("key")
	}

	f, _ := c.GetFrequency("key")
	if f != 1 {
		t.Fatalf("GetFrequency must not count as an access, got %d", f)
	}
}

func TestUnchangedValueWriteDoesNotPromote(t *testing.T) {
	c, _ := hybridcache.New[string, string](10)

	c.Add("key", "value")
	c.Add("key", "value") // identical rewrite
	c.Add("key", "value")

	f, _ := c.GetFrequency("key")
	if f != 1 {
		t.Fatalf("identical rewrites must not inflate frequency, got %d", f)
	}

	c.Add("key", "changed")
	f, _ = c.GetFrequency("key")
	if f != 2 {
		t.Fatalf("a value-changing write counts as one access, got %d", f)
	}
}

//
// ================= CAPACITY & EVICTION =================
//

func TestCapacityNeverExceeded(t *testing.T) {
	c, _ := hybridcache.New[int, int](5)

	for i := 0; i < 100; i++ {
		c.Add(i, i)
		if c.Len() > 5 {
			t.Fatalf("resident count %d exceeds capacity 5", c.Len())
		}
	}
}

func TestEvictsLowestFrequencyLeastRecentlyPromoted(t *testing.T) {
	c, _ := hybridcache.New[int, string](2)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Get(1) // key 1 climbs to frequency 2
	c.Add(3, "c")

	// Key 2 had the lowest frequency and was the least recently
	// promoted, so it must be the victim.
	if _, err := c.Get(2); !errors.Is(err, hybridcache.ErrKeyNotFound) {
		t.Fatalf("expected key 2 evicted, got err=%v", err)
	}
	if v, _ := c.Get(1); v != "a" {
		t.Fatalf("expected a, got %v", v)
	}
	if v, _ := c.Get(3); v != "c" {
		t.Fatalf("expected c, got %v", v)
	}
}

func TestLRUTieBreakAmongEqualFrequencies(t *testing.T) {
	c, _ := hybridcache.New[int, string](3)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Add(3, "c")
	// All at frequency 1; key 1 is the least recently inserted.
	c.Add(4, "d")

	if _, err := c.Get(1); !errors.Is(err, hybridcache.ErrKeyNotFound) {
		t.Fatal("expected the oldest same-frequency key to be evicted")
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 residents, got %d", c.Len())
	}
}

func TestCustomInitialFrequencyProtectsFromEviction(t *testing.T) {
	c, _ := hybridcache.New[int, string](3)

	c.AddWithFrequency(1, "v1", 10)
	c.AddWithFrequency(2, "v2", 1)
	c.AddWithFrequency(3, "v3", 3)
	c.AddWithFrequency(4, "v4", 1) // forces one eviction

	// Key 2 was the cheapest entry; key 1's head start kept it safe.
	if _, err := c.Get(2); !errors.Is(err, hybridcache.ErrKeyNotFound) {
		t.Fatal("expected the lowest-frequency key to be evicted")
	}

	if v, _ := c.Get(1); v != "v1" {
		t.Fatalf("expected v1, got %v", v)
	}
	f, _ := c.GetFrequency(1)
	if f != 11 {
		t.Fatalf("expected frequency 11 after one access, got %d", f)
	}
}

// Even when no entry sits at the cursor's frequency (everything was
// admitted above 1), filling the cache must still evict.
func TestEvictionWithSparseHighFrequencies(t *testing.T) {
	c, _ := hybridcache.New[int, string](2)

	c.AddWithFrequency(1, "a", 5)
	c.AddWithFrequency(2, "b", 7)
	c.AddWithFrequency(3, "c", 9)

	if c.Len() != 2 {
		t.Fatalf("expected 2 residents, got %d", c.Len())
	}
	// The frequency-5 entry was the least valuable.
	if _, err := c.Get(1); !errors.Is(err, hybridcache.ErrKeyNotFound) {
		t.Fatal("expected the lowest-frequency entry to be evicted")
	}
}

//
// ================= CAPACITY CHANGES =================
//

func TestShrinkKeepsMostValuableKey(t *testing.T) {
	c, _ := hybridcache.New[int, string](3)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Add(3, "c")
	c.Get(1)
	c.Get(1)
	c.Get(2)
	// Frequencies now: 1→3, 2→2, 3→1.

	if err := c.SetCapacity(1, true); err != nil {
		t.Fatalf("shrink failed: %v", err)
	}

	if c.Len() != 1 {
		t.Fatalf("expected exactly 1 resident, got %d", c.Len())
	}
	if _, ok := c.TryGet(1); !ok {
		t.Fatal("the highest-frequency key should survive the shrink")
	}
}

func TestGrowFloor(t *testing.T) {
	c, _ := hybridcache.New[int, int](10)

	// A non-shrink call can never take capacity under the original 10.
	c.SetCapacity(50, false)
	if got := c.Capacity(); got != 50 {
		t.Fatalf("expected capacity 50, got %d", got)
	}
	c.SetCapacity(3, false)
	if got := c.Capacity(); got != 10 {
		t.Fatalf("non-shrink below floor should clamp to 10, got %d", got)
	}
	c.SetCapacity(5, false)
	if got := c.Capacity(); got != 10 {
		t.Fatalf("repeated non-shrink below floor should stay 10, got %d", got)
	}

	// An explicit shrink may go under the floor.
	c.SetCapacity(3, true)
	if got := c.Capacity(); got != 3 {
		t.Fatalf("shrink should apply exactly, got %d", got)
	}
}

func TestSetCapacityRejectsInvalid(t *testing.T) {
	c, _ := hybridcache.New[int, int](10)

	if err := c.SetCapacity(0, false); !errors.Is(err, hybridcache.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if err := c.SetCapacity(-1, true); !errors.Is(err, hybridcache.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if got := c.Capacity(); got != 10 {
		t.Fatalf("failed SetCapacity must have no effect, capacity=%d", got)
	}
}

//
// ================= ENUMERATION =================
//

func TestEnumerateVisitsEveryKeyExactlyOnce(t *testing.T) {
	c, _ := hybridcache.New[int, int](20)

	for i := 0; i < 15; i++ {
		c.Add(i, i*i)
	}

	seen := make(map[int]int)
	for k, v := range c.Enumerate() {
		if _, dup := seen[k]; dup {
			t.Fatalf("key %d enumerated twice", k)
		}
		seen[k] = v
	}

	if len(seen) != 15 {
		t.Fatalf("expected 15 entries, enumerated %d", len(seen))
	}
	for k, v := range seen {
		if v != k*k {
			t.Fatalf("key %d carried %d, expected %d", k, v, k*k)
		}
	}
}

func TestEnumerateIsRestartable(t *testing.T) {
	c, _ := hybridcache.New[int, int](10)
	c.Add(1, 1)
	c.Add(2, 2)

	seq := c.Enumerate()

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}

	if first != 2 || second != 2 {
		t.Fatalf("sequence should be restartable, got %d then %d", first, second)
	}
}

//
// ================= READ-THROUGH LOADING =================
//

func TestGetOrLoadCachesLoadedValue(t *testing.T) {
	ctx := context.Background()
	c, _ := hybridcache.New[string, string](10)

	var calls atomic.Int64
	loader := types.LoaderFunc[string, string](func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		return "loaded:" + key, nil
	})

	v, err := c.GetOrLoad(ctx, "a", loader)
	if err != nil || v != "loaded:a" {
		t.Fatalf("unexpected load result: %v %v", v, err)
	}

	// Second call must be served from memory.
	v, _ = c.GetOrLoad(ctx, "a", loader)
	if v != "loaded:a" {
		t.Fatalf("expected cached value, got %v", v)
	}
	if calls.Load() != 1 {
		t.Fatalf("loader should have run once, ran %d times", calls.Load())
	}
}

func TestGetOrLoadNeverCachesFailedLoads(t *testing.T) {
	ctx := context.Background()
	c, _ := hybridcache.New[string, string](10)

	boom := errors.New("backing store down")
	loader := types.LoaderFunc[string, string](func(ctx context.Context, key string) (string, error) {
		return "", boom
	})

	if _, err := c.GetOrLoad(ctx, "a", loader); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := c.TryGet("a"); ok {
		t.Fatal("failed load must not be cached")
	}
}

func TestGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	c, _ := hybridcache.New[string, string](10)

	var calls atomic.Int64
	release := make(chan struct{})
	loader := types.LoaderFunc[string, string](func(ctx context.Context, key string) (string, error) {
		calls.Add(1)
		<-release
		return "value", nil
	})

	g := errgroup.Group{}
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			v, err := c.GetOrLoad(ctx, "hot", loader)
			if err != nil {
				return err
			}
			if v != "value" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}

	close(release)
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if calls.Load() >= 10 {
		t.Fatalf("concurrent misses were not collapsed: %d loader runs", calls.Load())
	}
}

//
// ================= METRICS =================
//

func TestMetricsEvents(t *testing.T) {
	rec := metrics.NewRecorder()
	c, _ := hybridcache.New[int, int](2, hybridcache.WithMetrics[int, int](rec))

	c.Add(1, 1)
	c.Add(2, 2)
	c.Get(1)      // hit
	c.Get(99)     // miss
	c.Add(3, 3)   // eviction
	c.TryGet(100) // miss

	s := rec.Snapshot()
	if s.Hits != 1 {
		t.Fatalf("expected 1 hit, got %d", s.Hits)
	}
	if s.Misses != 2 {
		t.Fatalf("expected 2 misses, got %d", s.Misses)
	}
	if s.Evictions != 1 {
		t.Fatalf("expected 1 eviction, got %d", s.Evictions)
	}
}

//
// ================= CONCURRENCY =================
//

func TestConcurrentDistinctWrites(t *testing.T) {
	const (
		goroutines = 8
		perG       = 200
	)

	c, _ := hybridcache.New[string, int](goroutines * perG)

	g := errgroup.Group{}
	for w := 0; w < goroutines; w++ {
		g.Go(func() error {
			for i := 0; i < perG; i++ {
				c.Add(fmt.Sprintf("key-%d-%d", w, i), w*perG+i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	// Every key must resolve to the exact value last written.
	for w := 0; w < goroutines; w++ {
		for i := 0; i < perG; i++ {
			key := fmt.Sprintf("key-%d-%d", w, i)
			v, err := c.Get(key)
			if err != nil {
				t.Fatalf("lost write for %s: %v", key, err)
			}
			if v != w*perG+i {
				t.Fatalf("corrupted value for %s: %d", key, v)
			}
		}
	}

	// And enumeration must agree: no duplicates, nothing missing.
	seen := make(map[string]bool)
	for k := range c.Enumerate() {
		if seen[k] {
			t.Fatalf("key %s enumerated twice", k)
		}
		seen[k] = true
	}
	if len(seen) != goroutines*perG {
		t.Fatalf("expected %d keys, enumerated %d", goroutines*perG, len(seen))
	}
}

func TestConcurrentAccessesEachPromote(t *testing.T) {
	const readers = 50

	c, _ := hybridcache.New[string, string](10)
	c.Add("hot", "value")

	wg := sync.WaitGroup{}
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get("hot"); err != nil {
				t.Errorf("get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// No collapsed increments: 1 initial + one per access.
	f, _ := c.GetFrequency("hot")
	if f != readers+1 {
		t.Fatalf("expected frequency %d, got %d", readers+1, f)
	}
}

func TestConcurrentMixedWorkload(t *testing.T) {
	c, _ := hybridcache.New[int, int](64)

	g := errgroup.Group{}
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 2000; i++ {
				switch i % 4 {
				case 0:
					c.Add(i%100, i)
				case 1:
					c.TryGet(i % 100)
				case 2:
					c.GetFrequency(i % 100)
				case 3:
					if i%40 == 3 {
						c.Remove(i % 100)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if c.Len() > 64 {
		t.Fatalf("capacity invariant violated: %d residents", c.Len())
	}
}
