package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	hybridcache "github.com/Andronovo-bit/hybridcache"
	"github.com/Andronovo-bit/hybridcache/metrics"
)

// ================= BACKING STORE =================

// SlowStore simulates a backing store (DB / external API) with latency,
// to make the singleflight scenario visible.
type SlowStore struct {
	mu    sync.Mutex
	loads int
}

func (s *SlowStore) Load(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	return "stored:" + key, nil
}

func (s *SlowStore) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	fmt.Println("EVICTION POLICY : LFU with LRU tie-break")
	fmt.Println("CAPACITY MODEL  : count-based, 3 items")
	fmt.Println("NODE POOL       : enabled")

	rec := metrics.NewRecorder()
	cache, err := hybridcache.New[string, string](3,
		hybridcache.WithMetrics[string, string](rec))
	if err != nil {
		panic(err)
	}

	// ====================================================
	fmt.Println("\n==================== 1) ADD & GET ====================")

	cache.Add("a", "alpha")
	cache.Add("b", "beta")
	cache.Add("c", "gamma")

	v, _ := cache.Get("a")
	fmt.Println("CACHE  → GET a =", v)

	f, _ := cache.GetFrequency("a")
	fmt.Println("CACHE  → FREQ a =", f)

	// ====================================================
	fmt.Println("\n==================== 2) EVICTION ORDER ====================")

	// a was accessed once (frequency 2); b and c sit at frequency 1
	// with b the least recently inserted. The newcomer pushes b out.
	cache.Add("d", "delta")

	if _, ok := cache.TryGet("b"); !ok {
		fmt.Println("CACHE  → b evicted (lowest frequency, least recently promoted)")
	}
	v, _ = cache.Get("a")
	fmt.Println("CACHE  → GET a after eviction =", v)

	// ====================================================
	fmt.Println("\n==================== 3) INITIAL FREQUENCY ====================")

	// A high starting frequency shields a fresh key from eviction.
	cache.AddWithFrequency("vip", "important", 10)
	cache.Add("x", "noise-1")
	cache.Add("y", "noise-2")
	cache.Add("z", "noise-3")

	if _, ok := cache.TryGet("vip"); ok {
		f, _ = cache.GetFrequency("vip")
		fmt.Println("CACHE  → vip survived the churn, frequency =", f)
	}

	// ====================================================
	fmt.Println("\n==================== 4) CAPACITY CHANGES ====================")

	cache.SetCapacity(10, false)
	fmt.Println("CACHE  → capacity grown to", cache.Capacity())

	cache.SetCapacity(1, true)
	fmt.Println("CACHE  → shrunk to", cache.Capacity(), "item; residents:", cache.Len())
	for k, v := range cache.Enumerate() {
		fmt.Printf("CACHE  → survivor %q = %q\n", k, v)
	}

	// ====================================================
	fmt.Println("\n==================== 5) SINGLEFLIGHT ====================")

	store := &SlowStore{}
	cache.SetCapacity(10, false)

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _ := cache.GetOrLoad(ctx, "shared", store)
			fmt.Printf("GOROUTINE-%d → GET shared = %v\n", id, val)
		}(i)
	}
	wg.Wait()
	fmt.Println("STORE  → loads issued:", store.Loads(), "(5 goroutines)")

	// ====================================================
	fmt.Println("\n==================== 6) SIZE-BASED CACHE ====================")

	sized, err := hybridcache.NewSized[string, []byte](1, hybridcache.KB)
	if err != nil {
		panic(err)
	}

	sized.Add("blob-1", make([]byte, 400))
	sized.Add("blob-2", make([]byte, 400))
	fmt.Println("SIZED  → current bytes  :", sized.CurrentSizeInBytes())
	fmt.Println("SIZED  → remaining bytes:", sized.RemainingSizeInBytes())

	sized.Get("blob-2") // blob-2 is now the more valuable one
	sized.Add("blob-3", make([]byte, 400))

	if _, ok := sized.TryGet("blob-1"); !ok {
		fmt.Println("SIZED  → blob-1 evicted to make room for blob-3")
	}
	fmt.Println("SIZED  → current bytes after eviction:", sized.CurrentSizeInBytes())

	// ====================================================
	fmt.Println("\n==================== METRICS ====================")
	fmt.Println(rec.Snapshot())
}
