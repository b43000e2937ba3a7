package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	hybridcache "github.com/Andronovo-bit/hybridcache"
	"github.com/Andronovo-bit/hybridcache/metrics"
	"github.com/BurntSushi/toml"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jedisct1/dlog"
	"golang.org/x/sync/errgroup"
)

// Config drives the load benchmark. Every field has a sensible
// default; a TOML file given via -config overrides selectively.
type Config struct {
	Capacity    int `toml:"capacity"`
	PreloadKeys int `toml:"preload_keys"`
	Goroutines  int `toml:"goroutines"`
	OpsPerG     int `toml:"ops_per_goroutine"`

	// WritePercent of operations are Adds; the rest are Gets.
	WritePercent int `toml:"write_percent"`

	// HotKeys > 0 confines reads to the first HotKeys keys,
	// simulating a skewed working set.
	HotKeys int `toml:"hot_keys"`

	// Baseline also runs the same workload against plain LRU
	// (hashicorp/golang-lru) for comparison.
	Baseline bool `toml:"baseline"`
}

func defaultConfig() Config {
	return Config{
		Capacity:     200000,
		PreloadKeys:  100000,
		Goroutines:   200,
		OpsPerG:      5000,
		WritePercent: 10,
		Baseline:     true,
	}
}

func loadConfig() Config {
	configFile := flag.String("config", "", "path to a TOML benchmark configuration")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	dlog.Init("hybridcache-bench", dlog.SeverityNotice, "")
	if *verbose {
		dlog.SetLogLevel(dlog.SeverityDebug)
	}

	config := defaultConfig()
	if *configFile != "" {
		if _, err := toml.DecodeFile(*configFile, &config); err != nil {
			dlog.Fatalf("unable to load the configuration file [%s]: %v", *configFile, err)
		}
		dlog.Noticef("configuration loaded from [%s]", *configFile)
	}
	return config
}

// workload runs the configured mix against any cache behind a pair of
// closures, and returns ops/sec.
func workload(config Config, add func(int, int), get func(int)) (float64, error) {
	keySpace := config.PreloadKeys
	readSpace := keySpace
	if config.HotKeys > 0 && config.HotKeys < keySpace {
		readSpace = config.HotKeys
	}

	start := time.Now()

	g := errgroup.Group{}
	for w := 0; w < config.Goroutines; w++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(int64(w) + 1))
			for i := 0; i < config.OpsPerG; i++ {
				if rng.Intn(100) < config.WritePercent {
					k := rng.Intn(keySpace)
					add(k, i)
				} else {
					get(rng.Intn(readSpace))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	totalOps := config.Goroutines * config.OpsPerG
	return float64(totalOps) / time.Since(start).Seconds(), nil
}

func main() {
	config := loadConfig()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", config.Capacity)
	fmt.Println("Preload Keys :", config.PreloadKeys)
	fmt.Println("Goroutines   :", config.Goroutines)
	fmt.Println("Ops/Goroutine:", config.OpsPerG)
	fmt.Println("Write %      :", config.WritePercent)
	fmt.Println("Hot Keys     :", config.HotKeys)
	fmt.Println("---------------------------------")

	rec := metrics.NewRecorder()
	c, err := hybridcache.New[int, int](config.Capacity,
		hybridcache.WithMetrics[int, int](rec))
	if err != nil {
		dlog.Fatalf("unable to create the cache: %v", err)
	}

	dlog.Noticef("preloading %d keys", config.PreloadKeys)
	for i := 0; i < config.PreloadKeys; i++ {
		c.Add(i, i)
	}

	dlog.Debugf("warming up")
	for i := 0; i < 10000; i++ {
		c.Get(i % config.PreloadKeys)
	}

	dlog.Noticef("running %d goroutines x %d ops", config.Goroutines, config.OpsPerG)
	throughput, err := workload(config,
		func(k, v int) { c.Add(k, v) },
		func(k int) { c.TryGet(k) },
	)
	if err != nil {
		dlog.Fatalf("benchmark failed: %v", err)
	}

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", config.Goroutines*config.OpsPerG)
	fmt.Printf("Throughput       : %.2f ops/sec\n", throughput)
	fmt.Printf("Metrics          : %s\n", rec.Snapshot())
	fmt.Println("=========================================")

	if !config.Baseline {
		return
	}

	// Same workload against plain LRU, as a point of reference for
	// what the frequency bookkeeping costs.
	dlog.Noticef("running LRU baseline")
	baseline, err := lru.New[int, int](config.Capacity)
	if err != nil {
		dlog.Fatalf("unable to create the baseline cache: %v", err)
	}
	for i := 0; i < config.PreloadKeys; i++ {
		baseline.Add(i, i)
	}

	lruThroughput, err := workload(config,
		func(k, v int) { baseline.Add(k, v) },
		func(k int) { baseline.Get(k) },
	)
	if err != nil {
		dlog.Fatalf("baseline failed: %v", err)
	}

	fmt.Println("\n================ BASELINE (hashicorp LRU) =================")
	fmt.Printf("Throughput       : %.2f ops/sec\n", lruThroughput)
	fmt.Printf("Relative         : %.2fx\n", throughput/lruThroughput)
	fmt.Println("=========================================")
}
