package hybridcache

import "github.com/Andronovo-bit/hybridcache/api"

// Compile-time conformance with the public contracts.
var (
	_ api.Cache[string, any]      = (*HybridCache[string, any])(nil)
	_ api.SizedCache[string, any] = (*SizedCache[string, any])(nil)
)
