package hybridcache

import "github.com/Andronovo-bit/hybridcache/types"

// SizeUnit denominates a size-based capacity; aliased here so callers
// of NewSized don't need a second import for the common case.
type SizeUnit = types.SizeUnit

const (
	B  = types.B
	KB = types.KB
	MB = types.MB
)
