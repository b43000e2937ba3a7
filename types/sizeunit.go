package types

// SizeUnit denominates a size-based capacity. Capacities are
// multiplied by the unit to get a byte count.
type SizeUnit int64

const (
	B  SizeUnit = 1 << (10 * iota) // bytes
	KB                             // kilobytes (1024 B)
	MB                             // megabytes (1024 KB)
)

// Bytes converts n units into a byte count.
func (u SizeUnit) Bytes(n int64) int64 {
	return n * int64(u)
}

func (u SizeUnit) String() string {
	switch u {
	case B:
		return "B"
	case KB:
		return "KB"
	case MB:
		return "MB"
	default:
		return "B"
	}
}
