/*
Package sizeof estimates the in-memory byte size of arbitrary values.

It is the pricing oracle for the size-based cache: a pure, deterministic
function of a value's structure and contents, including nested
containers and struct fields. It has no side effects.

The numbers are ESTIMATES. Shared backing arrays, interning, allocator
rounding and map bucket overhead make exact accounting impossible from
the outside; what matters for capacity budgeting is that the same value
always prices the same, and that bigger payloads price bigger.
*/
package sizeof

import "reflect"

// Of returns the estimated deep size of v in bytes.
// Cyclic structures are handled: each pointer target is charged once.
func Of(v any) int64 {
	if v == nil {
		return 0
	}
	seen := make(map[uintptr]struct{})
	return sizeOf(reflect.ValueOf(v), seen)
}

func sizeOf(v reflect.Value, seen map[uintptr]struct{}) int64 {
	switch v.Kind() {

	case reflect.String:
		// Header plus payload bytes.
		return int64(v.Type().Size()) + int64(v.Len())

	case reflect.Slice:
		if v.IsNil() {
			return int64(v.Type().Size())
		}
		size := int64(v.Type().Size())
		for i := 0; i < v.Len(); i++ {
			size += sizeOf(v.Index(i), seen)
		}
		return size

	case reflect.Array:
		var size int64
		for i := 0; i < v.Len(); i++ {
			size += sizeOf(v.Index(i), seen)
		}
		return size

	case reflect.Map:
		if v.IsNil() {
			return int64(v.Type().Size())
		}
		size := int64(v.Type().Size())
		iter := v.MapRange()
		for iter.Next() {
			size += sizeOf(iter.Key(), seen)
			size += sizeOf(iter.Value(), seen)
		}
		return size

	case reflect.Pointer:
		if v.IsNil() {
			return int64(v.Type().Size())
		}
		addr := v.Pointer()
		if _, ok := seen[addr]; ok {
			// Already charged; only the pointer itself counts.
			return int64(v.Type().Size())
		}
		seen[addr] = struct{}{}
		return int64(v.Type().Size()) + sizeOf(v.Elem(), seen)

	case reflect.Struct:
		var size int64
		for i := 0; i < v.NumField(); i++ {
			size += sizeOf(v.Field(i), seen)
		}
		return size

	case reflect.Interface:
		if v.IsNil() {
			return int64(v.Type().Size())
		}
		return int64(v.Type().Size()) + sizeOf(v.Elem(), seen)

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		// Opaque handles: charge the header only.
		return int64(v.Type().Size())

	default:
		// Fixed-size kinds: numbers, bool, complex.
		return int64(v.Type().Size())
	}
}

// Estimator adapts Of to the cache's SizeEstimator contract for any
// value type. This is the default oracle of the size-based cache.
type Estimator[V any] struct{}

func (Estimator[V]) EstimateSizeInBytes(value V) int64 {
	return Of(value)
}
