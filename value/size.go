package value

import "github.com/gridcol/gridcol/buffer"

// containerOverhead approximates the fixed per-object cost of a Value
// struct plus its mutex and atomic fields, independent of any buffer.
const containerOverhead = 56

// SizeInBytes returns a synthetic estimate of the container's footprint,
// stable across calls for the same logical state and valid even after
// ReleaseBuffer (spec.md §4.F): container overhead, plus — while a
// buffer is attached — its capacity and, for an off-heap buffer,
// DirectObjectOverhead. No separate overhead is added for the buffer
// wrapper of a heap buffer.
func (v *Value) SizeInBytes() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	total := int64(containerOverhead)
	if v.buf == nil {
		return total
	}
	total += int64(v.buf.Capacity())
	if v.buf.IsDirect() {
		total += buffer.DirectObjectOverhead
	}
	return total
}

// OffHeapSizeInBytes returns capacity + DirectObjectOverhead for an
// off-heap buffer, or 0 if the buffer is absent or heap-backed.
func (v *Value) OffHeapSizeInBytes() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.buf == nil || !v.buf.IsDirect() {
		return 0
	}
	return int64(v.buf.Capacity()) + buffer.DirectObjectOverhead
}
