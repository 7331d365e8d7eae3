package buffer

// HeapAllocator produces ordinary Go-heap-backed buffers. Release is a
// no-op: the garbage collector reclaims the memory once the last Ref is
// dropped.
type HeapAllocator struct{}

func (HeapAllocator) Allocate(capacity int, owner Owner) *Ref {
	return newRef(make([]byte, capacity), false, owner, func([]byte) {})
}

func (HeapAllocator) IsDirect() bool { return false }
