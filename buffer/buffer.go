// Package buffer implements a reference-counted handle over a contiguous
// byte region, with explicit retain/release and ownership transfer between
// heap and off-heap ("direct") allocators.
//
// The retain/release discipline and the cleanup-exactly-once-at-zero shape
// follow storage/blob-refcount.go's mutex-guarded counter in the teacher
// repository; the direct allocator is grounded on sneller's vm/malloc.go.
package buffer

import (
	"sync"
	"sync/atomic"
)

// Owner is the accounting identity attached to an off-heap allocation. A
// transfer changes the tag atomically without necessarily copying bytes.
type Owner uint8

const (
	OwnerStorage Owner = iota
	OwnerDecompression
	OwnerScratch
)

func (o Owner) String() string {
	switch o {
	case OwnerStorage:
		return "storage"
	case OwnerDecompression:
		return "decompression"
	case OwnerScratch:
		return "scratch"
	default:
		return "unknown"
	}
}

// DirectObjectOverhead approximates the per-allocation bookkeeping cost of
// an off-heap region (cleaner struct + allocator metadata), used by size
// accounting.
const DirectObjectOverhead = 48

// Allocator allocates byte regions, optionally off-heap ("direct").
// Ownership of a direct allocation is tracked by an Owner tag so it can be
// moved between pools without a copy.
type Allocator interface {
	// Allocate returns a fresh BufferRef of the given capacity, retained
	// once (refCount starts at 1), tagged with owner.
	Allocate(capacity int, owner Owner) *Ref
	// IsDirect reports whether this allocator produces off-heap buffers.
	IsDirect() bool
}

// Ref is a reference-counted view over one contiguous byte region. The
// zero Ref is not usable; construct one via an Allocator.
type Ref struct {
	mu       sync.Mutex
	data     []byte
	position int
	limit    int
	refCount atomic.Int32
	direct   bool
	owner    Owner
	release1 func([]byte) // returns the backing memory to its allocator; nil for heap

	released atomic.Bool
}

func newRef(data []byte, direct bool, owner Owner, release1 func([]byte)) *Ref {
	r := &Ref{
		data:     data,
		position: 0,
		limit:    len(data),
		direct:   direct,
		owner:    owner,
		release1: release1,
	}
	r.refCount.Store(1)
	return r
}

// IsDirect reports whether the buffer is backed by off-heap memory.
func (r *Ref) IsDirect() bool { return r.direct }

// Owner returns the current accounting owner tag.
func (r *Ref) Owner() Owner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// Capacity returns the full backing length, independent of position/limit.
func (r *Ref) Capacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Position returns the current read cursor.
func (r *Ref) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Limit returns the current read limit.
func (r *Ref) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// Bytes returns the slice between position and limit. Callers must hold a
// retain; calling Bytes without a prior successful Retain is undefined, per
// spec.
func (r *Ref) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data[r.position:r.limit]
}

// Retain atomically increments the reference count if it is still above
// zero. It returns false if the ref has already hit zero (lost the race
// with eviction/release) and never panics.
func (r *Ref) Retain() bool {
	for {
		n := r.refCount.Load()
		if n <= 0 {
			return false
		}
		if r.refCount.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// RefCount returns the current reference count for diagnostics/tests.
func (r *Ref) RefCount() int32 { return r.refCount.Load() }

// Release decrements the reference count. If it reaches zero and the
// buffer is off-heap, the backing memory is returned to its allocator
// exactly once. Heap buffers are left for the garbage collector.
func (r *Ref) Release() {
	n := r.refCount.Add(-1)
	if n < 0 {
		panic("buffer: release without matching retain")
	}
	if n == 0 && r.direct {
		if r.released.CompareAndSwap(false, true) {
			r.release1(r.data)
		}
	}
}

// View is an independent read cursor over the bytes of a Ref. It does not
// hold its own reference count: callers retain the underlying Ref
// separately if it must outlive the current retain window.
type View struct {
	data []byte
}

// Bytes returns the view's contents.
func (v View) Bytes() []byte { return v.data }

// Duplicate returns an independent read cursor over the same bytes. If the
// source position is 0 a cheap duplicate suffices; otherwise a slice
// starting at position is produced. The result always has position 0.
func (r *Ref) Duplicate() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.position == 0 {
		return View{data: r.data[:r.limit]}
	}
	return View{data: r.data[r.position:r.limit]}
}

// SetBounds updates position/limit, e.g. after peeking a header.
func (r *Ref) SetBounds(position, limit int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = position
	r.limit = limit
}

// TransferTo moves this buffer's backing storage to another allocator,
// transferring accounting ownership. The bytes between position and limit
// are always copied into a fresh allocation from dst tagged with owner.
// The original Ref keeps its data and refCount; callers release it
// themselves.
func (r *Ref) TransferTo(dst Allocator, owner Owner) *Ref {
	r.mu.Lock()
	bytes := make([]byte, r.limit-r.position)
	copy(bytes, r.data[r.position:r.limit])
	r.mu.Unlock()

	out := dst.Allocate(len(bytes), owner)
	copy(out.data, bytes)
	return out
}

// SetOwner updates the owner tag in place, used when a buffer is kept but
// its accounting identity changes (e.g. scratch -> storage).
func (r *Ref) SetOwner(owner Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owner = owner
}
