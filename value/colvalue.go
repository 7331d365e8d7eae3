// Package value implements ColumnValue: the mutable container that owns
// a column-batch cell's bytes, cycling through a compressed/decompressed
// hysteresis state machine, spilling to and recalling from disk, and
// serializing to the header-embedded wire format in the wire package.
//
// Grounded directly on spec.md §4.C: the teacher has no close analog (a
// memcp column is always a decoded Scheme value, never a
// compressed-buffer-with-hysteresis), so this package is built in the
// teacher's idiom — a small mutex-guarded struct, an explicit state
// enum, fmt.Errorf-wrapped typed errors, concrete types over interfaces
// where a concrete type suffices — rather than adapted from one teacher
// file.
package value

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridcol/gridcol/buffer"
	"github.com/gridcol/gridcol/codec"
	"github.com/gridcol/gridcol/columnkey"
	"github.com/gridcol/gridcol/memory"
	"github.com/gridcol/gridcol/region"
)

// Value is a ColumnValue: a state machine over a buffer.Ref. The zero
// Value is not usable; construct one with New.
type Value struct {
	mu sync.Mutex

	buf      *buffer.Ref
	codecID  codec.ID
	state    State
	fromDisk bool

	hasDiskID bool
	diskID    columnkey.DiskID
	regionCtx region.Context

	refCount atomic.Int32

	storageAllocator buffer.Allocator
	scratchAllocator buffer.Allocator
	broker           *memory.Broker
}

// New returns a fresh, empty Value (ABSENT buffer, refCount 1) ready for
// SetBuffer. storageAllocator backs the buffer once it is placed in
// stable storage; scratchAllocator backs transient compress/decompress
// scratch buffers. broker may be nil, in which case memory accounting is
// skipped (suitable for tests and for values with no owning region yet).
func New(storageAllocator, scratchAllocator buffer.Allocator, broker *memory.Broker) *Value {
	v := &Value{
		state:            NotCompressible,
		storageAllocator: storageAllocator,
		scratchAllocator: scratchAllocator,
		broker:           broker,
	}
	v.refCount.Store(1)
	return v
}

// RefCount returns the container-level reference count, for diagnostics
// and tests.
func (v *Value) RefCount() int32 { return v.refCount.Load() }

// Retain increments the container-level reference count if it is still
// above zero, mirroring buffer.Ref.Retain's contract.
func (v *Value) Retain() bool {
	for {
		n := v.refCount.Load()
		if n <= 0 {
			return false
		}
		if v.refCount.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release decrements the container-level reference count. When it
// reaches zero, the backing buffer is released back to its allocator
// (ReleaseBuffer).
func (v *Value) Release() {
	n := v.refCount.Add(-1)
	if n < 0 {
		panic("value: release without matching retain")
	}
	if n == 0 {
		v.ReleaseBuffer()
	}
}

// State returns the current compression state, for diagnostics and tests.
func (v *Value) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// IsAbsent reports whether the value currently holds no buffer.
func (v *Value) IsAbsent() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buf == nil
}

// FromDisk reports whether the current buffer was materialized from a
// disk recall rather than written directly by a producer.
func (v *Value) FromDisk() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fromDisk
}

// SetBuffer installs buf as the value's payload. Pre: refCount must be 1
// (freshly constructed or freshly recalled). If transferOwnership, buf is
// moved into the storage allocator under the storage owner tag first.
func (v *Value) SetBuffer(buf *buffer.Ref, codecID codec.ID, isCompressed bool, transferOwnership bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.refCount.Load() != 1 {
		return ErrInvalidState
	}
	if transferOwnership {
		moved := buf.TransferTo(v.storageAllocator, buffer.OwnerStorage)
		buf.Release()
		buf = moved
	}
	v.buf = buf
	v.codecID = codecID
	v.fromDisk = false
	if isCompressed {
		v.state = Compressed
	} else {
		v.state = Decompressed(1)
	}
	return nil
}

// SetDiskLocation records the disk handle for this value's persistent
// copy. If ctx is non-nil and declares a compression codec, codecID is
// updated to match. Idempotent.
func (v *Value) SetDiskLocation(id columnkey.DiskID, ctx region.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hasDiskID = true
	v.diskID = id
	if ctx != nil {
		v.regionCtx = ctx
		if id, ok := ctx.DeclaredCodec(); ok {
			v.codecID = codec.ID(id)
		}
	}
}

// GetValueRetain retrieves a retained view of the value, optionally
// decompressing or compressing on the way out. decompress and compress
// are mutually exclusive. On success the caller owns one logical
// reference on the returned Value and must call Release on every exit
// path; on error no Value is returned and there is nothing to release. If
// the in-memory buffer has been evicted, this recalls it from disk via
// the region context captured at SetDiskLocation time; recall failures
// are recovered as an absent buffer rather than propagated (spec.md §4.C
// step 3).
func (v *Value) GetValueRetain(decompress, compress bool) (*Value, error) {
	if decompress && compress {
		return nil, ErrBadArgument
	}

	v.mu.Lock()
	present := v.buf != nil
	v.mu.Unlock()

	if present && v.Retain() {
		return v.transform(decompress, compress)
	}

	v.mu.Lock()
	diskID, hasDiskID, ctx := v.diskID, v.hasDiskID, v.regionCtx
	v.mu.Unlock()

	// An absent result still hands the caller one logical reference, so the
	// caller's Release stays balanced.
	if !hasDiskID || ctx == nil {
		v.refCount.Add(1)
		return v, nil
	}

	data, err := ctx.ReadFromDisk(diskID)
	if err != nil {
		if region.IsAbsent(err) {
			v.refCount.Add(1)
			return v, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrIoTransient, err)
	}

	recalled, err := decodePayload(data, v.storageAllocator, buffer.OwnerStorage)
	if err != nil {
		return nil, err
	}

	// Double-checked install: another goroutine may have recalled (or
	// otherwise installed) a buffer while we were reading from disk.
	// Re-check under the lock and only install our speculative decode if
	// the value is still absent; otherwise discard it and retain the
	// buffer that won the race instead, keeping the absent-check and
	// install atomic (spec.md §4.C step 3, §5).
	v.mu.Lock()
	if v.buf != nil {
		retained := v.Retain()
		v.mu.Unlock()
		recalled.buf.Release()
		if !retained {
			// Lost the race against a concurrent eviction too: recurse to
			// either observe the now-current buffer or recall again.
			return v.GetValueRetain(decompress, compress)
		}
		return v.transform(decompress, compress)
	}

	v.buf = recalled.buf
	v.state = recalled.state
	v.codecID = recalled.codecID
	v.fromDisk = true
	v.refCount.Store(1)
	v.mu.Unlock()
	// The freshly recalled entry's container refCount was just reset to 1;
	// that is the logical reference this call promises its caller.
	return v.transform(decompress, compress)
}

// transform applies decompress/compress to the logical reference
// GetValueRetain just acquired. On success it releases that reference on
// v if a distinct Value is returned in its place; on error it releases
// the reference unconditionally and returns (nil, err), so callers never
// need to Release a Value accompanied by a non-nil error.
func (v *Value) transform(decompress, compress bool) (*Value, error) {
	var (
		out *Value
		err error
	)
	switch {
	case decompress:
		out, err = v.decompressValue()
	case compress:
		out, err = v.compressValue()
	default:
		out, err = v, nil
	}
	if err != nil {
		out.Release()
		return nil, err
	}
	if out != v {
		v.Release()
	}
	return out, nil
}

func leadingInt(buf *buffer.Ref) int32 {
	bytes := buf.Duplicate().Bytes()
	return int32(uint32(bytes[0]) | uint32(bytes[1])<<8 | uint32(bytes[2])<<16 | uint32(bytes[3])<<24)
}

// decompressValue implements spec.md §4.C's decompressValue operation.
func (v *Value) decompressValue() (*Value, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != Compressed {
		if v.state.IsDecompressed() && v.state != Decompressed(1) {
			v.state = Decompressed(1)
		}
		return v, nil
	}

	leading := leadingInt(v.buf)
	if leading >= 0 {
		CorruptionClamps.Add(1)
		v.state = Decompressed(1)
		return v, nil
	}

	codecID := codec.ID(-leading)
	c, ok := codec.Get(codecID)
	if !ok {
		return v, fmt.Errorf("%w: unknown codec id %d", ErrCorruptValue, codecID)
	}

	payload := v.buf.Duplicate().Bytes()
	start := time.Now()
	decoded, err := c.Decompress(payload[4:])
	if v.regionCtx != nil {
		v.regionCtx.RecordDecompress(time.Since(start))
	}
	if err != nil {
		return v, fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}

	scratch := v.scratchAllocator.Allocate(len(decoded), buffer.OwnerDecompression)
	copy(scratch.Bytes(), decoded)

	replace := !v.buf.IsDirect() || v.refCount.Load() <= 2
	if replace {
		if v.broker != nil && !v.fromDisk {
			delta := int64(scratch.Capacity() - v.buf.Capacity())
			if delta > 0 && !v.broker.Acquire(delta) {
				scratch.Release()
				return v, ErrLowMemory
			}
		}
		newBuf := scratch.TransferTo(v.storageAllocator, buffer.OwnerStorage)
		scratch.Release()
		old := v.buf
		v.buf = newBuf
		v.state = Decompressed(1)
		v.fromDisk = false
		if old.IsDirect() {
			old.Release()
		}
		return v, nil
	}

	newBuf := scratch.TransferTo(v.storageAllocator, buffer.OwnerDecompression)
	scratch.Release()
	nv := &Value{
		buf:              newBuf,
		codecID:          v.codecID,
		state:            Decompressed(1),
		storageAllocator: v.storageAllocator,
		scratchAllocator: v.scratchAllocator,
		broker:           v.broker,
		regionCtx:        v.regionCtx,
	}
	nv.refCount.Store(1)
	return nv, nil
}

// compressValue implements spec.md §4.C's compressValue operation,
// including the consecutive-compressions hysteresis.
func (v *Value) compressValue() (*Value, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state <= Compressed {
		return v, nil
	}
	if v.codecID == codec.None {
		return v, nil
	}

	c := codec.MustGet(v.codecID)
	payload := v.buf.Duplicate().Bytes()
	start := time.Now()
	compressed, ok := c.Compress(payload)
	if v.regionCtx != nil {
		v.regionCtx.RecordCompress(time.Since(start))
	}
	if !ok {
		v.state = NotCompressible
		return v, nil
	}

	scratch := v.scratchAllocator.Allocate(len(compressed)+4, buffer.OwnerScratch)
	writeLeadingInt(scratch, -int32(v.codecID))
	copy(scratch.Bytes()[4:], compressed)

	exceeded := v.state.ConsecutiveCompressions() > MaxConsecutiveCompressions
	replace := exceeded && (!v.buf.IsDirect() || v.refCount.Load() <= 2)
	if replace {
		final := placeCompressed(scratch, v.storageAllocator)
		old := v.buf
		freed := int64(old.Capacity() - final.Capacity())
		v.buf = final
		v.state = Compressed
		if old.IsDirect() {
			old.Release()
		}
		if v.broker != nil && freed > 0 {
			v.broker.Release(freed)
		}
		return v, nil
	}

	v.state = Decompressed(v.state.ConsecutiveCompressions() + 1)
	nv := &Value{
		buf:              scratch,
		codecID:          v.codecID,
		state:            Compressed,
		storageAllocator: v.storageAllocator,
		scratchAllocator: v.scratchAllocator,
		broker:           v.broker,
		regionCtx:        v.regionCtx,
	}
	nv.refCount.Store(1)
	return nv, nil
}

// placeCompressed finalizes a compressed scratch buffer: a trim threshold
// of 32 bytes of unused capacity (spec.md §6.4) triggers a compact copy,
// otherwise the scratch buffer is transferred into storage ownership.
func placeCompressed(scratch *buffer.Ref, storage buffer.Allocator) *buffer.Ref {
	slack := scratch.Capacity() - scratch.Limit()
	if slack >= 32 {
		trimmed := storage.Allocate(scratch.Limit(), buffer.OwnerStorage)
		copy(trimmed.Bytes(), scratch.Bytes())
		scratch.Release()
		return trimmed
	}
	moved := scratch.TransferTo(storage, buffer.OwnerStorage)
	scratch.Release()
	return moved
}

func writeLeadingInt(buf *buffer.Ref, v int32) {
	b := buf.Bytes()
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

// ReleaseBuffer implements spec.md §4.C's releaseBuffer, invoked when the
// container-level refCount drops to zero.
func (v *Value) ReleaseBuffer() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.buf == nil {
		return
	}
	if v.buf.IsDirect() {
		v.buf.Release()
	}
	v.buf = nil
	v.state = NotCompressible
	v.fromDisk = false
}
