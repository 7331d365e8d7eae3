package region

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sync/atomic"
)

// DeleteBitmap is a size-flexible, concurrency-safe bitmap tracking
// deleted row offsets within a batch, stored under columnkey.DeleteMask.
// Grounded on third_party/NonLockingReadMap/bitmap.go's
// NonBlockingBitMap: non-blocking reads via an atomic slice pointer,
// grow-on-write via compare-and-swap, reimplemented here against
// []uint64 rather than imported so region has no dependency on the rest
// of that package's map type.
type DeleteBitmap struct {
	words atomic.Pointer[[]uint64]
}

// NewDeleteBitmap returns an empty bitmap.
func NewDeleteBitmap() *DeleteBitmap { return &DeleteBitmap{} }

// Get reports whether row i is marked deleted.
func (b *DeleteBitmap) Get(i uint32) bool {
	ptr := b.words.Load()
	if ptr == nil {
		return false
	}
	words := *ptr
	idx := i >> 6
	if int(idx) >= len(words) {
		return false
	}
	return (words[idx]>>(i&63))&1 != 0
}

// Set marks or clears row i as deleted, growing the backing slice if
// needed.
func (b *DeleteBitmap) Set(i uint32, deleted bool) {
	var words []uint64
	for {
		ptr := b.words.Load()
		if ptr == nil {
			words = nil
		} else {
			words = *ptr
		}
		idx := int(i >> 6)
		if idx >= len(words) {
			grown := make([]uint64, idx+1)
			copy(grown, words)
			if b.words.CompareAndSwap(ptr, &grown) {
				continue
			}
			continue
		}
		break
	}
	for {
		ptr := b.words.Load()
		words = *ptr
		idx := i >> 6
		old := words[idx]
		var next uint64
		if deleted {
			next = old | (1 << (i & 63))
		} else {
			next = old &^ (1 << (i & 63))
		}
		if old == next {
			return
		}
		replacement := make([]uint64, len(words))
		copy(replacement, words)
		replacement[idx] = next
		if b.words.CompareAndSwap(ptr, &replacement) {
			return
		}
	}
}

// Count returns the number of rows currently marked deleted.
func (b *DeleteBitmap) Count() int {
	ptr := b.words.Load()
	if ptr == nil {
		return 0
	}
	n := 0
	for _, w := range *ptr {
		n += bits.OnesCount64(w)
	}
	return n
}

// EncodeDeleteMask serializes the bitmap as `u64 count ‖ bitmap bytes`
// (spec.md's "bitmap + count of deletes"): a little-endian uint64 holding
// the number of deleted rows, followed by the bitmap's backing words as
// little-endian uint64s. count is redundant with the bitmap bytes
// (recoverable via Count) but is carried explicitly so a reader can learn
// the delete count without scanning the whole bitmap.
func EncodeDeleteMask(b *DeleteBitmap) []byte {
	ptr := b.words.Load()
	var words []uint64
	if ptr != nil {
		words = *ptr
	}
	out := make([]byte, 8+8*len(words))
	binary.LittleEndian.PutUint64(out[0:8], uint64(b.Count()))
	for i, w := range words {
		binary.LittleEndian.PutUint64(out[8+8*i:8+8*i+8], w)
	}
	return out
}

// DecodeDeleteMask parses the format EncodeDeleteMask produces, verifying
// that the leading count matches the bitmap's actual population.
func DecodeDeleteMask(data []byte) (*DeleteBitmap, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("region: delete mask too short: %d bytes", len(data))
	}
	count := binary.LittleEndian.Uint64(data[0:8])
	rest := data[8:]
	if len(rest)%8 != 0 {
		return nil, fmt.Errorf("region: delete mask bitmap length not word-aligned: %d bytes", len(rest))
	}
	words := make([]uint64, len(rest)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(rest[8*i : 8*i+8])
	}
	b := &DeleteBitmap{}
	b.words.Store(&words)
	if got := uint64(b.Count()); got != count {
		return nil, fmt.Errorf("region: delete mask count mismatch: header says %d, bitmap has %d", count, got)
	}
	return b, nil
}
