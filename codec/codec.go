// Package codec wraps third-party compression libraries behind the
// stateless Compress/Decompress contract spec.md §4.E requires, with a
// small registry keyed by the wire codec id (spec.md §6.3).
//
// Grounded on sneller's compr/compression.go, which wraps
// klauspost/compress/s2 and klauspost/compress/zstd behind a Name()-keyed
// Compressor/Decompressor pair; extended here with LZ4 (pierrec/lz4) and
// XZ (ulikunitz/xz), both already present in the teacher's dependency
// tree (XZ via scm/streams.go, LZ4 as an unused go.mod entry).
package codec

import "fmt"

// ID is the wire codec id (spec.md §6.3). The sign of the leading int in a
// serialized ColumnValue payload is -ID when compressed.
type ID uint8

const (
	None ID = 0
	LZ4  ID = 1
	XZ   ID = 2
	S2   ID = 3
	Zstd ID = 4
)

func (id ID) String() string {
	switch id {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case XZ:
		return "xz"
	case S2:
		return "s2"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(id))
	}
}

// IsCompressed reports whether id names a codec that actually compresses
// the payload (as opposed to None, which is a pass-through).
func IsCompressed(id ID) bool { return id != None }

// Codec is the stateless compress/decompress contract a ColumnValue uses.
// Implementations must be safe for concurrent use by multiple goroutines.
type Codec interface {
	ID() ID
	// Compress returns the compressed form of src in a new slice.
	// Implementations may return src unchanged
	// (ok=false) when compression would not improve below the codec's
	// shrink-ratio threshold.
	Compress(src []byte) (out []byte, ok bool)
	// Decompress decompresses src into a freshly allocated buffer.
	Decompress(src []byte) ([]byte, error)
}

var registry = map[ID]Codec{
	None: noneCodec{},
	LZ4:  lz4Codec{},
	XZ:   xzCodec{},
	S2:   s2Codec{},
	Zstd: zstdCodec{},
}

// Get returns the codec registered for id, or (nil, false) if unknown.
func Get(id ID) (Codec, bool) {
	c, ok := registry[id]
	return c, ok
}

// MustGet is like Get but panics on an unknown id; used where the id was
// already validated (e.g. decoded from a ColumnValue whose codec was set
// by a prior setBuffer on the same process).
func MustGet(id ID) Codec {
	c, ok := Get(id)
	if !ok {
		panic(fmt.Sprintf("codec: unknown codec id %d", uint8(id)))
	}
	return c
}

type noneCodec struct{}

func (noneCodec) ID() ID { return None }
func (noneCodec) Compress(src []byte) ([]byte, bool) {
	return src, false
}
func (noneCodec) Decompress(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}
