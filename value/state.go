package value

// State encodes the ColumnValue compression state machine as a tagged
// enum rather than a magic byte, per spec.md's design note: NotCompressible
// is sticky until an explicit SetBuffer, Compressed carries no count, and
// Decompressed(n) is one more than the number of compress calls skipped
// since the last SetBuffer or real decompression (the hysteresis counter).
type State int32

const (
	// NotCompressible means a prior CompressValue call did not shrink the
	// payload; sticky until SetBuffer resets the value.
	NotCompressible State = -1
	// Compressed means the leading little-endian i32 in the buffer is
	// negative (-codecId).
	Compressed State = 0
)

// Decompressed returns the decompressed state with hysteresis counter n:
// Decompressed(1) right after SetBuffer or a real decompression, one
// higher for each compress call that left the buffer in place. n must be
// >= 1.
func Decompressed(n int32) State { return State(n) }

// IsDecompressed reports whether s represents a decompressed buffer
// (Decompressed(n) for any n >= 1).
func (s State) IsDecompressed() bool { return s >= 1 }

// IsCompressed reports whether s is exactly Compressed.
func (s State) IsCompressed() bool { return s == Compressed }

// IsNotCompressible reports whether s is the sticky NotCompressible state.
func (s State) IsNotCompressible() bool { return s == NotCompressible }

// ConsecutiveCompressions returns n for Decompressed(n), or 0 otherwise.
func (s State) ConsecutiveCompressions() int32 {
	if s.IsDecompressed() {
		return int32(s)
	}
	return 0
}

func (s State) String() string {
	switch {
	case s == NotCompressible:
		return "NotCompressible"
	case s == Compressed:
		return "Compressed"
	default:
		return "Decompressed"
	}
}

// MaxConsecutiveCompressions is the hysteresis threshold (spec.md §6.4):
// a decompressed buffer survives this many compress calls without being
// physically recompressed, provided no other reader is retaining it.
const MaxConsecutiveCompressions = 2
