package value

import (
	"errors"
	"sync/atomic"
)

// Error kinds from spec.md §7. EntryAbsent is deliberately not a
// returned error: per the propagation policy it is recovered locally by
// GetValueRetain and surfaced only as an absent buffer.
var (
	ErrInvalidState = errors.New("value: invalid state")
	ErrBadArgument  = errors.New("value: bad argument")
	ErrLowMemory    = errors.New("value: low memory")
	ErrCorruptValue = errors.New("value: corrupt value")
	ErrIoTransient  = errors.New("value: io transient")
)

// CorruptionClamps counts occurrences of the open question in spec.md §9:
// state claims Compressed but the leading int is in fact non-negative.
// The implementation clamps to Decompressed(1) rather than failing the
// read, but every clamp increments this counter so operators can see it
// happening instead of it being silently masked.
var CorruptionClamps atomic.Int64
