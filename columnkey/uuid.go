package columnkey

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var batchCounter uint64 = uint64(time.Now().UnixNano())

// NewBatchUUID returns a process-unique uuid suitable as the uuid component
// of a Key. It is not cryptographically random: it is a monotonic atomic
// counter seeded from the wall clock at process start, so row-batch ids
// never collide within one process without paying for crypto/rand on the
// hot insert path.
func NewBatchUUID() uint64 {
	return atomic.AddUint64(&batchCounter, 1)
}

// DiskID is an opaque handle to the persistent copy of a ColumnValue's
// buffer, stored by ColumnValue.setDiskLocation and consumed by the
// RegionStore's disk-read primitive.
type DiskID struct {
	id uuid.UUID
}

// NewDiskID mints a fresh disk handle.
func NewDiskID() DiskID {
	return DiskID{id: uuid.New()}
}

// DiskIDFromString parses a previously-serialized disk handle.
func DiskIDFromString(s string) (DiskID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DiskID{}, err
	}
	return DiskID{id: id}, nil
}

func (d DiskID) String() string { return d.id.String() }

func (d DiskID) IsZero() bool { return d.id == uuid.Nil }
