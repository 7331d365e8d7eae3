// Package region provides a reference implementation of the RegionStore,
// StatsReader, and disk-spill collaborators that spec.md treats as
// external: a bucket-ordered entry index, pluggable disk-spill backends
// (file/S3/Ceph), and a singleflight-deduplicated recall path.
//
// Grounded on storage/persistence.go's PersistenceEngine contract
// (ReadColumn/WriteColumn/Remove, and its ErrorReader convention of
// turning "not found" into a sentinel rather than a panic).
package region

import (
	"errors"
	"time"

	"github.com/gridcol/gridcol/columnkey"
)

// Disk-recall errors. A ColumnValue.getValueRetain treats all of these as
// "entry absent" (spec.md §4.C step 3, §7): never propagated, always
// recovered into an ABSENT buffer.
var (
	ErrTombstone       = errors.New("region: entry is a tombstone")
	ErrEntryDestroyed  = errors.New("region: entry was destroyed")
	ErrDiskAccess      = errors.New("region: disk access error")
	ErrRegionDestroyed = errors.New("region: region was destroyed")
)

// IsAbsent reports whether err is one of the recoverable-as-absent disk
// recall errors spec.md §4.C/§7 lists.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrTombstone) ||
		errors.Is(err, ErrEntryDestroyed) ||
		errors.Is(err, ErrDiskAccess) ||
		errors.Is(err, ErrRegionDestroyed)
}

// Context is the non-owning back-reference a ColumnValue holds to its
// owning region, used for stats/memory accounting and disk recall. It
// must never be the only thing keeping a ColumnValue reachable (no
// ownership cycle); Store itself holds no ColumnValue references.
type Context interface {
	// ReadFromDisk returns the raw serialized payload (spec.md §6.2's
	// little-endian payload, leading-int included) previously written for
	// id, or one of the errors above if it cannot be recovered.
	ReadFromDisk(id columnkey.DiskID) ([]byte, error)
	// DeclaredCodec returns the region's configured compression codec, if
	// it declares one (setDiskLocation consults this to default codecId).
	DeclaredCodec() (codecID uint8, ok bool)
	// RecordCompress/RecordDecompress feed CachePerfStats-style timing
	// accounting; a nil region context (construction-time ColumnValue with
	// no owning region yet) means these are never called.
	RecordCompress(d time.Duration)
	RecordDecompress(d time.Duration)
}
