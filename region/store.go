package region

import (
	"time"

	"github.com/google/btree"
	"github.com/gridcol/gridcol/columnkey"
)

type indexEntry struct {
	key columnkey.Key
}

func (e indexEntry) Less(other indexEntry) bool { return e.key.Less(other.key) }

// Store is the in-process reference RegionStore: an ordered key index
// (so "enumerate every column of a batch" is a bounded range scan) plus a
// disk-spill backend reached through a Recaller. It exists to exercise
// ColumnValue end-to-end in tests, not to be a production region engine
// (scheduling, replication, and bucket migration remain out of scope).
//
// Grounded on storage/persistence.go's PersistenceEngine boundary and
// sneller/erigon's general preference for an ordered index over a plain
// map when range queries matter.
type Store struct {
	index    *btree.BTreeG[indexEntry]
	recaller *Recaller
	codec    *uint8
}

// NewStore creates a Store backed by disk for spill recall. disk may be
// nil if the store is only ever used in-memory (recall then always
// reports ErrRegionDestroyed, matching spec.md E7).
func NewStore(disk DiskStore) *Store {
	s := &Store{index: btree.NewG(32, func(a, b indexEntry) bool { return a.Less(b) })}
	if disk != nil {
		s.recaller = NewRecaller(disk)
	}
	return s
}

// SetDeclaredCodec sets the region-wide default compression codec id used
// by ColumnValue.setDiskLocation when no codec has been chosen yet.
func (s *Store) SetDeclaredCodec(id uint8) { s.codec = &id }

func (s *Store) DeclaredCodec() (uint8, bool) {
	if s.codec == nil {
		return 0, false
	}
	return *s.codec, true
}

func (s *Store) RecordCompress(time.Duration)   {}
func (s *Store) RecordDecompress(time.Duration) {}

// Track records that key exists in this region, for bucket enumeration.
// It does not store the value itself: ColumnValue ownership lives with
// the caller (mirrors spec.md's "RegionStore... provides get-by-key,
// bucket enumeration" — the value payload is the caller's business).
func (s *Store) Track(key columnkey.Key) {
	s.index.ReplaceOrInsert(indexEntry{key: key})
}

// Untrack removes key from the bucket index, e.g. on eviction or delete.
func (s *Store) Untrack(key columnkey.Key) {
	s.index.Delete(indexEntry{key: key})
}

// EnumerateBatch returns every tracked key sharing (uuid, partitionId),
// in columnIndex order (DeleteMask first, per spec.md's "-3 must remain
// the numerically smallest" invariant).
func (s *Store) EnumerateBatch(uuid uint64, partitionID int32) []columnkey.Key {
	lo := indexEntry{key: columnkey.New(uuid, partitionID, columnkey.DeleteMask)}
	var out []columnkey.Key
	s.index.AscendGreaterOrEqual(lo, func(e indexEntry) bool {
		if e.key.UUID() != uuid || e.key.PartitionID() != partitionID {
			return false
		}
		out = append(out, e.key)
		return true
	})
	return out
}

// ReadFromDisk implements Context by delegating to the configured
// Recaller. With no disk backend configured, every recall reports
// ErrRegionDestroyed, which spec.md §4.C treats as "entry absent".
func (s *Store) ReadFromDisk(id columnkey.DiskID) ([]byte, error) {
	if s.recaller == nil {
		return nil, ErrRegionDestroyed
	}
	return s.recaller.Recall(id)
}
