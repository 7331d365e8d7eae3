package region

import "github.com/gridcol/gridcol/columnkey"

// StatsReader is the external collaborator spec.md lists alongside
// RegionStore: it answers per-batch cardinality/size questions without
// requiring a caller to decompress every ColumnValue in the batch.
// gridcol treats it as a contract only — no query planner consumes it
// here — but a reference counter-based implementation is provided so
// Store callers have something to wire eviction stats into.
type StatsReader interface {
	// RowCount returns the number of live (non-deleted) rows tracked for
	// the batch identified by (uuid, partitionId), or false if unknown.
	RowCount(uuid uint64, partitionID int32) (count int64, ok bool)
	// OffHeapBytes returns the combined off-heap footprint of every
	// ColumnValue currently tracked for the batch, or false if unknown.
	OffHeapBytes(uuid uint64, partitionID int32) (bytes int64, ok bool)
}

// CountingStats is a minimal StatsReader backed by explicitly recorded
// row counts and byte-size reports, with OffHeapBytes summing over the
// keys a Store enumerates for the batch, sufficient for tests that need
// to observe eviction/compression effects on batch size without a full
// statistics engine.
type CountingStats struct {
	store *Store
	masks map[columnkey.Key]*DeleteBitmap
	sizes map[columnkey.Key]int64
	rows  map[columnkey.Key]int64
}

// NewCountingStats returns a StatsReader that reports whatever has been
// recorded via RecordRowCount/RecordBytes.
func NewCountingStats(store *Store) *CountingStats {
	return &CountingStats{
		store: store,
		masks: make(map[columnkey.Key]*DeleteBitmap),
		sizes: make(map[columnkey.Key]int64),
		rows:  make(map[columnkey.Key]int64),
	}
}

// RecordRowCount records the live row count for one batch's delete mask
// key.
func (c *CountingStats) RecordRowCount(uuid uint64, partitionID int32, rows int64) {
	c.rows[columnkey.New(uuid, partitionID, columnkey.DeleteMask)] = rows
}

// RecordBytes adds delta to the tracked off-heap byte total for one
// column's key, used when a ColumnValue compresses/decompresses/spills.
func (c *CountingStats) RecordBytes(key columnkey.Key, delta int64) {
	c.sizes[key] += delta
}

func (c *CountingStats) RowCount(uuid uint64, partitionID int32) (int64, bool) {
	v, ok := c.rows[columnkey.New(uuid, partitionID, columnkey.DeleteMask)]
	return v, ok
}

func (c *CountingStats) OffHeapBytes(uuid uint64, partitionID int32) (int64, bool) {
	var total int64
	found := false
	for _, key := range c.store.EnumerateBatch(uuid, partitionID) {
		if v, ok := c.sizes[key]; ok {
			total += v
			found = true
		}
	}
	return total, found
}
