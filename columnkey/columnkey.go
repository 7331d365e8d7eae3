// Package columnkey implements the composite key that addresses one
// column of one row-batch of one partition: (uuid, partitionId, columnIndex).
package columnkey

import (
	"encoding/binary"
	"io"
)

// Reserved columnIndex values. DeleteMask must stay the numerically
// smallest of the three: some index arithmetic in the region engine
// depends on it.
const (
	StatsRow      int32 = -1
	DeltaStatsRow int32 = -2
	DeleteMask    int32 = -3
)

// Key identifies one column-batch cell. Immutable after construction.
type Key struct {
	uuid        uint64
	partitionID int32
	columnIndex int32
}

// New builds a Key from its three components.
func New(uuid uint64, partitionID, columnIndex int32) Key {
	return Key{uuid: uuid, partitionID: partitionID, columnIndex: columnIndex}
}

func (k Key) UUID() uint64        { return k.uuid }
func (k Key) PartitionID() int32  { return k.partitionID }
func (k Key) ColumnIndex() int32  { return k.columnIndex }

// WithColumnIndex returns a new Key sharing uuid and partitionId.
func (k Key) WithColumnIndex(columnIndex int32) Key {
	return Key{uuid: k.uuid, partitionID: k.partitionID, columnIndex: columnIndex}
}

// RoutingObject returns the partition routing object for the region engine.
func (k Key) RoutingObject() int32 { return k.partitionID }

// Hash depends only on (uuid, partitionId), never on columnIndex, so an
// iterator seeking all columns of one batch gets hash-colocation.
func (k Key) Hash() uint64 {
	h := k.uuid*1099511628211 ^ uint64(uint32(k.partitionID))
	// final mix (MurmurHash3 fmix64 finalizer) to spread low-entropy partition ids
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// Equal compares all three components.
func (k Key) Equal(other Key) bool {
	return k.uuid == other.uuid && k.partitionID == other.partitionID && k.columnIndex == other.columnIndex
}

// Less orders keys by (uuid, partitionId, columnIndex), used by the
// reference region index to keep all columns of a batch contiguous.
func (k Key) Less(other Key) bool {
	if k.uuid != other.uuid {
		return k.uuid < other.uuid
	}
	if k.partitionID != other.partitionID {
		return k.partitionID < other.partitionID
	}
	return k.columnIndex < other.columnIndex
}

// EncodedSize is the fixed wire/disk size of a Key.
const EncodedSize = 8 + 4 + 4

// WriteTo writes the big-endian 16-byte encoding: u64 uuid, i32 partitionId,
// i32 columnIndex.
func (k Key) WriteTo(w io.Writer) (int64, error) {
	var buf [EncodedSize]byte
	binary.BigEndian.PutUint64(buf[0:8], k.uuid)
	binary.BigEndian.PutUint32(buf[8:12], uint32(k.partitionID))
	binary.BigEndian.PutUint32(buf[12:16], uint32(k.columnIndex))
	n, err := w.Write(buf[:])
	return int64(n), err
}

// ReadFrom decodes a Key from its 16-byte big-endian encoding.
func ReadFrom(r io.Reader) (Key, error) {
	var buf [EncodedSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Key{}, err
	}
	return Key{
		uuid:        binary.BigEndian.Uint64(buf[0:8]),
		partitionID: int32(binary.BigEndian.Uint32(buf[8:12])),
		columnIndex: int32(binary.BigEndian.Uint32(buf[12:16])),
	}, nil
}
