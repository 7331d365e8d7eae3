package columnkey

import (
	"bytes"
	"testing"
)

func TestHashDependsOnlyOnUUIDAndPartition(t *testing.T) {
	a := New(42, 7, 0)
	b := New(42, 7, StatsRow)
	c := New(42, 7, 3)
	if a.Hash() != b.Hash() || a.Hash() != c.Hash() {
		t.Fatalf("expected colocated keys to hash identically: %d %d %d", a.Hash(), b.Hash(), c.Hash())
	}
	d := New(42, 8, 0)
	if a.Hash() == d.Hash() {
		t.Fatal("expected a different partitionId to hash differently")
	}
}

func TestEqualsIsComponentwise(t *testing.T) {
	a := New(1, 2, 3)
	b := New(1, 2, 3)
	if !a.Equal(b) {
		t.Fatal("expected identical keys to be equal")
	}
	for _, other := range []Key{New(9, 2, 3), New(1, 9, 3), New(1, 2, 9)} {
		if a.Equal(other) {
			t.Fatalf("expected %v to not equal %v", a, other)
		}
	}
}

func TestWithColumnIndexPreservesRoutingComponents(t *testing.T) {
	a := New(1, 2, 3)
	b := a.WithColumnIndex(DeltaStatsRow)
	if b.UUID() != a.UUID() || b.PartitionID() != a.PartitionID() {
		t.Fatal("expected WithColumnIndex to preserve uuid/partitionId")
	}
	if b.ColumnIndex() != DeltaStatsRow {
		t.Fatalf("expected columnIndex %d, got %d", DeltaStatsRow, b.ColumnIndex())
	}
}

func TestRoutingObjectIsPartitionID(t *testing.T) {
	k := New(1, 77, 0)
	if k.RoutingObject() != 77 {
		t.Fatalf("expected routing object 77, got %d", k.RoutingObject())
	}
}

func TestDeleteMaskIsNumericallySmallestReservedIndex(t *testing.T) {
	if !(DeleteMask < DeltaStatsRow && DeltaStatsRow < StatsRow && StatsRow < 0) {
		t.Fatalf("expected DeleteMask < DeltaStatsRow < StatsRow < 0, got %d %d %d", DeleteMask, DeltaStatsRow, StatsRow)
	}
}

func TestWireRoundTrip(t *testing.T) {
	k := New(0xdeadbeefcafef00d, -5, 12)
	var buf bytes.Buffer
	n, err := k.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != EncodedSize {
		t.Fatalf("expected %d bytes written, got %d", EncodedSize, n)
	}
	decoded, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if !decoded.Equal(k) {
		t.Fatalf("expected round-tripped key %v to equal original %v", decoded, k)
	}
}

func TestWireFormatIsBigEndian(t *testing.T) {
	k := New(1, 0, 0)
	var buf bytes.Buffer
	if _, err := k.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := []byte{0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("expected big-endian encoding %v, got %v", want, buf.Bytes())
	}
}

func TestLessOrdersByUUIDThenPartitionThenColumnIndex(t *testing.T) {
	keys := []Key{
		New(1, 1, DeleteMask),
		New(1, 1, 0),
		New(1, 5, 0),
		New(2, 0, 0),
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if !keys[i].Less(keys[j]) {
				t.Fatalf("expected keys[%d]=%v < keys[%d]=%v", i, keys[i], j, keys[j])
			}
		}
	}
}

func TestNewBatchUUIDIsProcessUnique(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		id := NewBatchUUID()
		if seen[id] {
			t.Fatalf("collision on NewBatchUUID at iteration %d", i)
		}
		seen[id] = true
	}
}

func TestDiskIDRoundTrip(t *testing.T) {
	id := NewDiskID()
	if id.IsZero() {
		t.Fatal("expected fresh DiskID to not be zero")
	}
	parsed, err := DiskIDFromString(id.String())
	if err != nil {
		t.Fatalf("DiskIDFromString: %v", err)
	}
	if parsed.String() != id.String() {
		t.Fatalf("expected round-tripped DiskID to match: %s != %s", parsed.String(), id.String())
	}
}
