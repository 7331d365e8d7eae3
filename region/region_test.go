package region

import (
	"errors"
	"os"
	"testing"

	"github.com/gridcol/gridcol/columnkey"
)

func TestStoreEnumerateBatchOrdersDeleteMaskFirst(t *testing.T) {
	s := NewStore(nil)
	s.Track(columnkey.New(7, 1, 0))
	s.Track(columnkey.New(7, 1, 2))
	s.Track(columnkey.New(7, 1, columnkey.DeleteMask))
	s.Track(columnkey.New(7, 2, 0)) // different partition, must not appear

	keys := s.EnumerateBatch(7, 1)
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(keys))
	}
	if keys[0].ColumnIndex() != columnkey.DeleteMask {
		t.Fatalf("expected delete mask first, got columnIndex %d", keys[0].ColumnIndex())
	}
}

func TestStoreUntrackRemovesFromEnumeration(t *testing.T) {
	s := NewStore(nil)
	key := columnkey.New(1, 1, 0)
	s.Track(key)
	s.Untrack(key)
	if keys := s.EnumerateBatch(1, 1); len(keys) != 0 {
		t.Fatalf("expected no keys after untrack, got %v", keys)
	}
}

func TestStoreReadFromDiskWithoutBackendReportsRegionDestroyed(t *testing.T) {
	s := NewStore(nil)
	_, err := s.ReadFromDisk(columnkey.NewDiskID())
	if !errors.Is(err, ErrRegionDestroyed) {
		t.Fatalf("expected ErrRegionDestroyed, got %v", err)
	}
}

func TestStoreDeclaredCodec(t *testing.T) {
	s := NewStore(nil)
	if _, ok := s.DeclaredCodec(); ok {
		t.Fatal("expected no declared codec by default")
	}
	s.SetDeclaredCodec(3)
	id, ok := s.DeclaredCodec()
	if !ok || id != 3 {
		t.Fatalf("expected declared codec 3, got %d ok=%v", id, ok)
	}
}

func TestFileDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileDiskStore(dir)
	if err != nil {
		t.Fatalf("NewFileDiskStore: %v", err)
	}
	id := columnkey.NewDiskID()
	if err := store.WriteBlob(id, []byte("payload")); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	data, err := store.ReadBlob(id)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected payload: %q", data)
	}
	if err := store.DeleteBlob(id); err != nil {
		t.Fatalf("DeleteBlob: %v", err)
	}
	if _, err := store.ReadBlob(id); err != ErrBlobNotFound {
		t.Fatalf("expected ErrBlobNotFound after delete, got %v", err)
	}
}

func TestFileDiskStoreMissingBlobReportsNotFound(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileDiskStore(dir)
	if err != nil {
		t.Fatalf("NewFileDiskStore: %v", err)
	}
	if _, err := store.ReadBlob(columnkey.NewDiskID()); err != ErrBlobNotFound {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

type countingDiskStore struct {
	reads int
	data  []byte
}

func (c *countingDiskStore) ReadBlob(columnkey.DiskID) ([]byte, error) {
	c.reads++
	return c.data, nil
}
func (c *countingDiskStore) WriteBlob(columnkey.DiskID, []byte) error { return nil }
func (c *countingDiskStore) DeleteBlob(columnkey.DiskID) error        { return nil }

func TestRecallerDeduplicatesConcurrentReads(t *testing.T) {
	backend := &countingDiskStore{data: []byte("spilled")}
	r := NewRecaller(backend)
	id := columnkey.NewDiskID()

	const n = 16
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			data, err := r.Recall(id)
			if err == nil && string(data) != "spilled" {
				err = errors.New("unexpected payload")
			}
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Recall: %v", err)
		}
	}
	if backend.reads == 0 {
		t.Fatal("expected at least one backend read")
	}
	if backend.reads == n {
		t.Fatal("expected singleflight to collapse concurrent recalls below the caller count")
	}
}

func TestRecallerTranslatesBlobNotFoundToTombstone(t *testing.T) {
	backend := &fakeMissingStore{}
	r := NewRecaller(backend)
	_, err := r.Recall(columnkey.NewDiskID())
	if !errors.Is(err, ErrTombstone) {
		t.Fatalf("expected ErrTombstone, got %v", err)
	}
}

type fakeMissingStore struct{}

func (fakeMissingStore) ReadBlob(columnkey.DiskID) ([]byte, error) { return nil, ErrBlobNotFound }
func (fakeMissingStore) WriteBlob(columnkey.DiskID, []byte) error  { return nil }
func (fakeMissingStore) DeleteBlob(columnkey.DiskID) error         { return nil }

func TestIsAbsentCoversAllRecoverableErrors(t *testing.T) {
	for _, err := range []error{ErrTombstone, ErrEntryDestroyed, ErrDiskAccess, ErrRegionDestroyed} {
		if !IsAbsent(err) {
			t.Fatalf("expected IsAbsent(%v) to be true", err)
		}
	}
	if IsAbsent(os.ErrClosed) {
		t.Fatal("expected unrelated error to not be absent")
	}
}

func TestDeleteBitmapSetGetCount(t *testing.T) {
	b := NewDeleteBitmap()
	b.Set(3, true)
	b.Set(130, true)
	if !b.Get(3) || !b.Get(130) {
		t.Fatal("expected both set bits to read back true")
	}
	if b.Get(4) {
		t.Fatal("expected untouched bit to read false")
	}
	if got := b.Count(); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}
	b.Set(3, false)
	if b.Get(3) {
		t.Fatal("expected cleared bit to read false")
	}
	if got := b.Count(); got != 1 {
		t.Fatalf("expected count 1 after clear, got %d", got)
	}
}

func TestDeleteMaskEncodeDecodeRoundTrip(t *testing.T) {
	b := NewDeleteBitmap()
	b.Set(0, true)
	b.Set(64, true)
	b.Set(200, true)

	encoded := EncodeDeleteMask(b)
	decoded, err := DecodeDeleteMask(encoded)
	if err != nil {
		t.Fatalf("DecodeDeleteMask: %v", err)
	}
	for _, bit := range []uint32{0, 64, 200} {
		if !decoded.Get(bit) {
			t.Fatalf("expected bit %d set after round trip", bit)
		}
	}
	if decoded.Count() != 3 {
		t.Fatalf("expected count 3 after round trip, got %d", decoded.Count())
	}
}

func TestDecodeDeleteMaskRejectsTruncatedInput(t *testing.T) {
	if _, err := DecodeDeleteMask([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error decoding truncated delete mask")
	}
}

func TestDecodeDeleteMaskRejectsCountMismatch(t *testing.T) {
	b := NewDeleteBitmap()
	b.Set(0, true)
	b.Set(64, true)
	encoded := EncodeDeleteMask(b)
	// Corrupt the leading count field so it disagrees with the bitmap.
	encoded[0] = 99
	if _, err := DecodeDeleteMask(encoded); err == nil {
		t.Fatal("expected error decoding a delete mask whose count disagrees with its bitmap")
	}
}

func TestCountingStatsTracksRowsAndBytes(t *testing.T) {
	s := NewStore(nil)
	stats := NewCountingStats(s)

	col := columnkey.New(9, 1, 0)
	s.Track(col)
	stats.RecordRowCount(9, 1, 1000)
	stats.RecordBytes(col, 4096)

	rows, ok := stats.RowCount(9, 1)
	if !ok || rows != 1000 {
		t.Fatalf("expected row count 1000, got %d ok=%v", rows, ok)
	}
	bytes, ok := stats.OffHeapBytes(9, 1)
	if !ok || bytes != 4096 {
		t.Fatalf("expected 4096 off-heap bytes, got %d ok=%v", bytes, ok)
	}
}
