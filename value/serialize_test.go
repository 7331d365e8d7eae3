package value

import (
	"bytes"
	"testing"

	"github.com/gridcol/gridcol/buffer"
	"github.com/gridcol/gridcol/codec"
	"github.com/gridcol/gridcol/wire"
)

// TestWriteToSameHostSkipsCompression implements spec.md's E2 scenario:
// a decompressed payload [0x0A,0,0,0] written to a same-host channel
// produces the literal 8-byte header followed by the 4 payload bytes,
// and reading it back yields Decompressed(1).
func TestWriteToSameHostSkipsCompression(t *testing.T) {
	v := newTestValue()
	setDecompressed(t, v, []byte{0x0A, 0, 0, 0})

	ch := wire.NewBufferChannel(wire.BigEndian)
	ch.SetSameHost(true)
	if err := v.WriteTo(ch, wire.ColumnFormatValue); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	want := []byte{wire.DSFixedID, wire.GfxdType, wire.ColumnFormatValue, 0, 0, 0, 0, 4, 0x0A, 0, 0, 0}
	if !bytes.Equal(ch.Bytes(), want) {
		t.Fatalf("header+payload mismatch: got %v want %v", ch.Bytes(), want)
	}

	readBack, err := ReadFrom(bytes.NewReader(ch.Bytes()[3:]), buffer.HeapAllocator{}, buffer.HeapAllocator{}, nil)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	defer readBack.Release()
	if readBack.State() != Decompressed(1) {
		t.Fatalf("expected Decompressed(1) after read-back, got %v", readBack.State())
	}
}

// TestCompressedMarkerDecodesCodecID implements spec.md's E3 scenario: a
// payload whose leading little-endian i32 is -2 decodes to codecId=2,
// state=Compressed.
func TestCompressedMarkerDecodesCodecID(t *testing.T) {
	payload := []byte{0xFE, 0xFF, 0xFF, 0xFF, 1, 2, 3} // little-endian -2
	decoded, err := decodePayload(payload, buffer.HeapAllocator{}, buffer.OwnerStorage)
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	if decoded.state != Compressed {
		t.Fatalf("expected Compressed, got %v", decoded.state)
	}
	if decoded.codecID != codec.XZ {
		t.Fatalf("expected codecId 2 (XZ), got %v", decoded.codecID)
	}
}

func TestReadFromZeroLengthIsAbsent(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteEmbeddedHeader(&buf, 0); err != nil {
		t.Fatalf("WriteEmbeddedHeader: %v", err)
	}
	v, err := ReadFrom(&buf, buffer.HeapAllocator{}, buffer.HeapAllocator{}, nil)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if !v.IsAbsent() {
		t.Fatal("expected zero-length payload to decode as absent")
	}
	if v.State() != NotCompressible {
		t.Fatalf("expected NotCompressible for a fresh absent value, got %v", v.State())
	}
}

func TestWriteEmbeddedReadFromRoundTrip(t *testing.T) {
	v := newTestValue()
	setDecompressed(t, v, []byte{7, 0, 0, 0, 9, 9, 9, 9})

	var buf bytes.Buffer
	if err := v.WriteEmbedded(&buf, false); err != nil {
		t.Fatalf("WriteEmbedded: %v", err)
	}

	readBack, err := ReadFrom(&buf, buffer.HeapAllocator{}, buffer.HeapAllocator{}, nil)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	defer readBack.Release()

	readBack.mu.Lock()
	got := append([]byte(nil), readBack.buf.Bytes()...)
	readBack.mu.Unlock()
	if !bytes.Equal(got, []byte{7, 0, 0, 0, 9, 9, 9, 9}) {
		t.Fatalf("unexpected round-tripped payload: %v", got)
	}
}

func TestIoTransientOnTruncatedRead(t *testing.T) {
	var buf bytes.Buffer
	if err := wire.WriteEmbeddedHeader(&buf, 100); err != nil {
		t.Fatalf("WriteEmbeddedHeader: %v", err)
	}
	buf.WriteString("short")
	if _, err := ReadFrom(&buf, buffer.HeapAllocator{}, buffer.HeapAllocator{}, nil); err == nil {
		t.Fatal("expected an error reading a truncated payload")
	}
}
