// Package wire implements the header-embedded value format spec.md §6.2
// describes: an 8-byte inline type header (or, for non-channel
// destinations, a shorter pad+length prefix) followed by a little-endian
// payload whose leading int's sign doubles as the compression marker.
//
// Grounded on storage/storage-int.go's Serialize/Deserialize pattern
// (fixed-width fields via encoding/binary, then a raw byte blob) and on
// spec.md §6.2 directly, which has no close analog in the teacher: memcp
// never streams a column directly to a socket.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Fixed header bytes for the channel framing. These identify "this is a
// fixed-id serializable" followed by the GemFireXD-style type/gfxdId pair
// spec.md §6.2 names; the concrete byte values are this implementation's
// own choice, since spec.md leaves them implementation-defined.
const (
	DSFixedID byte = 0x39
	GfxdType  byte = 0x25
)

// Value kind ids (the gfxdId byte), per spec.md §6.2's "gfxdId of this
// value kind".
const (
	ColumnFormatValue      byte = 1
	ColumnFormatValueDelta byte = 2
	ColumnDeleteDelta      byte = 3
)

// HeaderSize is the fixed channel-framed header length.
const HeaderSize = 8

// EmbeddedHeaderSize is the header length when writing into a DataOutput
// that is not itself a Channel (the outer serializer already wrote the
// type prefix, so only padding + length remain).
const EmbeddedHeaderSize = 5

// ByteOrder is the endianness a Channel uses for its length field. The
// value payload itself is always little-endian regardless of this
// setting (spec.md §6.2).
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// Channel is the transport capability contract spec.md's writeTo/readFrom
// operations consult: whether to skip compression for a same-host peer,
// and which byte order to frame the length field in.
type Channel interface {
	io.Writer
	// SameHost reports whether the remote endpoint is local, letting the
	// caller skip compression entirely for loopback transport.
	SameHost() bool
	// Order reports the byte order this channel frames its length field in.
	Order() ByteOrder
}

// WriteHeader emits the 8-byte channel-framed header: DSFixedID, GfxdType,
// gfxdId, a zero pad byte, then the payload length in ch's byte order.
func WriteHeader(ch Channel, gfxdID byte, length int32) error {
	var buf [HeaderSize]byte
	buf[0] = DSFixedID
	buf[1] = GfxdType
	buf[2] = gfxdID
	buf[3] = 0
	putInt32(buf[4:8], length, ch.Order())
	_, err := ch.Write(buf[:])
	return err
}

// WriteEmbeddedHeader emits the shorter pad+length prefix used when the
// outer DataOutput already wrote the type prefix. The length is always
// big-endian, matching how most DataOutput implementations frame lengths.
func WriteEmbeddedHeader(w io.Writer, length int32) error {
	var buf [EmbeddedHeaderSize]byte
	buf[0] = 0
	binary.BigEndian.PutUint32(buf[1:5], uint32(length))
	_, err := w.Write(buf[:])
	return err
}

// ReadEmbeddedHeader reads the pad+length prefix written by
// WriteEmbeddedHeader, discarding the pad byte.
func ReadEmbeddedHeader(r io.Reader) (int32, error) {
	var buf [EmbeddedHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("wire: read header: %w", err)
	}
	return int32(binary.BigEndian.Uint32(buf[1:5])), nil
}

func putInt32(dst []byte, v int32, order ByteOrder) {
	if order == LittleEndian {
		binary.LittleEndian.PutUint32(dst, uint32(v))
	} else {
		binary.BigEndian.PutUint32(dst, uint32(v))
	}
}
