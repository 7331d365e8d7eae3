package value

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gridcol/gridcol/buffer"
	"github.com/gridcol/gridcol/codec"
	"github.com/gridcol/gridcol/memory"
	"github.com/gridcol/gridcol/wire"
)

// WriteTo implements spec.md §4.C's writeTo(channel): it compresses only
// when the channel is not same-host (avoiding CPU burn for loopback
// transport), emits the 8-byte channel header, then the payload bytes,
// releasing the retain on every exit path.
func (v *Value) WriteTo(ch wire.Channel, gfxdID byte) error {
	compressIfAcrossHost := !ch.SameHost()
	rv, err := v.GetValueRetain(false, compressIfAcrossHost)
	if err != nil {
		return err
	}
	defer rv.Release()

	rv.mu.Lock()
	var payload []byte
	if rv.buf != nil {
		payload = append([]byte(nil), rv.buf.Bytes()...)
	}
	rv.mu.Unlock()

	if err := wire.WriteHeader(ch, gfxdID, int32(len(payload))); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = ch.Write(payload)
	return err
}

// WriteEmbedded writes the shorter pad+length framing used when the
// destination DataOutput already supplies the type prefix.
func (v *Value) WriteEmbedded(w io.Writer, compress bool) error {
	rv, err := v.GetValueRetain(false, compress)
	if err != nil {
		return err
	}
	defer rv.Release()

	rv.mu.Lock()
	var payload []byte
	if rv.buf != nil {
		payload = append([]byte(nil), rv.buf.Bytes()...)
	}
	rv.mu.Unlock()

	if err := wire.WriteEmbeddedHeader(w, int32(len(payload))); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err = w.Write(payload)
	return err
}

// ReadFrom implements spec.md §4.C's readFrom(in) on a freshly constructed
// Value: it reads the pad+length prefix, then the payload bytes via a
// bulk read, and installs them with SetBuffer. A zero length means the
// value is ABSENT.
func ReadFrom(r io.Reader, storageAllocator, scratchAllocator buffer.Allocator, broker *memory.Broker) (*Value, error) {
	length, err := wire.ReadEmbeddedHeader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoTransient, err)
	}
	v := New(storageAllocator, scratchAllocator, broker)
	if length == 0 {
		return v, nil
	}

	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIoTransient, err)
	}

	decoded, err := decodePayload(raw, storageAllocator, buffer.OwnerStorage)
	if err != nil {
		return nil, err
	}
	if err := v.SetBuffer(decoded.buf, decoded.codecID, decoded.state.IsCompressed(), false); err != nil {
		return nil, err
	}
	return v, nil
}

type decodedPayload struct {
	buf     *buffer.Ref
	state   State
	codecID codec.ID
}

// decodePayload parses the little-endian leading-int marker spec.md §6.2
// describes and wraps the bytes into a fresh buffer via alloc.
func decodePayload(data []byte, alloc buffer.Allocator, owner buffer.Owner) (decodedPayload, error) {
	if len(data) < 4 {
		return decodedPayload{}, fmt.Errorf("%w: payload shorter than leading int", ErrCorruptValue)
	}
	leading := int32(binary.LittleEndian.Uint32(data[:4]))

	buf := alloc.Allocate(len(data), owner)
	copy(buf.Bytes(), data)

	if leading < 0 {
		return decodedPayload{buf: buf, state: Compressed, codecID: codec.ID(-leading)}, nil
	}
	return decodedPayload{buf: buf, state: Decompressed(1), codecID: codec.None}, nil
}
