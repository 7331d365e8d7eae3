package codec

import (
	"bytes"
	"strings"
	"testing"
)

func TestRoundTripAllCodecs(t *testing.T) {
	payload := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 200))
	for _, id := range []ID{LZ4, XZ, S2, Zstd} {
		c := MustGet(id)
		compressed, ok := c.Compress(payload)
		if !ok {
			t.Fatalf("%v: expected compressible payload to shrink", id)
		}
		got, err := c.Decompress(compressed)
		if err != nil {
			t.Fatalf("%v: decompress: %v", id, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("%v: round trip mismatch", id)
		}
	}
}

func TestNoneCodecIsPassThrough(t *testing.T) {
	payload := []byte("some bytes")
	c := MustGet(None)
	out, ok := c.Compress(payload)
	if ok {
		t.Fatal("none codec must never report ok=true")
	}
	if !bytes.Equal(out, payload) {
		t.Fatal("none codec must return payload unchanged")
	}
}

func TestIsCompressed(t *testing.T) {
	if IsCompressed(None) {
		t.Fatal("None must not be reported compressed")
	}
	for _, id := range []ID{LZ4, XZ, S2, Zstd} {
		if !IsCompressed(id) {
			t.Fatalf("%v must be reported compressed", id)
		}
	}
}

func TestIncompressiblePayloadReportsNotOk(t *testing.T) {
	// a tiny, high-entropy-looking payload typically won't shrink past
	// the ratio threshold once codec framing overhead is included.
	payload := []byte{0x01}
	c := MustGet(S2)
	_, ok := c.Compress(payload)
	if ok {
		t.Fatal("expected a 1-byte payload to not compress below threshold")
	}
}
