package codec

import (
	"bytes"

	"github.com/pierrec/lz4/v4"
)

// shrinkRatio is the largest compressed-to-original size ratio a codec
// result may have to be considered worthwhile; above it, Compress returns
// ok=false and ColumnValue.compressValue treats the result as
// NOT_COMPRESSIBLE (spec.md §4.C).
const shrinkRatio = 0.95

type lz4Codec struct{}

func (lz4Codec) ID() ID { return LZ4 }

func (lz4Codec) Compress(src []byte) ([]byte, bool) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return src, false
	}
	if err := w.Close(); err != nil {
		return src, false
	}
	out := buf.Bytes()
	if len(out) > int(float64(len(src))*shrinkRatio) {
		return src, false
	}
	return out, true
}

func (lz4Codec) Decompress(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
