package codec

import (
	"bytes"

	"github.com/ulikunitz/xz"
)

type xzCodec struct{}

func (xzCodec) ID() ID { return XZ }

func (xzCodec) Compress(src []byte) ([]byte, bool) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return src, false
	}
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

func (xzCodec) Decompress(src []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
