package codec

import "github.com/klauspost/compress/s2"

type s2Codec struct{}

func (s2Codec) ID() ID { return S2 }

func (s2Codec) Compress(src []byte) ([]byte, bool) {
	out := s2.Encode(nil, src)
	if len(out) > int(float64(len(src))*shrinkRatio) {
		return src, false
	}
	return out, true
}

func (s2Codec) Decompress(src []byte) ([]byte, error) {
	return s2.Decode(nil, src)
}
