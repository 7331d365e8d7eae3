package codec

import (
	"runtime"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
	zstdDecOnce sync.Once
	zstdDec     *zstd.Decoder
)

func zstdEncoder() *zstd.Encoder {
	zstdEncOnce.Do(func() {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		zstdEnc = enc
	})
	return zstdEnc
}

func zstdDecoder() *zstd.Decoder {
	zstdDecOnce.Do(func() {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
		if err != nil {
			panic(err)
		}
		zstdDec = dec
	})
	return zstdDec
}

type zstdCodec struct{}

func (zstdCodec) ID() ID { return Zstd }

func (zstdCodec) Compress(src []byte) ([]byte, bool) {
	out := zstdEncoder().EncodeAll(src, nil)
	if len(out) > int(float64(len(src))*shrinkRatio) {
		return src, false
	}
	return out, true
}

func (zstdCodec) Decompress(src []byte) ([]byte, error) {
	return zstdDecoder().DecodeAll(src, nil)
}
