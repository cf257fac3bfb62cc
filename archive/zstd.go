package archive

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/platocmp/cmp/format"
)

// zstdEncoderPool and zstdDecoderPool reuse klauspost/compress/zstd's
// stateful encoder/decoder across archive writes: the library documents
// the decoder as allocation-free after a warmup only when kept and
// reused, not recreated per call.
var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("archive: failed to create zstd encoder: %v", err))
		}

		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("archive: failed to create zstd decoder: %v", err))
		}

		return dec
	},
}

// encode compresses plain with algo, or returns it unchanged for
// format.CompressionNone.
func encode(algo format.CompressionType, plain []byte) ([]byte, error) {
	switch algo {
	case format.CompressionNone:
		return plain, nil
	case format.CompressionZstd:
		enc := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(enc)

		return enc.EncodeAll(plain, nil), nil
	default:
		return nil, fmt.Errorf("unsupported archive compression: %s", algo)
	}
}

// decode inverts encode.
func decode(algo format.CompressionType, body []byte) ([]byte, error) {
	switch algo {
	case format.CompressionNone:
		return body, nil
	case format.CompressionZstd:
		if len(body) == 0 {
			return nil, nil
		}

		dec := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(dec)

		out, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompression failed: %w", err)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("unsupported archive compression: %s", algo)
	}
}
