// Package compress provides the compression codecs behind the envelope
// helpers PackCompressed and UnpackCompressed.
//
// MessagePack payloads with repeated keys or long text compress well;
// the envelope prepends a two-byte header (magic + codec id) so the
// decoder can pick the matching codec without caller coordination.
//
// Codec selection guidance:
//   - CompressionNone: smallest latency, no size win
//   - CompressionS2: very fast, moderate ratio
//   - CompressionLZ4: fast, moderate ratio, wide ecosystem support
//   - CompressionZstd: best ratio, slightly slower
package compress

import (
	"fmt"

	"github.com/arloliu/mpack/format"
)

// Codec compresses and decompresses envelope payloads.
//
// Implementations are safe for concurrent use; internal encoder and
// decoder state is pooled, not shared.
type Codec interface {
	// Compress compresses data. The input is not modified. The
	// compressing codecs return a newly allocated slice owned by the
	// caller; NoopCodec returns data itself.
	Compress(data []byte) ([]byte, error)

	// Decompress reverses Compress. It validates the compressed framing
	// and fails on corrupt or incompatible input.
	Decompress(data []byte) ([]byte, error)
}

// New returns the Codec for a compression type.
func New(c format.CompressionType) (Codec, error) {
	switch c {
	case format.CompressionNone:
		return NoopCodec{}, nil
	case format.CompressionZstd:
		return ZstdCodec{}, nil
	case format.CompressionS2:
		return S2Codec{}, nil
	case format.CompressionLZ4:
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown compression type %d", uint8(c))
	}
}
