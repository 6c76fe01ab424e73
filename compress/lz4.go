package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances; they keep internal
// state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4 block framing: one flag byte, then either the raw payload
// (lz4Raw, used when the block did not compress) or a varint of the
// uncompressed length followed by the compressed block, so Decompress
// can size its buffer exactly.
const (
	lz4Raw   = 0x0
	lz4Block = 0x1
)

// LZ4Codec provides LZ4 block compression for envelope payloads.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

// Compress compresses data as a single framed LZ4 block.
func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	hdr := 1 + lz4VarintLen(len(data))
	dst := make([]byte, hdr+lz4.CompressBlockBound(len(data)))
	dst[0] = lz4Block
	lz4PutVarint(dst[1:], len(data))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[hdr:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible; store raw.
		out := make([]byte, 1+len(data))
		out[0] = lz4Raw
		copy(out[1:], data)

		return out, nil
	}

	return dst[:hdr+n], nil
}

// Decompress decompresses a framed LZ4 block.
func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case lz4Raw:
		out := make([]byte, len(data)-1)
		copy(out, data[1:])

		return out, nil
	case lz4Block:
		size, n := lz4Varint(data[1:])
		if n <= 0 || size < 0 || size > 1<<31 {
			return nil, errors.New("lz4: invalid length prefix")
		}

		buf := make([]byte, size)
		m, err := lz4.UncompressBlock(data[1+n:], buf)
		if err != nil {
			return nil, err
		}

		return buf[:m], nil
	default:
		return nil, errors.New("lz4: invalid frame flag")
	}
}

func lz4VarintLen(v int) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

func lz4PutVarint(dst []byte, v int) int {
	i := 0
	for v >= 0x80 {
		dst[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	dst[i] = byte(v)

	return i + 1
}

func lz4Varint(data []byte) (v, n int) {
	shift := uint(0)
	for i := 0; i < len(data) && i < 5; i++ {
		b := data[i]
		v |= int(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1
		}
		shift += 7
	}

	return 0, -1
}
