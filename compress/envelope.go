package compress

import (
	"errors"
	"fmt"

	"github.com/arloliu/mpack/format"
)

// EnvelopeMagic is the first byte of every sealed envelope.
const EnvelopeMagic = 0xe7

// Seal wraps payload in an envelope: magic byte, codec id, then the
// payload compressed with the given codec.
func Seal(c format.CompressionType, payload []byte) ([]byte, error) {
	codec, err := New(c)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 2+len(compressed))
	out = append(out, EnvelopeMagic, byte(c))

	return append(out, compressed...), nil
}

// Open unwraps an envelope produced by Seal and returns the payload.
func Open(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, errors.New("envelope too short")
	}
	if data[0] != EnvelopeMagic {
		return nil, fmt.Errorf("bad envelope magic 0x%02x", data[0])
	}

	codec, err := New(format.CompressionType(data[1]))
	if err != nil {
		return nil, err
	}

	return codec.Decompress(data[2:])
}
