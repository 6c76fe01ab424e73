package compress

// NoopCodec passes payloads through unchanged.
type NoopCodec struct{}

var _ Codec = NoopCodec{}

// Compress returns data unchanged.
func (NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged.
func (NoopCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
