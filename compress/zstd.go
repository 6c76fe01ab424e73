package compress

// ZstdCodec provides Zstandard compression for envelope payloads.
//
// Zstd gives the best ratio of the supported codecs and is the right
// default for payloads that are stored or sent over constrained links.
//
// Two implementations exist behind build tags: the default pure-Go
// implementation (klauspost/compress/zstd) and a cgo implementation
// (valyala/gozstd) selected with -tags mpack_cgo_zstd for callers that
// want libzstd's throughput.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}
