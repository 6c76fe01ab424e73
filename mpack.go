// Package mpack provides a strict, high-performance MessagePack codec.
//
// Mpack serializes arbitrary Go value graphs into MessagePack bytes and
// parses MessagePack bytes back into Go values. Its value is not that it
// speaks MessagePack — many codecs do — but its strictness: every value
// gets the shortest wire form the format allows, malformed or hostile
// input is rejected rather than partially decoded, cyclic inputs fail
// cleanly through a recursion bound, and the inner loops stay tight.
//
// # Core Features
//
//   - Exhaustive native-type support: dates, times, date-times with and
//     without timezones, UUIDs, big integers, extension types
//   - Adapter families: struct records, map-dumping model records, enums,
//     and N-dimensional numeric arrays encoded without materialisation
//   - An option bitfield controlling key policy, sorting, timestamp
//     formatting and passthrough routing to a caller default hook
//   - Bounded recursion and bounded decoder work stack: hostile input
//     fails, it never crashes or exhausts memory
//   - A shared short-key intern cache that removes repeat allocations for
//     common map keys during decode
//   - Optional compressed envelopes (Zstd, S2, LZ4)
//
// # Basic Usage
//
// Encoding and decoding a value:
//
//	import "github.com/arloliu/mpack"
//
//	data, err := mpack.Pack(map[string]any{"a": int64(1), "b": "two"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	value, err := mpack.Unpack(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m := value.(map[string]any)
//
// Options and the default hook:
//
//	data, err := mpack.Pack(value,
//	    mpack.WithOptions(mpack.OptSortKeys|mpack.OptNaiveUTC),
//	    mpack.WithDefault(func(v any) (any, error) {
//	        return fmt.Sprint(v), nil
//	    }),
//	)
//
// Extension types on decode:
//
//	value, err := mpack.Unpack(data,
//	    mpack.WithExtHook(func(tag int8, payload []byte) (any, error) {
//	        return MyExtValue{Tag: tag, Raw: payload}, nil
//	    }),
//	)
//
// # Error Handling
//
// Failures are classified by kind: errors.As against *errs.EncodeError or
// *errs.DecodeError, and by category with errors.Is against the sentinel
// values in the errs package (errs.ErrDepthExceeded, errs.ErrMalformed,
// and so on). Message text is descriptive, not contractual.
//
// # Package Structure
//
// This package provides the public API as thin wrappers around the codec
// package. The format, ndarray, compress and errs packages hold the wire
// constants, the numeric-array carrier, the envelope codecs and the
// error model respectively.
package mpack

import (
	"github.com/arloliu/mpack/codec"
	"github.com/arloliu/mpack/compress"
	"github.com/arloliu/mpack/errs"
	"github.com/arloliu/mpack/format"
)

// Re-exported codec types. See the codec package for details.
type (
	// Option is the bitfield controlling encoder and decoder behavior.
	Option = codec.Option
	// PackOption configures a single Pack call.
	PackOption = codec.PackOption
	// UnpackOption configures a single Unpack call.
	UnpackOption = codec.UnpackOption
	// DefaultFunc is the fallback serializer for unencodable values.
	DefaultFunc = codec.DefaultFunc
	// ExtHookFunc constructs values from decoded extension types.
	ExtHookFunc = codec.ExtHookFunc
	// Ext is the extension-type carrier.
	Ext = codec.Ext
	// Tuple encodes as an array but can be routed to the default hook.
	Tuple = codec.Tuple
	// Naive is a date-time without a timezone.
	Naive = codec.Naive
	// Date is a calendar date.
	Date = codec.Date
	// TimeOfDay is a wall-clock time.
	TimeOfDay = codec.TimeOfDay
	// Enum marks values that encode as their underlying value.
	Enum = codec.Enum
	// MapDumper is the model-record adapter surface.
	MapDumper = codec.MapDumper
	// LegacyMapDumper is the prior-generation model-record surface.
	LegacyMapDumper = codec.LegacyMapDumper
)

// Option bits. Names are the compatibility contract; values are stable.
const (
	OptNaiveUTC             = codec.OptNaiveUTC
	OptNonStrKeys           = codec.OptNonStrKeys
	OptOmitMicroseconds     = codec.OptOmitMicroseconds
	OptPassthroughBigInt    = codec.OptPassthroughBigInt
	OptPassthroughDataclass = codec.OptPassthroughDataclass
	OptPassthroughDatetime  = codec.OptPassthroughDatetime
	OptPassthroughSubclass  = codec.OptPassthroughSubclass
	OptPassthroughTuple     = codec.OptPassthroughTuple
	OptPassthroughUUID      = codec.OptPassthroughUUID
	OptSerializeNumpy       = codec.OptSerializeNumpy
	OptSerializePydantic    = codec.OptSerializePydantic
	OptSortKeys             = codec.OptSortKeys
	OptUTCZ                 = codec.OptUTCZ
)

// Pack serializes v into MessagePack bytes.
//
// Accepted options: WithOptions and WithDefault. The returned slice is
// freshly allocated and owned by the caller.
//
// Example:
//
//	data, err := mpack.Pack([]any{int64(1), "two", true})
func Pack(v any, opts ...PackOption) ([]byte, error) {
	return codec.Pack(v, opts...)
}

// Unpack parses a complete MessagePack value from data.
//
// Accepted options: WithOptions (OptNonStrKeys only) and WithExtHook.
// Trailing bytes after the value are rejected.
//
// Example:
//
//	value, err := mpack.Unpack(data)
func Unpack(data []byte, opts ...UnpackOption) (any, error) {
	return codec.Unpack(data, opts...)
}

// WithOptions sets the option bitfield for a Pack or Unpack call.
func WithOptions(bits Option) PackOption {
	return codec.WithOptions(bits)
}

// WithDefault supplies the fallback serializer for a Pack call.
func WithDefault(fn DefaultFunc) PackOption {
	return codec.WithDefault(fn)
}

// WithExtHook supplies the extension-type constructor for an Unpack call.
func WithExtHook(fn ExtHookFunc) UnpackOption {
	return codec.WithExtHook(fn)
}

// NewExt creates an Ext, validating that the tag fits in [-128, 127].
func NewExt(tag int, data []byte) (Ext, error) {
	return codec.NewExt(tag, data)
}

// PackCompressed packs v and seals the result in a compressed envelope.
//
// The envelope is two header bytes (magic, codec id) followed by the
// compressed MessagePack payload; UnpackCompressed reverses it without
// the caller naming the codec again.
//
// Example:
//
//	data, err := mpack.PackCompressed(value, format.CompressionZstd)
func PackCompressed(v any, c format.CompressionType, opts ...PackOption) ([]byte, error) {
	payload, err := codec.Pack(v, opts...)
	if err != nil {
		return nil, err
	}

	sealed, err := compress.Seal(c, payload)
	if err != nil {
		return nil, errs.NewEncodeErrorCause(errs.ErrBadOption, err, "seal envelope: "+err.Error())
	}

	return sealed, nil
}

// UnpackCompressed opens an envelope produced by PackCompressed and
// parses the payload.
func UnpackCompressed(data []byte, opts ...UnpackOption) (any, error) {
	if data == nil {
		return nil, errs.NewDecodeError(errs.ErrInputType, "")
	}

	payload, err := compress.Open(data)
	if err != nil {
		return nil, errs.NewDecodeErrorCause(errs.ErrMalformed, err, "open envelope: "+err.Error())
	}

	return codec.Unpack(payload, opts...)
}
