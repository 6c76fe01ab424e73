package codec

import (
	"github.com/arloliu/mpack/internal/options"
)

// Option is the bitfield controlling encoder and decoder behavior.
//
// The names form the compatibility contract; the bit values are stable.
type Option uint64

const (
	// OptNaiveUTC assumes naive date-times are UTC and emits a +00:00 offset.
	OptNaiveUTC Option = 1 << iota
	// OptNonStrKeys permits non-string map keys on both encode and decode.
	OptNonStrKeys
	// OptOmitMicroseconds drops the microsecond field from date-time and
	// time-of-day text.
	OptOmitMicroseconds
	// OptPassthroughBigInt routes big integers outside the 64-bit range to
	// the default hook instead of failing.
	OptPassthroughBigInt
	// OptPassthroughDataclass routes struct records to the default hook.
	OptPassthroughDataclass
	// OptPassthroughDatetime routes date, time-of-day and date-time values
	// to the default hook.
	OptPassthroughDatetime
	// OptPassthroughSubclass disables the named-primitive-type fast path;
	// such values reach the default hook instead.
	OptPassthroughSubclass
	// OptPassthroughTuple routes tuples to the default hook instead of
	// emitting them as arrays.
	OptPassthroughTuple
	// OptPassthroughUUID routes UUID values to the default hook.
	OptPassthroughUUID
	// OptSerializeNumpy enables the numeric-array adapter.
	OptSerializeNumpy
	// OptSerializePydantic enables the model-record adapter.
	OptSerializePydantic
	// OptSortKeys emits map entries in byte-lexicographic key order.
	OptSortKeys
	// OptUTCZ emits "Z" instead of "+00:00" for UTC offsets.
	OptUTCZ
)

// optionMask covers the defined option range; bits above it are invalid.
const optionMask = Option(1<<14) - 1

// unpackOptionMask is the subset of options the decoder accepts.
const unpackOptionMask = OptNonStrKeys

// DefaultFunc is the fallback serializer invoked for otherwise
// unencodable values. Its return value re-enters the encoder.
type DefaultFunc func(v any) (any, error)

// ExtHookFunc constructs a value from a decoded extension type.
type ExtHookFunc func(tag int8, data []byte) (any, error)

// config collects the per-call configuration for Pack and Unpack.
// Pack rejects decode-only settings and vice versa.
type config struct {
	bits    Option
	def     DefaultFunc
	extHook ExtHookFunc
}

// PackOption configures a single Pack call.
type PackOption = options.Option[*config]

// UnpackOption configures a single Unpack call.
type UnpackOption = options.Option[*config]

// WithOptions sets the option bitfield for a Pack or Unpack call.
// Repeated use ORs the bits together.
func WithOptions(bits Option) PackOption {
	return options.NoError(func(c *config) {
		c.bits |= bits
	})
}

// WithDefault supplies the fallback serializer for a Pack call.
// A nil fn is treated as absent.
func WithDefault(fn DefaultFunc) PackOption {
	return options.NoError(func(c *config) {
		c.def = fn
	})
}

// WithExtHook supplies the extension-type constructor for an Unpack call.
// A nil fn is treated as absent.
func WithExtHook(fn ExtHookFunc) UnpackOption {
	return options.NoError(func(c *config) {
		c.extHook = fn
	})
}
