package codec

import (
	"encoding/binary"
	"math"
	"math/big"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/arloliu/mpack/errs"
	"github.com/arloliu/mpack/format"
	"github.com/arloliu/mpack/internal/options"
	"github.com/arloliu/mpack/internal/pool"
	"github.com/arloliu/mpack/ndarray"
)

const (
	// maxDepth bounds container nesting on encode. It is the sole defense
	// against cyclic input graphs: a cycle keeps nesting until it trips
	// the bound.
	maxDepth = 1024

	// maxDefaultDepth bounds how many times the default hook may be
	// re-invoked along a single value chain without producing an
	// encodable value.
	maxDefaultDepth = 254
)

// encoder holds the state of one Pack call.
type encoder struct {
	buf *pool.ByteBuffer
	def DefaultFunc
	opt Option
}

// Pack serializes v into MessagePack bytes.
//
// The returned slice is freshly allocated and owned by the caller.
func Pack(v any, opts ...PackOption) ([]byte, error) {
	var cfg config
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, errs.NewEncodeErrorCause(errs.ErrBadOption, err, "")
	}
	if cfg.extHook != nil {
		return nil, errs.NewEncodeError(errs.ErrBadOption, "ext_hook is not a pack option")
	}
	if cfg.bits&^optionMask != 0 {
		return nil, encErr(errs.ErrBadOption)
	}
	if cfg.bits&OptSortKeys != 0 && cfg.bits&OptNonStrKeys != 0 {
		return nil, encErr(errs.ErrSortNonStrKeys)
	}

	e := encoder{
		buf: pool.GetOutputBuffer(),
		def: cfg.def,
		opt: cfg.bits,
	}
	defer pool.PutOutputBuffer(e.buf)

	if err := e.encode(v, 0, 0); err != nil {
		return nil, err
	}

	// Copy out so the pooled buffer can be reused.
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())

	return out, nil
}

// encode dispatches one value. depth counts container nesting; defDepth
// counts consecutive default-hook hops along this value chain.
func (e *encoder) encode(v any, depth, defDepth int) error {
	switch val := v.(type) {
	case nil:
		e.writeNil()
	case bool:
		e.writeBool(val)
	case int:
		e.writeInt(int64(val))
	case int8:
		e.writeInt(int64(val))
	case int16:
		e.writeInt(int64(val))
	case int32:
		e.writeInt(int64(val))
	case int64:
		e.writeInt(val)
	case uint:
		e.writeUint(uint64(val))
	case uint8:
		e.writeUint(uint64(val))
	case uint16:
		e.writeUint(uint64(val))
	case uint32:
		e.writeUint(uint64(val))
	case uint64:
		e.writeUint(val)
	case uintptr:
		e.writeUint(uint64(val))
	case float32:
		e.writeFloat32(val)
	case float64:
		e.writeFloat64(val)
	case string:
		return e.writeStr(val)
	case []byte:
		e.writeBin(val)
	case Tuple:
		if e.opt&OptPassthroughTuple != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeArray(val, depth, defDepth)
	case []any:
		return e.writeArray(val, depth, defDepth)
	case map[string]any:
		return e.writeStrMap(val, depth, defDepth)
	case map[any]any:
		return e.writeAnyMap(val, depth, defDepth)
	case time.Time:
		if e.opt&OptPassthroughDatetime != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeDatetime(val, false)
	case Naive:
		if e.opt&OptPassthroughDatetime != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeDatetime(time.Time(val), true)
	case Date:
		if e.opt&OptPassthroughDatetime != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeDate(val)
	case TimeOfDay:
		if e.opt&OptPassthroughDatetime != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeTimeOfDay(val)
	case uuid.UUID:
		if e.opt&OptPassthroughUUID != 0 {
			return e.fallback(v, depth, defDepth)
		}
		e.writeStrUnchecked(val.String())
	case Ext:
		e.writeExt(val)
	case *big.Int:
		return e.writeBigInt(val, depth, defDepth)
	case big.Int:
		return e.writeBigInt(&val, depth, defDepth)
	case *ndarray.Array:
		if e.opt&OptSerializeNumpy == 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeNDArray(val, depth, defDepth)
	default:
		return e.encodeSlow(v, depth, defDepth)
	}

	return nil
}

// fallback routes a value to the caller's default hook.
func (e *encoder) fallback(v any, depth, defDepth int) error {
	if e.def == nil {
		return encErrf(errs.ErrUnsupportedType, "Type is not msgpack serializable: %s", typeName(v))
	}
	if defDepth > maxDefaultDepth {
		return encErr(errs.ErrDefaultRecursion)
	}

	sub, err := e.def(v)
	if err != nil {
		return errs.NewEncodeErrorCause(errs.ErrUnsupportedType, err,
			"Type is not msgpack serializable: "+typeName(v))
	}

	return e.encode(sub, depth, defDepth+1)
}

func (e *encoder) writeBigInt(v *big.Int, depth, defDepth int) error {
	if v == nil {
		e.writeNil()
		return nil
	}
	if v.IsInt64() {
		e.writeInt(v.Int64())
		return nil
	}
	if v.IsUint64() {
		e.writeUint(v.Uint64())
		return nil
	}
	if e.opt&OptPassthroughBigInt != 0 {
		return e.fallback(v, depth, defDepth)
	}

	return encErr(errs.ErrIntRange)
}

func (e *encoder) writeNil() {
	e.buf.B = append(e.buf.B, format.Nil)
}

func (e *encoder) writeBool(v bool) {
	if v {
		e.buf.B = append(e.buf.B, format.True)
	} else {
		e.buf.B = append(e.buf.B, format.False)
	}
}

// writeInt emits the shortest signed-capable form. Non-negative values
// use the unsigned ladder so the chosen form depends only on range.
func (e *encoder) writeInt(v int64) {
	if v >= 0 {
		e.writeUint(uint64(v))
		return
	}

	b := e.buf.B
	switch {
	case v >= format.NegFixIntMin:
		b = append(b, byte(v))
	case v >= math.MinInt8:
		b = append(b, format.Int8, byte(v))
	case v >= math.MinInt16:
		b = append(b, format.Int16)
		b = binary.BigEndian.AppendUint16(b, uint16(v)) //nolint:gosec
	case v >= math.MinInt32:
		b = append(b, format.Int32)
		b = binary.BigEndian.AppendUint32(b, uint32(v)) //nolint:gosec
	default:
		b = append(b, format.Int64)
		b = binary.BigEndian.AppendUint64(b, uint64(v)) //nolint:gosec
	}
	e.buf.B = b
}

func (e *encoder) writeUint(v uint64) {
	b := e.buf.B
	switch {
	case v <= format.PosFixIntMax:
		b = append(b, byte(v))
	case v <= math.MaxUint8:
		b = append(b, format.Uint8, byte(v))
	case v <= math.MaxUint16:
		b = append(b, format.Uint16)
		b = binary.BigEndian.AppendUint16(b, uint16(v))
	case v <= math.MaxUint32:
		b = append(b, format.Uint32)
		b = binary.BigEndian.AppendUint32(b, uint32(v))
	default:
		b = append(b, format.Uint64)
		b = binary.BigEndian.AppendUint64(b, v)
	}
	e.buf.B = b
}

func (e *encoder) writeFloat32(v float32) {
	b := append(e.buf.B, format.Float32)
	e.buf.B = binary.BigEndian.AppendUint32(b, math.Float32bits(v))
}

func (e *encoder) writeFloat64(v float64) {
	b := append(e.buf.B, format.Float64)
	e.buf.B = binary.BigEndian.AppendUint64(b, math.Float64bits(v))
}

// writeStr validates UTF-8 and emits the shortest str form.
func (e *encoder) writeStr(s string) error {
	if !utf8.ValidString(s) {
		return encErrf(errs.ErrUnsupportedType, "str is not valid UTF-8")
	}
	e.writeStrUnchecked(s)

	return nil
}

// writeStrUnchecked emits a str whose bytes are already known to be valid UTF-8
// (ISO timestamps, UUIDs, validated keys).
func (e *encoder) writeStrUnchecked(s string) {
	e.writeStrHeader(len(s))
	e.buf.B = append(e.buf.B, s...)
}

func (e *encoder) writeStrHeader(n int) {
	b := e.buf.B
	switch {
	case n <= format.FixStrMaxLen:
		b = append(b, format.FixStrPrefix|byte(n))
	case n <= math.MaxUint8:
		b = append(b, format.Str8, byte(n))
	case n <= math.MaxUint16:
		b = append(b, format.Str16)
		b = binary.BigEndian.AppendUint16(b, uint16(n))
	default:
		b = append(b, format.Str32)
		b = binary.BigEndian.AppendUint32(b, uint32(n)) //nolint:gosec
	}
	e.buf.B = b
}

func (e *encoder) writeBin(v []byte) {
	n := len(v)
	e.buf.Grow(n + 5)
	b := e.buf.B
	switch {
	case n <= math.MaxUint8:
		b = append(b, format.Bin8, byte(n))
	case n <= math.MaxUint16:
		b = append(b, format.Bin16)
		b = binary.BigEndian.AppendUint16(b, uint16(n))
	default:
		b = append(b, format.Bin32)
		b = binary.BigEndian.AppendUint32(b, uint32(n)) //nolint:gosec
	}
	e.buf.B = append(b, v...)
}

func (e *encoder) writeArrayHeader(n int) {
	b := e.buf.B
	switch {
	case n <= format.FixArrayMaxLen:
		b = append(b, format.FixArrayPrefix|byte(n))
	case n <= math.MaxUint16:
		b = append(b, format.Array16)
		b = binary.BigEndian.AppendUint16(b, uint16(n))
	default:
		b = append(b, format.Array32)
		b = binary.BigEndian.AppendUint32(b, uint32(n)) //nolint:gosec
	}
	e.buf.B = b
}

func (e *encoder) writeMapHeader(n int) {
	b := e.buf.B
	switch {
	case n <= format.FixMapMaxLen:
		b = append(b, format.FixMapPrefix|byte(n))
	case n <= math.MaxUint16:
		b = append(b, format.Map16)
		b = binary.BigEndian.AppendUint16(b, uint16(n))
	default:
		b = append(b, format.Map32)
		b = binary.BigEndian.AppendUint32(b, uint32(n)) //nolint:gosec
	}
	e.buf.B = b
}

func (e *encoder) writeExt(x Ext) {
	n := len(x.Data)
	b := e.buf.B
	switch n {
	case 1:
		b = append(b, format.FixExt1)
	case 2:
		b = append(b, format.FixExt2)
	case 4:
		b = append(b, format.FixExt4)
	case 8:
		b = append(b, format.FixExt8)
	case 16:
		b = append(b, format.FixExt16)
	default:
		switch {
		case n <= math.MaxUint8:
			b = append(b, format.Ext8, byte(n))
		case n <= math.MaxUint16:
			b = append(b, format.Ext16)
			b = binary.BigEndian.AppendUint16(b, uint16(n))
		default:
			b = append(b, format.Ext32)
			b = binary.BigEndian.AppendUint32(b, uint32(n)) //nolint:gosec
		}
	}
	b = append(b, byte(x.Tag))
	e.buf.B = append(b, x.Data...)
}

func (e *encoder) writeArray(vals []any, depth, defDepth int) error {
	if depth >= maxDepth {
		return encErr(errs.ErrDepthExceeded)
	}

	e.writeArrayHeader(len(vals))
	for _, item := range vals {
		if err := e.encode(item, depth+1, defDepth); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) writeStrMap(m map[string]any, depth, defDepth int) error {
	if depth >= maxDepth {
		return encErr(errs.ErrDepthExceeded)
	}

	e.writeMapHeader(len(m))

	if e.opt&OptSortKeys != 0 && len(m) > 1 {
		keys, done := pool.GetStringSlice(len(m))
		defer done()

		i := 0
		for k := range m {
			keys[i] = k
			i++
		}
		sort.Strings(keys)

		for _, k := range keys {
			if err := e.writeStr(k); err != nil {
				return err
			}
			if err := e.encode(m[k], depth+1, defDepth); err != nil {
				return err
			}
		}

		return nil
	}

	for k, v := range m {
		if err := e.writeStr(k); err != nil {
			return err
		}
		if err := e.encode(v, depth+1, defDepth); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) writeAnyMap(m map[any]any, depth, defDepth int) error {
	if depth >= maxDepth {
		return encErr(errs.ErrDepthExceeded)
	}

	e.writeMapHeader(len(m))

	if e.opt&OptSortKeys != 0 && len(m) > 1 {
		// OptNonStrKeys is rejected alongside OptSortKeys, so every key
		// must be a plain string here.
		keys, done := pool.GetStringSlice(len(m))
		defer done()

		i := 0
		for k := range m {
			s, ok := k.(string)
			if !ok {
				return encErr(errs.ErrNonStrKey)
			}
			keys[i] = s
			i++
		}
		sort.Strings(keys)

		for _, k := range keys {
			if err := e.writeStr(k); err != nil {
				return err
			}
			if err := e.encode(m[k], depth+1, defDepth); err != nil {
				return err
			}
		}

		return nil
	}

	for k, v := range m {
		if err := e.writeKey(k); err != nil {
			return err
		}
		if err := e.encode(v, depth+1, defDepth); err != nil {
			return err
		}
	}

	return nil
}

// writeKey emits a map key. Without OptNonStrKeys only plain strings are
// accepted. With it, the key universe grows to integers, booleans,
// floats, dates, times, date-times, UUIDs, enums and named string types;
// never tuples or arbitrary objects. The passthrough options do not
// apply to keys.
func (e *encoder) writeKey(k any) error {
	if e.opt&OptNonStrKeys == 0 {
		s, ok := k.(string)
		if !ok {
			return encErr(errs.ErrNonStrKey)
		}

		return e.writeStr(s)
	}

	switch key := k.(type) {
	case string:
		return e.writeStr(key)
	case bool:
		e.writeBool(key)
	case int:
		e.writeInt(int64(key))
	case int8:
		e.writeInt(int64(key))
	case int16:
		e.writeInt(int64(key))
	case int32:
		e.writeInt(int64(key))
	case int64:
		e.writeInt(key)
	case uint:
		e.writeUint(uint64(key))
	case uint8:
		e.writeUint(uint64(key))
	case uint16:
		e.writeUint(uint64(key))
	case uint32:
		e.writeUint(uint64(key))
	case uint64:
		e.writeUint(key)
	case float32:
		e.writeFloat32(key)
	case float64:
		e.writeFloat64(key)
	case time.Time:
		return e.writeDatetime(key, false)
	case Naive:
		return e.writeDatetime(time.Time(key), true)
	case Date:
		return e.writeDate(key)
	case TimeOfDay:
		return e.writeTimeOfDay(key)
	case uuid.UUID:
		e.writeStrUnchecked(key.String())
	case *big.Int:
		if key == nil {
			return encErrf(errs.ErrNonStrKey, "Dict key must a type serializable with OPT_NON_STR_KEYS")
		}
		if key.IsInt64() {
			e.writeInt(key.Int64())
		} else if key.IsUint64() {
			e.writeUint(key.Uint64())
		} else {
			return encErr(errs.ErrIntRange)
		}
	default:
		return e.writeKeySlow(k)
	}

	return nil
}

// typeName names a value's type for error messages, preferring the bare
// type name over the package-qualified form.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflectTypeName(v)
}
