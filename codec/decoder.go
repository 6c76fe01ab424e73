package codec

import (
	"encoding/binary"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/arloliu/mpack/errs"
	"github.com/arloliu/mpack/format"
	"github.com/arloliu/mpack/internal/intern"
	"github.com/arloliu/mpack/internal/options"
)

// decoder holds the state of one Unpack call.
type decoder struct {
	extHook ExtHookFunc
	data    []byte
	pos     int
	opt     Option
}

// frame is one pending container on the explicit work stack. Container
// elements never recurse on the host call stack; the stack depth is what
// the depth bound applies to.
type frame struct {
	arr       []any
	strMap    map[string]any
	anyMap    map[any]any
	key       any
	remaining int
	isMap     bool
	hasKey    bool
}

func (f *frame) finish() any {
	if !f.isMap {
		return f.arr
	}
	if f.strMap != nil {
		return f.strMap
	}

	return f.anyMap
}

// Unpack parses a complete MessagePack value from data.
//
// The input must be a fully materialised buffer holding exactly one
// value; trailing bytes are rejected. Decoded []byte values are copies
// and do not alias data.
func Unpack(data []byte, opts ...UnpackOption) (any, error) {
	var cfg config
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, errs.NewDecodeErrorCause(errs.ErrDecodeBadOption, err, "")
	}
	if cfg.def != nil {
		return nil, errs.NewDecodeError(errs.ErrDecodeBadOption, "default is not an unpack option")
	}
	if cfg.bits&^unpackOptionMask != 0 {
		return nil, decErr(errs.ErrDecodeBadOption)
	}
	if data == nil {
		return nil, decErr(errs.ErrInputType)
	}

	d := decoder{data: data, opt: cfg.bits, extHook: cfg.extHook}
	v, err := d.decode()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, decErrf(errs.ErrMalformed,
			"unpack failed: %d trailing bytes after value", len(d.data)-d.pos)
	}

	return v, nil
}

// decode runs the format-byte state machine until the outermost value is
// complete.
func (d *decoder) decode() (any, error) {
	var stack []frame

	for {
		keyPos := false
		if n := len(stack); n > 0 {
			top := &stack[n-1]
			keyPos = top.isMap && !top.hasKey
		}

		v, complete, err := d.readValue(&stack, keyPos)
		if err != nil {
			return nil, err
		}
		if !complete {
			// A non-empty container header was pushed; its elements come
			// next.
			continue
		}

		// Fold the finished value into the enclosing frames.
		for {
			if len(stack) == 0 {
				return v, nil
			}
			top := &stack[len(stack)-1]
			if top.isMap {
				if !top.hasKey {
					if err := d.checkKey(v); err != nil {
						return nil, err
					}
					top.key = v
					top.hasKey = true

					break
				}
				if top.strMap != nil {
					top.strMap[top.key.(string)] = v
				} else {
					top.anyMap[top.key] = v
				}
				top.key = nil
				top.hasKey = false
				top.remaining--
			} else {
				top.arr = append(top.arr, v)
				top.remaining--
			}
			if top.remaining > 0 {
				break
			}
			v = top.finish()
			stack = stack[:len(stack)-1]
		}
	}
}

// checkKey validates a decoded map key before it is stored.
func (d *decoder) checkKey(k any) error {
	if d.opt&OptNonStrKeys == 0 {
		if _, ok := k.(string); !ok {
			return decErrf(errs.ErrDecodeNonStrKey, "unpack failed: map key must be str, got %s", decodedTypeName(k))
		}

		return nil
	}

	switch k.(type) {
	case nil, string, bool, int64, uint64, float32, float64:
		return nil
	}
	if !reflect.TypeOf(k).Comparable() {
		return decErrf(errs.ErrDecodeNonStrKey, "unpack failed: unhashable map key type %s", decodedTypeName(k))
	}

	return nil
}

func decodedTypeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflect.TypeOf(v).String()
}

// readValue consumes one format byte and its payload. For scalars it
// returns (value, true). For a non-empty container header it pushes a
// frame and returns (nil, false); empty containers complete immediately.
func (d *decoder) readValue(stack *[]frame, keyPos bool) (any, bool, error) {
	c, err := d.readByte()
	if err != nil {
		return nil, false, err
	}

	switch {
	case format.IsPosFixInt(c):
		return int64(c), true, nil
	case format.IsNegFixInt(c):
		return int64(int8(c)), true, nil
	case format.IsFixStr(c):
		return d.readStr(format.FixStrLen(c), keyPos)
	case format.IsFixMap(c):
		return d.beginMap(stack, format.FixLen(c))
	case format.IsFixArray(c):
		return d.beginArray(stack, format.FixLen(c))
	}

	switch c {
	case format.Nil:
		return nil, true, nil
	case format.False:
		return false, true, nil
	case format.True:
		return true, true, nil
	case format.Uint8:
		b, err := d.readByte()
		return int64(b), true, err
	case format.Uint16:
		u, err := d.readUint16()
		return int64(u), true, err
	case format.Uint32:
		u, err := d.readUint32()
		return int64(u), true, err
	case format.Uint64:
		u, err := d.readUint64()
		if err != nil {
			return nil, false, err
		}
		if u > math.MaxInt64 {
			return u, true, nil
		}

		return int64(u), true, nil
	case format.Int8:
		b, err := d.readByte()
		return int64(int8(b)), true, err
	case format.Int16:
		u, err := d.readUint16()
		return int64(int16(u)), true, err //nolint:gosec
	case format.Int32:
		u, err := d.readUint32()
		return int64(int32(u)), true, err //nolint:gosec
	case format.Int64:
		u, err := d.readUint64()
		return int64(u), true, err //nolint:gosec
	case format.Float32:
		u, err := d.readUint32()
		return math.Float32frombits(u), true, err
	case format.Float64:
		u, err := d.readUint64()
		return math.Float64frombits(u), true, err
	case format.Str8:
		n, err := d.readLen8()
		if err != nil {
			return nil, false, err
		}

		return d.readStr(n, keyPos)
	case format.Str16:
		n, err := d.readLen16()
		if err != nil {
			return nil, false, err
		}

		return d.readStr(n, keyPos)
	case format.Str32:
		n, err := d.readLen32()
		if err != nil {
			return nil, false, err
		}

		return d.readStr(n, keyPos)
	case format.Bin8:
		n, err := d.readLen8()
		if err != nil {
			return nil, false, err
		}

		return d.readBin(n)
	case format.Bin16:
		n, err := d.readLen16()
		if err != nil {
			return nil, false, err
		}

		return d.readBin(n)
	case format.Bin32:
		n, err := d.readLen32()
		if err != nil {
			return nil, false, err
		}

		return d.readBin(n)
	case format.Array16:
		n, err := d.readCount16()
		if err != nil {
			return nil, false, err
		}

		return d.beginArray(stack, n)
	case format.Array32:
		n, err := d.readCount32()
		if err != nil {
			return nil, false, err
		}

		return d.beginArray(stack, n)
	case format.Map16:
		n, err := d.readCount16()
		if err != nil {
			return nil, false, err
		}

		return d.beginMap(stack, n)
	case format.Map32:
		n, err := d.readCount32()
		if err != nil {
			return nil, false, err
		}

		return d.beginMap(stack, n)
	case format.FixExt1:
		return d.readExt(1)
	case format.FixExt2:
		return d.readExt(2)
	case format.FixExt4:
		return d.readExt(4)
	case format.FixExt8:
		return d.readExt(8)
	case format.FixExt16:
		return d.readExt(16)
	case format.Ext8:
		n, err := d.readLen8()
		if err != nil {
			return nil, false, err
		}

		return d.readExt(n)
	case format.Ext16:
		n, err := d.readLen16()
		if err != nil {
			return nil, false, err
		}

		return d.readExt(n)
	case format.Ext32:
		n, err := d.readLen32()
		if err != nil {
			return nil, false, err
		}

		return d.readExt(n)
	default: // format.Reserved
		return nil, false, decErrf(errs.ErrMalformed, "unpack failed: reserved format byte 0xc1")
	}
}

func (d *decoder) readStr(n int, keyPos bool) (any, bool, error) {
	b, err := d.readBytes(n)
	if err != nil {
		return nil, false, err
	}
	if !utf8.Valid(b) {
		return nil, false, decErr(errs.ErrInvalidUTF8)
	}
	if keyPos && n <= intern.MaxKeyLen {
		return intern.Key(b), true, nil
	}

	return string(b), true, nil
}

func (d *decoder) readBin(n int) (any, bool, error) {
	b, err := d.readBytes(n)
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, n)
	copy(out, b)

	return out, true, nil
}

func (d *decoder) readExt(n int) (any, bool, error) {
	tag, err := d.readByte()
	if err != nil {
		return nil, false, err
	}
	payload, err := d.readBytes(n)
	if err != nil {
		return nil, false, err
	}
	if d.extHook == nil {
		return nil, false, decErr(errs.ErrUnsupportedExt)
	}

	data := make([]byte, n)
	copy(data, payload)
	v, err := d.extHook(int8(tag), data)
	if err != nil {
		return nil, false, errs.NewDecodeErrorCause(errs.ErrExtHookFailed, err, "")
	}

	return v, true, nil
}

func (d *decoder) beginArray(stack *[]frame, n int) (any, bool, error) {
	if n == 0 {
		return []any{}, true, nil
	}
	if len(*stack) >= maxDepth {
		return nil, false, decErr(errs.ErrDecodeDepth)
	}

	// Cap preallocation at the remaining byte count: every element costs
	// at least one byte, so a hostile header cannot force a huge alloc.
	capHint := n
	if remain := d.remaining(); capHint > remain {
		capHint = remain
	}
	*stack = append(*stack, frame{arr: make([]any, 0, capHint), remaining: n})

	return nil, false, nil
}

func (d *decoder) beginMap(stack *[]frame, n int) (any, bool, error) {
	nonStr := d.opt&OptNonStrKeys != 0
	if n == 0 {
		if nonStr {
			return map[any]any{}, true, nil
		}

		return map[string]any{}, true, nil
	}
	if len(*stack) >= maxDepth {
		return nil, false, decErr(errs.ErrDecodeDepth)
	}

	capHint := n
	if remain := d.remaining() / 2; capHint > remain {
		capHint = remain
	}
	f := frame{isMap: true, remaining: n}
	if nonStr {
		f.anyMap = make(map[any]any, capHint)
	} else {
		f.strMap = make(map[string]any, capHint)
	}
	*stack = append(*stack, f)

	return nil, false, nil
}

func (d *decoder) remaining() int {
	return len(d.data) - d.pos
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, decErr(errs.ErrTruncated)
	}
	b := d.data[d.pos]
	d.pos++

	return b, nil
}

func (d *decoder) readBytes(n int) ([]byte, error) {
	if n < 0 || n > d.remaining() {
		return nil, decErr(errs.ErrTruncated)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n

	return b, nil
}

func (d *decoder) readUint16() (uint16, error) {
	b, err := d.readBytes(2)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) readUint32() (uint32, error) {
	b, err := d.readBytes(4)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) readUint64() (uint64, error) {
	b, err := d.readBytes(8)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(b), nil
}

// readLen8/16/32 read payload length prefixes, rejecting lengths beyond
// the remaining input before anything is allocated.
func (d *decoder) readLen8() (int, error) {
	b, err := d.readByte()
	if err != nil {
		return 0, err
	}

	return d.checkLen(uint64(b))
}

func (d *decoder) readLen16() (int, error) {
	u, err := d.readUint16()
	if err != nil {
		return 0, err
	}

	return d.checkLen(uint64(u))
}

func (d *decoder) readLen32() (int, error) {
	u, err := d.readUint32()
	if err != nil {
		return 0, err
	}

	return d.checkLen(uint64(u))
}

func (d *decoder) checkLen(n uint64) (int, error) {
	if n > uint64(d.remaining()) {
		return 0, decErr(errs.ErrTruncated)
	}

	return int(n), nil
}

// readCount16/32 read container element counts. Unlike byte lengths, a
// count may legitimately exceed the remaining byte count only when it is
// bogus, but the per-element reads catch that; no pre-check is needed
// beyond fitting in an int.
func (d *decoder) readCount16() (int, error) {
	u, err := d.readUint16()
	if err != nil {
		return 0, err
	}

	return int(u), nil
}

func (d *decoder) readCount32() (int, error) {
	u, err := d.readUint32()
	if err != nil {
		return 0, err
	}

	return int(u), nil
}
