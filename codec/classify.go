package codec

import (
	"reflect"
	"sort"

	"github.com/arloliu/mpack/errs"
)

// encodeSlow classifies values that missed the exact-type dispatch:
// model records, enums, named (subclass-like) types, generic containers
// and struct records, in that priority order. Anything left over goes to
// the default hook.
func (e *encoder) encodeSlow(v any, depth, defDepth int) error {
	if e.opt&OptSerializePydantic != 0 {
		if d, ok := v.(MapDumper); ok {
			return e.writeStrMap(d.DumpMap(), depth, defDepth)
		}
		if d, ok := v.(LegacyMapDumper); ok {
			return e.writeStrMap(d.ToMap(), depth, defDepth)
		}
	}

	// An explicit Enum implementation outranks the named-type fast path:
	// the underlying value is what the type asks to be serialized as.
	if en, ok := v.(Enum); ok {
		return e.encode(en.EnumValue(), depth, defDepth)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			e.writeNil()
			return nil
		}

		return e.encode(rv.Elem().Interface(), depth, defDepth)

	case reflect.Bool:
		if e.opt&OptPassthroughSubclass != 0 {
			return e.fallback(v, depth, defDepth)
		}
		e.writeBool(rv.Bool())

		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if e.opt&OptPassthroughSubclass != 0 {
			return e.fallback(v, depth, defDepth)
		}
		e.writeInt(rv.Int())

		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if e.opt&OptPassthroughSubclass != 0 {
			return e.fallback(v, depth, defDepth)
		}
		e.writeUint(rv.Uint())

		return nil

	case reflect.String:
		if e.opt&OptPassthroughSubclass != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeStr(rv.String())

	case reflect.Float32, reflect.Float64:
		// Named float types never take the named-type fast path.
		return e.fallback(v, depth, defDepth)

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if e.opt&OptPassthroughSubclass != 0 {
				return e.fallback(v, depth, defDepth)
			}
			e.writeBin(rv.Bytes())

			return nil
		}
		if rv.Type().Name() != "" && e.opt&OptPassthroughSubclass != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeReflectSeq(rv, depth, defDepth)

	case reflect.Array:
		// Fixed-size arrays carry tuple semantics.
		if e.opt&OptPassthroughTuple != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeReflectSeq(rv, depth, defDepth)

	case reflect.Map:
		if rv.Type().Name() != "" && e.opt&OptPassthroughSubclass != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeReflectMap(rv, depth, defDepth)

	case reflect.Struct:
		if e.opt&OptPassthroughDataclass != 0 {
			return e.fallback(v, depth, defDepth)
		}

		return e.writeRecord(rv, depth, defDepth)

	default:
		// Chan, Func, Complex, UnsafePointer.
		return e.fallback(v, depth, defDepth)
	}
}

// writeKeySlow handles named-type and enum map keys under OptNonStrKeys.
func (e *encoder) writeKeySlow(k any) error {
	if en, ok := k.(Enum); ok {
		return e.writeKey(en.EnumValue())
	}

	rv := reflect.ValueOf(k)
	switch rv.Kind() {
	case reflect.String:
		return e.writeStr(rv.String())
	case reflect.Bool:
		e.writeBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.writeInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.writeUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		e.writeFloat64(rv.Float())
	default:
		return encErrf(errs.ErrNonStrKey, "Dict key must a type serializable with OPT_NON_STR_KEYS")
	}

	return nil
}

func (e *encoder) writeReflectSeq(rv reflect.Value, depth, defDepth int) error {
	if depth >= maxDepth {
		return encErr(errs.ErrDepthExceeded)
	}

	n := rv.Len()
	e.writeArrayHeader(n)
	for i := 0; i < n; i++ {
		if err := e.encode(rv.Index(i).Interface(), depth+1, defDepth); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) writeReflectMap(rv reflect.Value, depth, defDepth int) error {
	if depth >= maxDepth {
		return encErr(errs.ErrDepthExceeded)
	}

	e.writeMapHeader(rv.Len())

	if e.opt&OptSortKeys != 0 && rv.Len() > 1 {
		if rv.Type().Key().Kind() != reflect.String {
			return encErr(errs.ErrNonStrKey)
		}

		type entry struct {
			key string
			val reflect.Value
		}
		entries := make([]entry, 0, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			entries = append(entries, entry{key: it.Key().String(), val: it.Value()})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

		for i := range entries {
			if err := e.writeStr(entries[i].key); err != nil {
				return err
			}
			if err := e.encode(entries[i].val.Interface(), depth+1, defDepth); err != nil {
				return err
			}
		}

		return nil
	}

	it := rv.MapRange()
	for it.Next() {
		key := it.Key()
		if key.Kind() == reflect.String {
			if err := e.writeStr(key.String()); err != nil {
				return err
			}
		} else if err := e.writeKey(key.Interface()); err != nil {
			return err
		}
		if err := e.encode(it.Value().Interface(), depth+1, defDepth); err != nil {
			return err
		}
	}

	return nil
}

func reflectTypeName(v any) string {
	t := reflect.TypeOf(v)
	if t.Name() != "" {
		return t.Name()
	}

	return t.String()
}
