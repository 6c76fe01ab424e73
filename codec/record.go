package codec

import (
	"reflect"
	"strings"
	"sync"

	"github.com/arloliu/mpack/errs"
)

// structField is one entry of a record plan: the emitted key and the
// field's index path within the struct.
type structField struct {
	name  string
	index []int
}

// recordPlans caches the field plan per struct type. Plans are immutable
// once stored, so concurrent Pack calls share them without locking beyond
// the sync.Map itself.
var recordPlans sync.Map // reflect.Type -> []structField

func recordFields(t reflect.Type) []structField {
	if cached, ok := recordPlans.Load(t); ok {
		return cached.([]structField)
	}

	fields := buildRecordFields(t, nil)
	if fields == nil {
		fields = []structField{}
	}
	actual, _ := recordPlans.LoadOrStore(t, fields)

	return actual.([]structField)
}

// buildRecordFields walks a struct type in declaration order.
//
// Unexported fields are skipped. A `mpack:"-"` tag skips the field, any
// other tag value renames it; tag names starting with an underscore are
// skipped like underscore-named fields. Anonymous embedded structs
// without a tag are flattened in place.
func buildRecordFields(t reflect.Type, prefix []int) []structField {
	var out []structField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}

		idx := make([]int, 0, len(prefix)+1)
		idx = append(append(idx, prefix...), i)

		tag, hasTag := f.Tag.Lookup("mpack")
		if f.Anonymous && !hasTag && f.Type.Kind() == reflect.Struct {
			out = append(out, buildRecordFields(f.Type, idx)...)
			continue
		}

		name := f.Name
		if hasTag {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if strings.HasPrefix(name, "_") {
			continue
		}

		out = append(out, structField{name: name, index: idx})
	}

	return out
}

// writeRecord encodes a struct as a map of its planned fields, in
// declaration order. An empty struct encodes as an empty map.
func (e *encoder) writeRecord(rv reflect.Value, depth, defDepth int) error {
	if depth >= maxDepth {
		return encErr(errs.ErrDepthExceeded)
	}

	fields := recordFields(rv.Type())
	e.writeMapHeader(len(fields))
	for i := range fields {
		f := &fields[i]
		if err := e.writeStr(f.name); err != nil {
			return err
		}
		if err := e.encode(rv.FieldByIndex(f.index).Interface(), depth+1, defDepth); err != nil {
			return err
		}
	}

	return nil
}
