package codec

import (
	"github.com/arloliu/mpack/errs"
	"github.com/arloliu/mpack/ndarray"
)

// writeNDArray encodes an N-dimensional numeric array as nested
// MessagePack arrays, walking the flat backing slice with stride
// arithmetic. Only row-major arrays of rank >= 1 are accepted.
func (e *encoder) writeNDArray(a *ndarray.Array, depth, defDepth int) error {
	if a == nil {
		e.writeNil()
		return nil
	}
	if a.Fortran() {
		return encErr(errs.ErrNotContiguous)
	}
	if a.Rank() == 0 {
		return encErr(errs.ErrZeroDimArray)
	}

	shape := a.Shape()
	if depth+len(shape) > maxDepth {
		return encErr(errs.ErrDepthExceeded)
	}

	emit, err := e.elementEmitter(a)
	if err != nil {
		return err
	}

	// strides[d] is the flat distance between consecutive indices of
	// dimension d in row-major order.
	strides := make([]int, len(shape))
	stride := 1
	for d := len(shape) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= shape[d]
	}

	var walk func(dim, base int) error
	walk = func(dim, base int) error {
		n := shape[dim]
		e.writeArrayHeader(n)
		if dim == len(shape)-1 {
			for i := 0; i < n; i++ {
				if err := emit(base + i); err != nil {
					return err
				}
			}

			return nil
		}
		for i := 0; i < n; i++ {
			if err := walk(dim+1, base+i*strides[dim]); err != nil {
				return err
			}
		}

		return nil
	}

	return walk(0, 0)
}

// elementEmitter returns a function emitting the flat element at index i.
func (e *encoder) elementEmitter(a *ndarray.Array) (func(i int) error, error) {
	switch a.DType() {
	case ndarray.Bool:
		data := a.Data().([]bool)
		return func(i int) error { e.writeBool(data[i]); return nil }, nil
	case ndarray.Int8:
		data := a.Data().([]int8)
		return func(i int) error { e.writeInt(int64(data[i])); return nil }, nil
	case ndarray.Int16:
		data := a.Data().([]int16)
		return func(i int) error { e.writeInt(int64(data[i])); return nil }, nil
	case ndarray.Int32:
		data := a.Data().([]int32)
		return func(i int) error { e.writeInt(int64(data[i])); return nil }, nil
	case ndarray.Int64:
		data := a.Data().([]int64)
		return func(i int) error { e.writeInt(data[i]); return nil }, nil
	case ndarray.Uint8:
		data := a.Data().([]uint8)
		return func(i int) error { e.writeUint(uint64(data[i])); return nil }, nil
	case ndarray.Uint16:
		data := a.Data().([]uint16)
		return func(i int) error { e.writeUint(uint64(data[i])); return nil }, nil
	case ndarray.Uint32:
		data := a.Data().([]uint32)
		return func(i int) error { e.writeUint(uint64(data[i])); return nil }, nil
	case ndarray.Uint64:
		data := a.Data().([]uint64)
		return func(i int) error { e.writeUint(data[i]); return nil }, nil
	case ndarray.Float16:
		data := a.Data().([]uint16)
		return func(i int) error { e.writeFloat32(ndarray.Float16To32(data[i])); return nil }, nil
	case ndarray.Float32:
		data := a.Data().([]float32)
		return func(i int) error { e.writeFloat32(data[i]); return nil }, nil
	case ndarray.Float64:
		data := a.Data().([]float64)
		return func(i int) error { e.writeFloat64(data[i]); return nil }, nil
	case ndarray.Datetime64:
		data := a.Data().([]int64)
		unit := a.Unit()
		return func(i int) error { return e.writeDatetime64(data[i], unit) }, nil
	default:
		return nil, encErr(errs.ErrArrayDType)
	}
}
