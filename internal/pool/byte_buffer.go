package pool

import (
	"io"
	"sync"
)

const (
	// OutputBufferDefaultSize is the initial capacity of encoder output buffers.
	OutputBufferDefaultSize = 1024 * 4 // 4KiB
	// OutputBufferMaxThreshold is the largest buffer the pool will retain.
	OutputBufferMaxThreshold = 1024 * 256 // 256KiB
)

// ByteBuffer is an append-oriented byte buffer with exponential growth.
//
// The encoder appends directly to B between Grow calls; exposing the slice
// keeps the hot append path free of interface or method-call overhead.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Reset resets the buffer to be empty, retaining the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Grow ensures the buffer can hold requiredBytes more bytes without
// reallocating. Capacity doubles until the requirement is met, so a
// sequence of appends costs amortized O(1) per byte.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	newCap := cap(bb.B)
	if newCap < OutputBufferDefaultSize {
		newCap = OutputBufferDefaultSize
	}
	for newCap-len(bb.B) < requiredBytes {
		newCap *= 2
	}

	newBuf := make([]byte, len(bb.B), newCap)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
// It implements io.Writer and never fails.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers larger than the configured threshold are discarded on Put so a
// single oversized encode does not pin memory for the process lifetime.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the
// specified initial capacity.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var outputDefaultPool = NewByteBufferPool(OutputBufferDefaultSize, OutputBufferMaxThreshold)

// GetOutputBuffer retrieves a ByteBuffer from the default encoder output pool.
func GetOutputBuffer() *ByteBuffer {
	return outputDefaultPool.Get()
}

// PutOutputBuffer returns a ByteBuffer to the default encoder output pool.
func PutOutputBuffer(bb *ByteBuffer) {
	outputDefaultPool.Put(bb)
}
