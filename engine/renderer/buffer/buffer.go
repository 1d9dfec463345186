// Package buffer wraps fixed-capacity GPU buffers of a single element type.
//
// Immutable buffers are written once at creation (the shared quad index buffer). Mutable buffers keep
// their capacity for their whole life and accept partial uploads of a prefix at an element offset
// (the batch vertex buffer).
package buffer

import (
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// copyAlignment is the WebGPU requirement for buffer sizes and write offsets.
const copyAlignment = 4

// Allocator is the device side of a buffer: creation and queue writes.
type Allocator interface {
	// CreateBuffer creates a device buffer of size bytes.
	CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at a byte offset.
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

type base[T any] struct {
	label  string
	handle *wgpu.Buffer
	usage  wgpu.BufferUsage
	cap    uint64
	len    uint64
}

// Handle returns the device buffer.
func (b *base[T]) Handle() *wgpu.Buffer { return b.handle }

// Label returns the debug label of the buffer.
func (b *base[T]) Label() string { return b.label }

// Len returns the number of elements written by the most recent upload.
func (b *base[T]) Len() uint64 { return b.len }

// Cap returns the fixed capacity in elements.
func (b *base[T]) Cap() uint64 { return b.cap }

// Stride returns the size of one element in bytes.
func (b *base[T]) Stride() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// Size returns the device allocation in bytes.
func (b *base[T]) Size() uint64 {
	return common.AlignTo(b.cap*b.Stride(), copyAlignment)
}

// Release frees the device buffer.
func (b *base[T]) Release() {
	if b.handle != nil {
		b.handle.Release()
		b.handle = nil
	}
}

// Immutable is a buffer uploaded once at creation.
type Immutable[T any] struct {
	base[T]
}

// NewImmutable creates a buffer sized exactly for data and uploads it.
//
// Parameters:
//   - a: the device allocator
//   - label: debug label
//   - usage: buffer usage, CopyDst is added automatically
//   - data: contents of the buffer, must not be empty
//
// Returns:
//   - *Immutable[T]: the uploaded buffer
//   - error: error if data is empty or the device buffer could not be created
func NewImmutable[T any](a Allocator, label string, usage wgpu.BufferUsage, data []T) (*Immutable[T], error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("immutable buffer %q: no data", label)
	}

	b := &Immutable[T]{base: base[T]{label: label, usage: usage | wgpu.BufferUsageCopyDst, cap: uint64(len(data))}}
	handle, err := a.CreateBuffer(label, b.usage, b.Size())
	if err != nil {
		return nil, fmt.Errorf("immutable buffer %q: %w", label, err)
	}
	b.handle = handle
	a.WriteBuffer(handle, 0, padded(common.SliceToBytes(data)))
	b.len = b.cap
	return b, nil
}

// Mutable is a fixed-capacity buffer whose contents are re-uploaded in place.
type Mutable[T any] struct {
	base[T]
}

// NewMutable allocates a buffer for capacity elements without writing to it.
//
// Parameters:
//   - a: the device allocator
//   - label: debug label
//   - usage: buffer usage, CopyDst is added automatically
//   - capacity: fixed capacity in elements, must be positive
//
// Returns:
//   - *Mutable[T]: the empty buffer
//   - error: error if capacity is zero or the device buffer could not be created
func NewMutable[T any](a Allocator, label string, usage wgpu.BufferUsage, capacity uint64) (*Mutable[T], error) {
	if capacity == 0 {
		return nil, fmt.Errorf("mutable buffer %q: zero capacity", label)
	}

	b := &Mutable[T]{base: base[T]{label: label, usage: usage | wgpu.BufferUsageCopyDst, cap: capacity}}
	handle, err := a.CreateBuffer(label, b.usage, b.Size())
	if err != nil {
		return nil, fmt.Errorf("mutable buffer %q: %w", label, err)
	}
	b.handle = handle
	return b, nil
}

// Upload writes data at the start of the buffer. Only len(data) elements are transferred.
func (b *Mutable[T]) Upload(a Allocator, data []T) error {
	return b.UploadAt(a, 0, data)
}

// UploadAt writes data starting at element offset.
//
// Parameters:
//   - a: the device allocator
//   - offset: first element to overwrite
//   - data: elements to write; an empty slice is a no-op
//
// Returns:
//   - error: a *common.CapacityError if offset+len(data) exceeds Cap; nothing is written in that case
func (b *Mutable[T]) UploadAt(a Allocator, offset uint64, data []T) error {
	end := offset + uint64(len(data))
	if end > b.cap {
		return &common.CapacityError{What: b.label, Requested: int(end), Capacity: int(b.cap)}
	}
	if len(data) == 0 {
		return nil
	}
	if b.handle == nil {
		return fmt.Errorf("mutable buffer %q: %w", b.label, common.ErrNotResident)
	}

	byteOffset := offset * b.Stride()
	if byteOffset%copyAlignment != 0 {
		return fmt.Errorf("mutable buffer %q: byte offset %d is not %d-byte aligned", b.label, byteOffset, copyAlignment)
	}
	a.WriteBuffer(b.handle, byteOffset, padded(common.SliceToBytes(data)))
	b.len = end
	return nil
}

// padded returns data extended with zeros to the copy alignment. Aligned input is returned as is.
func padded(data []byte) []byte {
	n := common.AlignTo(uint64(len(data)), copyAlignment)
	if n == uint64(len(data)) {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}
