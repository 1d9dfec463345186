package common

import (
	"unsafe"
)

// openGLToWGPU remaps GL clip space depth [-1, 1] onto the WebGPU depth range [0, 1].
// Column-major.
var openGLToWGPU = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// OpenGLToWGPU returns the fixed matrix that maps GL-convention clip space to WebGPU clip space.
//
// Returns:
//   - [16]float32: the column-major remapping matrix
func OpenGLToWGPU() [16]float32 {
	return openGLToWGPU
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// The returned slice shares memory with the input and must not be modified.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order (OpenGL/WebGPU convention).
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements, may alias a or b)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			buf[col*4+row] = sum
		}
	}
	copy(out, buf[:])
}

// MulVec4 transforms a column vector by a column-major 4x4 matrix.
//
// Parameters:
//   - m: matrix (16 elements)
//   - v: vector to transform
//
// Returns:
//   - [4]float32: m * v
func MulVec4(m []float32, v [4]float32) [4]float32 {
	var out [4]float32
	for row := 0; row < 4; row++ {
		out[row] = m[row]*v[0] + m[4+row]*v[1] + m[8+row]*v[2] + m[12+row]*v[3]
	}
	return out
}

// Orthographic writes a right-handed orthographic projection with a GL-style [-1, 1] depth range.
// Passing bottom > top gives a y-down screen space, which is what the 2D camera uses.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - left, right: horizontal clip planes
//   - bottom, top: vertical clip planes
//   - near, far: depth clip planes
func Orthographic(out []float32, left, right, bottom, top, near, far float32) {
	Identity(out)
	rl := right - left
	tb := top - bottom
	fn := far - near
	out[0] = 2 / rl
	out[5] = 2 / tb
	out[10] = -2 / fn
	out[12] = -(right + left) / rl
	out[13] = -(top + bottom) / tb
	out[14] = -(far + near) / fn
}

// Translation writes a translation matrix.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - x, y, z: translation components
func Translation(out []float32, x, y, z float32) {
	Identity(out)
	out[12], out[13], out[14] = x, y, z
}

// AlignTo rounds n up to the next multiple of align. align must be a power of two.
func AlignTo(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
