package batch

import (
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// Vertex is the per-corner quad vertex. Its memory layout is the GPU vertex layout: changing a field
// requires updating VertexLayout and the batch shader together.
type Vertex struct {
	Position  [3]float32
	Color     [4]float32
	TexCoords [2]float32
}

const (
	// VertexSize is the stride of a Vertex in bytes.
	VertexSize = uint64(unsafe.Sizeof(Vertex{}))
	// VerticesPerQuad is the number of vertices one quad occupies.
	VerticesPerQuad = 4
	// IndicesPerQuad is the number of indices (two triangles) one quad occupies.
	IndicesPerQuad = 6
	// DefaultMaxQuads is the quad capacity used when none is configured.
	DefaultMaxQuads = 1000
	// MaxQuadLimit is the largest quad count whose indices still fit in uint16.
	MaxQuadLimit = 65536 / VerticesPerQuad
)

// VertexLayout returns the GPU vertex buffer layout that matches Vertex.
//
// Returns:
//   - wgpu.VertexBufferLayout: position at location 0, color at location 1, tex coords at location 2
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: uint64(unsafe.Offsetof(Vertex{}.Position)), ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: uint64(unsafe.Offsetof(Vertex{}.Color)), ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: uint64(unsafe.Offsetof(Vertex{}.TexCoords)), ShaderLocation: 2},
		},
	}
}
