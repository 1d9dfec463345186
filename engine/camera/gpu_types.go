package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource is the WGSL definition of the CameraUniform struct.
// Shaders that bind the camera prepend it to their own source.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct layout exactly. Size: 128 bytes.
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset   0: view-projection matrix (mat4x4<f32>)
	Model    [16]float32 // offset  64: model matrix (mat4x4<f32>)
}

// GPUCameraUniformSize is the size of the camera uniform in bytes.
const GPUCameraUniformSize = uint64(unsafe.Sizeof(GPUCameraUniform{}))

// Size returns the size of the GPUCameraUniform struct in bytes.
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into little-endian bytes for GPU upload.
//
// Returns:
//   - []byte: the 128-byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Model[i]))
	}
	return buf
}
