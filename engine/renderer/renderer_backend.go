package renderer

import (
	"github.com/Carmen-Shannon/kaffee/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	if m == PresentModeUncapped {
		return "uncapped"
	}
	return "vsync"
}

// wgpu maps the mode onto the surface present mode.
func (m PresentMode) wgpu() wgpu.PresentMode {
	if m == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// DrawCommand is one indexed draw within the current render pass. BindGroups are set in order
// starting at group 0.
type DrawCommand struct {
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	IndexFormat  wgpu.IndexFormat
	IndexCount   uint32
	FirstIndex   uint32
	BaseVertex   int32
	BindGroups   []bind_group_provider.BindGroupProvider
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
