package camera

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/bind_group_provider"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

type camera2DImpl struct {
	mu *sync.Mutex

	width, height    float32
	offsetX, offsetY float32
	scaleFactor      float32

	viewProjectionMatrix [16]float32
	modelMatrix          [16]float32
	dirty                bool

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera2D is a screen-space orthographic camera.
//
// Logical pixel (0, 0) is the top-left corner of the viewport and (width, height) the bottom-right.
// The view-projection matrix is OPENGL_TO_WGPU * Ortho(0, w, h, 0, -1, 1) * Translate(offset),
// recomputed eagerly whenever the viewport or the offset changes.
type Camera2D interface {
	// Width returns the logical viewport width.
	Width() float32

	// Height returns the logical viewport height.
	Height() float32

	// ScaleFactor returns the ratio of physical to logical pixels.
	ScaleFactor() float32

	// Offset returns the camera translation in logical pixels.
	//
	// Returns:
	//   - x, y: the translation applied to every vertex
	Offset() (x, y float32)

	// ViewProjectionMatrix returns the current view-projection matrix (column-major).
	ViewProjectionMatrix() [16]float32

	// ModelMatrix returns the model matrix. It is always the identity for batched quads.
	ModelMatrix() [16]float32

	// Uniform returns the GPU representation of the camera.
	Uniform() GPUCameraUniform

	// SetViewport sets the logical viewport size and marks the camera dirty.
	//
	// Parameters:
	//   - width, height: logical size, must be positive; non-positive values are ignored
	SetViewport(width, height float32)

	// Resize sets the viewport from a physical framebuffer size and the window scale factor.
	//
	// Parameters:
	//   - physicalWidth, physicalHeight: framebuffer size in device pixels
	//   - scaleFactor: device pixels per logical pixel, values <= 0 are treated as 1
	Resize(physicalWidth, physicalHeight int, scaleFactor float32)

	// SetOffset sets the camera translation and marks the camera dirty.
	SetOffset(x, y float32)

	// Dirty reports whether the matrices changed since the last ClearDirty.
	Dirty() bool

	// ClearDirty marks the current matrices as uploaded.
	ClearDirty()

	// BindGroupProvider returns the provider holding the camera's uniform buffer and bind group.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider replaces the provider that holds the camera uniform buffer and bind group.
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Camera2D = &camera2DImpl{}

// NewCamera2D creates a camera. Without options the viewport is 1x1 at offset (0, 0).
//
// Parameters:
//   - options: builder options such as WithViewport and WithOffset
//
// Returns:
//   - Camera2D: the camera, already dirty so its first upload happens
func NewCamera2D(options ...Camera2DBuilderOption) Camera2D {
	c := &camera2DImpl{
		mu:          &sync.Mutex{},
		width:       1,
		height:      1,
		scaleFactor: 1,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
		),
	}
	for _, opt := range options {
		opt(c)
	}
	c.recompute()
	return c
}

// ViewProjection computes the camera matrix for a logical viewport and offset.
// It is a pure function: identical arguments give bit-identical results.
//
// Parameters:
//   - width, height: logical viewport size
//   - offsetX, offsetY: translation in logical pixels
//
// Returns:
//   - [16]float32: the column-major view-projection matrix
func ViewProjection(width, height, offsetX, offsetY float32) [16]float32 {
	var proj, view, vp [16]float32
	common.Orthographic(proj[:], 0, width, height, 0, -1, 1)
	common.Translation(view[:], offsetX, offsetY, 0)
	common.Mul4(vp[:], proj[:], view[:])

	remap := common.OpenGLToWGPU()
	common.Mul4(vp[:], remap[:], vp[:])
	return vp
}

func (c *camera2DImpl) Width() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

func (c *camera2DImpl) Height() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *camera2DImpl) ScaleFactor() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scaleFactor
}

func (c *camera2DImpl) Offset() (x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offsetX, c.offsetY
}

func (c *camera2DImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *camera2DImpl) ModelMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelMatrix
}

func (c *camera2DImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{ViewProj: c.viewProjectionMatrix, Model: c.modelMatrix}
}

func (c *camera2DImpl) SetViewport(width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	c.recompute()
}

func (c *camera2DImpl) Resize(physicalWidth, physicalHeight int, scaleFactor float32) {
	if scaleFactor <= 0 {
		scaleFactor = 1
	}
	if physicalWidth <= 0 || physicalHeight <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scaleFactor = scaleFactor
	c.width = float32(physicalWidth) / scaleFactor
	c.height = float32(physicalHeight) / scaleFactor
	c.recompute()
}

func (c *camera2DImpl) SetOffset(x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsetX, c.offsetY = x, y
	c.recompute()
}

func (c *camera2DImpl) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

func (c *camera2DImpl) ClearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
}

func (c *camera2DImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *camera2DImpl) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindGroupProvider = provider
}

// recompute must be called with mu held, or before the camera is shared.
func (c *camera2DImpl) recompute() {
	c.viewProjectionMatrix = ViewProjection(c.width, c.height, c.offsetX, c.offsetY)
	common.Identity(c.modelMatrix[:])
	c.dirty = true
}
