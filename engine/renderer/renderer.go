package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/buffer"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/kaffee/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingPipelines     []pipeline.Pipeline
}

// SurfaceTarget is the window side of the renderer: where the surface comes from and how big it is.
type SurfaceTarget interface {
	// SurfaceDescriptor returns the platform-specific descriptor used to create the WebGPU surface.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// FramebufferSize returns the drawable size in physical pixels.
	FramebufferSize() (width, height int)
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines and owns the device, queue and surface through its backend.
// Every frame is BeginFrame, any number of DrawIndexed calls, EndFrame and Present.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines by creating the GPU render pipeline objects
	// via the backend, then caching them by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the color format of the surface.
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the configured surface size in physical pixels.
	SurfaceSize() (width, height int)

	// CreateBuffer creates a device buffer.
	//
	// Parameters:
	//   - label: debug label
	//   - usage: buffer usage flags
	//   - size: size in bytes
	//
	// Returns:
	//   - *wgpu.Buffer: the new buffer
	//   - error: wraps common.ErrDevice if the allocation fails
	CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at the given byte offset.
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// NewBindGroupProvider creates an empty BindGroupProvider for the caller to initialize.
	NewBindGroupProvider(label string) bind_group_provider.BindGroupProvider

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures and samplers must be initialized via InitTextureView
	// and InitSampler before calling this method. Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags to OR into the derived usage, keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes to use instead of MinBindingSize, keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture from staging data and stores the texture and its view
	// on the given BindGroupProvider at the specified binding index. Must be called before InitBindGroup
	// for any texture bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the pixel data and dimensions for the texture
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a GPU sampler from staging data and stores it on the given BindGroupProvider
	// at the specified binding index. Must be called before InitBindGroup for any sampler bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all DrawIndexed invocations within a single frame.
	//
	// Parameters:
	//   - clear: the color the frame is cleared to
	//
	// Returns:
	//   - error: wraps common.ErrSurface if the swapchain texture could not be acquired; the frame should be skipped
	BeginFrame(clear common.Color) error

	// DrawIndexed encodes a single indexed draw command within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - cmd: buffers, index range and bind groups for the draw
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawIndexed(pipelineKey string, cmd DrawCommand) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface. Call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Release frees every cached pipeline and then the device.
	Release()
}

var (
	_ Renderer         = &renderer{}
	_ buffer.Allocator = &renderer{}
	_ texture.Uploader = &renderer{}
)

// NewRenderer creates a new Renderer instance with the specified backend type on the target's surface.
// The surface is configured at the target's framebuffer size before any pipeline is registered.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - target: the window providing the surface descriptor and framebuffer size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if a pipeline passed with WithPipeline could not be registered
func NewRenderer(backendType RendererBackendType, target SurfaceTarget, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(target.SurfaceDescriptor(), r.forceFallbackAdapter)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(target.FramebufferSize())

	if err := r.RegisterPipelines(r.pendingPipelines...); err != nil {
		r.Release()
		return nil, err
	}
	r.pendingPipelines = nil
	return r, nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) SurfaceSize() (int, int) {
	return r.backend.SurfaceSize()
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (*wgpu.Buffer, error) {
	return r.backend.CreateBuffer(label, usage, size)
}

func (r *renderer) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	r.backend.WriteBuffer(buf, offset, data)
}

func (r *renderer) NewBindGroupProvider(label string) bind_group_provider.BindGroupProvider {
	return bind_group_provider.NewBindGroupProvider(label)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame(clear common.Color) error {
	return r.backend.BeginFrame(clear.WGPU())
}

func (r *renderer) DrawIndexed(pipelineKey string, cmd DrawCommand) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}

	r.backend.DrawIndexed(p, cmd)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
