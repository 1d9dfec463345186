// Package batch_pipeline turns filled batch contexts into draws: it owns the shared quad index buffer,
// the frame's vertex buffer, the camera uniform and the render pipeline that samples one texture per draw.
//
// Contexts drawn in the same frame are packed one after another into the vertex buffer. Each draw
// reuses the same index range with a base vertex pointing at its slice of the buffer.
package batch_pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/batch"
	"github.com/Carmen-Shannon/kaffee/engine/camera"
	"github.com/Carmen-Shannon/kaffee/engine/renderer"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/buffer"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/shader"
	"github.com/Carmen-Shannon/kaffee/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// CameraGroup is the bind group index of the camera uniform.
	CameraGroup = 0
	// TextureGroup is the bind group index of the sampled texture.
	TextureGroup = 1
)

// VertexSource is the body of the batch vertex shader. It is compiled after camera.GPUCameraUniformSource.
//
//go:embed assets/batch_vertex.wgsl
var VertexSource string

// FragmentSource is the batch fragment shader.
//
//go:embed assets/batch_fragment.wgsl
var FragmentSource string

// batchPipelineCount is used to generate unique pipeline keys.
var batchPipelineCount atomic.Uint64

// Device is the part of the renderer a BatchPipeline draws through.
type Device interface {
	buffer.Allocator
	texture.Uploader

	// RegisterPipelines creates the device pipelines and caches them by key.
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// WriteBuffers queues writes into provider-owned buffers.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// DrawIndexed encodes one indexed draw in the current render pass.
	DrawIndexed(pipelineKey string, cmd renderer.DrawCommand) error
}

// DrawRange locates one flushed context inside the frame's vertex buffer.
type DrawRange struct {
	// BaseVertex is the first vertex of the context in the vertex buffer.
	BaseVertex int32
	// IndexCount is the number of indices to draw, 6 per quad.
	IndexCount uint32
}

// BatchPipeline uploads batch contexts and issues one indexed draw per context.
type BatchPipeline interface {
	// BeginFrame rewinds the frame's vertex cursor and uploads the camera uniform if the camera changed.
	// Call it once per frame before the first Flush or Draw. Camera changes made during a frame take
	// effect from the next BeginFrame.
	BeginFrame()

	// Flush uploads the filled prefix of ctx at the frame's vertex cursor and advances the cursor.
	// It does not encode a draw.
	//
	// Parameters:
	//   - ctx: the batch context to upload
	//
	// Returns:
	//   - DrawRange: where the context landed; IndexCount is zero for an empty context
	//   - error: a *common.CapacityError if the frame would exceed MaxQuads; nothing is uploaded in that case
	Flush(ctx batch.Context) (DrawRange, error)

	// Draw flushes ctx and encodes its draw with the context's texture, or the default texture when the
	// context has none. An empty context draws nothing.
	//
	// Parameters:
	//   - ctx: the batch context to draw
	//
	// Returns:
	//   - error: a capacity error from Flush, common.ErrNotResident for a released texture, or a renderer error
	Draw(ctx batch.Context) error

	// Resize updates the camera for a new framebuffer size. The uniform is uploaded on the next BeginFrame.
	//
	// Parameters:
	//   - physicalWidth, physicalHeight: framebuffer size in pixels
	//   - scaleFactor: window content scale
	Resize(physicalWidth, physicalHeight int, scaleFactor float32)

	// IndexCount returns the number of indices needed for quads quads.
	IndexCount(quads int) uint32

	// MaxQuads returns the number of quads the vertex buffer can hold per frame.
	MaxQuads() int

	// FrameVertices returns the number of vertices flushed since BeginFrame.
	FrameVertices() int

	// Key returns the key the render pipeline is registered under.
	Key() string

	// Camera returns the camera whose uniform is bound at group 0.
	Camera() camera.Camera2D

	// DefaultTexture returns the texture bound for contexts without a texture.
	DefaultTexture() texture.Texture

	// Release frees the buffers and camera bind group and drops the reference on the default texture.
	// The render pipeline stays cached in the renderer.
	Release()
}

type batchPipelineImpl struct {
	device   Device
	key      string
	maxQuads int
	blend    bool

	vertexSource   string
	fragmentSource string
	customVertex   bool
	customFragment bool

	camera         camera.Camera2D
	defaultTexture texture.Texture
	pipeline       pipeline.Pipeline
	indices        *buffer.Immutable[uint16]
	vertices       *buffer.Mutable[batch.Vertex]

	cursor int
}

var _ BatchPipeline = &batchPipelineImpl{}

// NewBatchPipeline builds the index and vertex buffers, the camera bind group and the render pipeline.
//
// Parameters:
//   - d: the renderer to allocate and draw through
//   - cam: the camera bound at group 0
//   - defaultTexture: the texture used by contexts without one; must be GPU-resident
//   - options: builder options such as WithMaxQuads
//
// Returns:
//   - BatchPipeline: the pipeline, holding a reference on defaultTexture
//   - error: common.ErrNotResident if defaultTexture has no bind group, or an error from shader
//     reflection, buffer allocation or pipeline registration
func NewBatchPipeline(d Device, cam camera.Camera2D, defaultTexture texture.Texture, options ...BatchPipelineBuilderOption) (BatchPipeline, error) {
	if defaultTexture == nil || !defaultTexture.Resident() {
		return nil, fmt.Errorf("batch pipeline default texture: %w", common.ErrNotResident)
	}
	if cam == nil {
		return nil, errors.New("batch pipeline: nil camera")
	}

	b := &batchPipelineImpl{
		device:         d,
		key:            "batch_pipeline_" + strconv.FormatUint(batchPipelineCount.Add(1)-1, 10),
		maxQuads:       batch.DefaultMaxQuads,
		blend:          true,
		vertexSource:   VertexSource,
		fragmentSource: FragmentSource,
		camera:         cam,
	}
	for _, opt := range options {
		opt(b)
	}
	b.maxQuads = common.Clamp(b.maxQuads, 1, batch.MaxQuadLimit)

	vs := shader.NewShaderFromSource(b.key+"_vertex", shader.ShaderTypeVertex, camera.GPUCameraUniformSource+"\n"+b.vertexSource)
	fs := shader.NewShaderFromSource(b.key+"_fragment", shader.ShaderTypeFragment, b.fragmentSource)
	if err := checkShaders(vs, fs); err != nil {
		return nil, fmt.Errorf("batch pipeline %s: %w", b.key, err)
	}
	if err := validateCustom(vs, b.customVertex, fs, b.customFragment); err != nil {
		return nil, fmt.Errorf("batch pipeline %s: %w", b.key, err)
	}

	if err := b.init(vs, fs); err != nil {
		b.Release()
		return nil, fmt.Errorf("batch pipeline %s: %w", b.key, err)
	}

	defaultTexture.Retain()
	b.defaultTexture = defaultTexture

	common.Logger().Info("batch pipeline ready", "key", b.key, "max_quads", b.maxQuads, "blend", b.blend)
	return b, nil
}

// checkShaders verifies the shaders agree with the host-side vertex and texture layouts.
func checkShaders(vs, fs shader.Shader) error {
	layouts := vs.VertexLayouts()
	if len(layouts) != 1 {
		return fmt.Errorf("vertex shader declares %d vertex inputs, want 1", len(layouts))
	}
	if layouts[0].ArrayStride != batch.VertexSize {
		return fmt.Errorf("vertex stride is %d bytes, batch vertices are %d", layouts[0].ArrayStride, batch.VertexSize)
	}
	if len(vs.BindGroupLayoutDescriptor(CameraGroup).Entries) == 0 {
		return fmt.Errorf("vertex shader does not declare the camera uniform at group %d", CameraGroup)
	}
	if !sameEntries(fs.BindGroupLayoutDescriptor(TextureGroup).Entries, texture.LayoutDescriptor().Entries) {
		return fmt.Errorf("fragment shader group %d does not match the texture bind group layout", TextureGroup)
	}
	return nil
}

// validateCustom compiles caller-supplied shader sources offline. Built-in sources are not recompiled.
func validateCustom(vs shader.Shader, vertex bool, fs shader.Shader, fragment bool) error {
	if vertex {
		if err := vs.Validate(); err != nil {
			return err
		}
	}
	if fragment {
		if err := fs.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func sameEntries(a, b []wgpu.BindGroupLayoutEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Binding != b[i].Binding ||
			a[i].Visibility != b[i].Visibility ||
			a[i].Buffer.Type != b[i].Buffer.Type ||
			a[i].Texture.SampleType != b[i].Texture.SampleType ||
			a[i].Texture.ViewDimension != b[i].Texture.ViewDimension ||
			a[i].Sampler.Type != b[i].Sampler.Type {
			return false
		}
	}
	return true
}

func (b *batchPipelineImpl) init(vs, fs shader.Shader) error {
	indices, err := batch.QuadIndices(b.maxQuads)
	if err != nil {
		return err
	}
	b.indices, err = buffer.NewImmutable(b.device, b.key+" Index Buffer", wgpu.BufferUsageIndex, indices)
	if err != nil {
		return err
	}
	b.vertices, err = buffer.NewMutable[batch.Vertex](b.device, b.key+" Vertex Buffer", wgpu.BufferUsageVertex, uint64(b.maxQuads*batch.VerticesPerQuad))
	if err != nil {
		return err
	}

	provider := b.device.NewBindGroupProvider(b.camera.BindGroupProvider().Label())
	b.camera.SetBindGroupProvider(provider)
	if err := b.device.InitBindGroup(provider, vs.BindGroupLayoutDescriptor(CameraGroup), nil, map[int]uint64{0: camera.GPUCameraUniformSize}); err != nil {
		return err
	}
	b.uploadCamera()

	b.pipeline = pipeline.NewPipeline(b.key,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBlendEnabled(b.blend),
	)
	return b.device.RegisterPipelines(b.pipeline)
}

func (b *batchPipelineImpl) uploadCamera() {
	u := b.camera.Uniform()
	b.device.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: b.camera.BindGroupProvider(), Binding: 0, Offset: 0, Data: u.Marshal()},
	})
	b.camera.ClearDirty()
}

func (b *batchPipelineImpl) BeginFrame() {
	b.cursor = 0
	if b.camera.Dirty() {
		b.uploadCamera()
	}
}

func (b *batchPipelineImpl) Flush(ctx batch.Context) (DrawRange, error) {
	n := ctx.Len()
	r := DrawRange{BaseVertex: int32(b.cursor)}
	if n == 0 {
		return r, nil
	}

	capacity := int(b.vertices.Cap())
	if b.cursor+n > capacity {
		return DrawRange{}, &common.CapacityError{What: "frame vertices", Requested: b.cursor + n, Capacity: capacity}
	}
	if err := b.vertices.UploadAt(b.device, uint64(b.cursor), ctx.Vertices()); err != nil {
		return DrawRange{}, err
	}

	r.IndexCount = ctx.IndexCount()
	b.cursor += n
	common.Logger().Debug("batch flushed", "key", b.key, "quads", ctx.QuadCount(), "base_vertex", r.BaseVertex)
	return r, nil
}

func (b *batchPipelineImpl) Draw(ctx batch.Context) error {
	if ctx.Len() == 0 {
		return nil
	}

	tex := ctx.Texture()
	if tex == nil {
		tex = b.defaultTexture
	}
	if tex == nil || !tex.Resident() {
		return fmt.Errorf("batch texture: %w", common.ErrNotResident)
	}

	r, err := b.Flush(ctx)
	if err != nil {
		return err
	}

	return b.device.DrawIndexed(b.key, renderer.DrawCommand{
		VertexBuffer: b.vertices.Handle(),
		IndexBuffer:  b.indices.Handle(),
		IndexFormat:  wgpu.IndexFormatUint16,
		IndexCount:   r.IndexCount,
		FirstIndex:   0,
		BaseVertex:   r.BaseVertex,
		BindGroups: []bind_group_provider.BindGroupProvider{
			b.camera.BindGroupProvider(),
			tex.BindGroupProvider(),
		},
	})
}

func (b *batchPipelineImpl) Resize(physicalWidth, physicalHeight int, scaleFactor float32) {
	b.camera.Resize(physicalWidth, physicalHeight, scaleFactor)
}

func (b *batchPipelineImpl) IndexCount(quads int) uint32 {
	return batch.IndexCount(quads)
}

func (b *batchPipelineImpl) MaxQuads() int {
	return b.maxQuads
}

func (b *batchPipelineImpl) FrameVertices() int {
	return b.cursor
}

func (b *batchPipelineImpl) Key() string {
	return b.key
}

func (b *batchPipelineImpl) Camera() camera.Camera2D {
	return b.camera
}

func (b *batchPipelineImpl) DefaultTexture() texture.Texture {
	return b.defaultTexture
}

func (b *batchPipelineImpl) Release() {
	if b.vertices != nil {
		b.vertices.Release()
		b.vertices = nil
	}
	if b.indices != nil {
		b.indices.Release()
		b.indices = nil
	}
	if p := b.camera.BindGroupProvider(); p != nil {
		p.Release()
	}
	if b.defaultTexture != nil {
		b.defaultTexture.Release()
		b.defaultTexture = nil
	}
}
