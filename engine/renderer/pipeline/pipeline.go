package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/kaffee/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type pipeline struct {
	mu          sync.Mutex
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	renderPipeline *wgpu.RenderPipeline

	// fixed-function state
	blendEnabled bool
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
	blendState   *wgpu.BlendState
}

// Pipeline describes a render pipeline: its two shader stages and fixed-function state.
// The device pipeline object is created by the renderer and stored back with SetRenderPipeline.
type Pipeline interface {
	// PipelineKey returns the key the pipeline is cached under.
	PipelineKey() string

	// Shader returns the shader for the given stage, or nil.
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the device pipeline, or nil until the pipeline has been registered.
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayouts returns the bind group layouts of both stages merged by group index.
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts returns the vertex buffer layouts reflected from the vertex shader.
	VertexLayouts() []wgpu.VertexBufferLayout

	// Validate checks that both stages are present with entry points and that the vertex shader declares an input.
	//
	// Returns:
	//   - error: a description of the first problem found
	Validate() error

	BlendEnabled() bool

	CullMode() wgpu.CullMode

	Topology() wgpu.PrimitiveTopology

	FrontFace() wgpu.FrontFace

	WriteMask() wgpu.ColorWriteMask

	BlendState() *wgpu.BlendState

	SetRenderPipeline(p *wgpu.RenderPipeline)

	// Release frees the device pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description with straight alpha blending enabled,
// no culling and a counter-clockwise triangle list.
//
// Parameters:
//   - pipelineKey: the key the pipeline is cached under
//   - opts: builder options
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		blendEnabled: true,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	var vertex, fragment map[int]wgpu.BindGroupLayoutDescriptor
	if p.vertexShader != nil {
		vertex = p.vertexShader.BindGroupLayoutDescriptors()
	}
	if p.fragmentShader != nil {
		fragment = p.fragmentShader.BindGroupLayoutDescriptors()
	}
	return shader.MergeBindGroupLayouts(vertex, fragment)
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	if p.vertexShader == nil {
		return nil
	}
	return p.vertexShader.VertexLayouts()
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil || p.fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}
	if p.vertexShader.EntryPoint() == "" {
		return fmt.Errorf("pipeline %s: vertex shader %s has no entry point", p.pipelineKey, p.vertexShader.Key())
	}
	if p.fragmentShader.EntryPoint() == "" {
		return fmt.Errorf("pipeline %s: fragment shader %s has no entry point", p.pipelineKey, p.fragmentShader.Key())
	}
	if len(p.vertexShader.VertexLayouts()) == 0 {
		return fmt.Errorf("pipeline %s: vertex shader %s declares no vertex input", p.pipelineKey, p.vertexShader.Key())
	}
	return nil
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderPipeline = rp
}

func (p *pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
