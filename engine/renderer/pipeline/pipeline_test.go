package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/kaffee/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const vertexSource = `
@group(0) @binding(0) var<uniform> scale: vec4<f32>;
struct VertexInput {
    @location(0) position: vec3<f32>,
};
@vertex
fn vs_main(in: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position, 1.0) * scale;
}
`

const fragmentSource = `
@group(0) @binding(0) var<uniform> scale: vec4<f32>;
@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return scale;
}
`

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("quads")
	if p.PipelineKey() != "quads" {
		t.Errorf("PipelineKey() = %q", p.PipelineKey())
	}
	if !p.BlendEnabled() {
		t.Error("blending should be enabled by default")
	}
	if p.CullMode() != wgpu.CullModeNone || p.Topology() != wgpu.PrimitiveTopologyTriangleList {
		t.Error("unexpected default primitive state")
	}
	if p.RenderPipeline() != nil {
		t.Error("unregistered pipeline should have no device pipeline")
	}
}

func TestPipelineValidate(t *testing.T) {
	vs := shader.NewShaderFromSource("vs", shader.ShaderTypeVertex, vertexSource)
	fs := shader.NewShaderFromSource("fs", shader.ShaderTypeFragment, fragmentSource)

	tests := []struct {
		name    string
		opts    []PipelineBuilderOption
		wantErr bool
	}{
		{"complete", []PipelineBuilderOption{WithVertexShader(vs), WithFragmentShader(fs)}, false},
		{"no fragment", []PipelineBuilderOption{WithVertexShader(vs)}, true},
		{"no vertex", []PipelineBuilderOption{WithFragmentShader(fs)}, true},
		{"fragment as vertex", []PipelineBuilderOption{WithVertexShader(fs), WithFragmentShader(fs)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPipeline("p", tt.opts...).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipelineMergesStageLayouts(t *testing.T) {
	p := NewPipeline("p",
		WithVertexShader(shader.NewShaderFromSource("vs", shader.ShaderTypeVertex, vertexSource)),
		WithFragmentShader(shader.NewShaderFromSource("fs", shader.ShaderTypeFragment, fragmentSource)),
	)
	layouts := p.BindGroupLayouts()
	entries := layouts[0].Entries
	if len(entries) != 1 {
		t.Fatalf("group 0 entries = %d, want 1", len(entries))
	}
	if entries[0].Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("visibility = %v, want vertex|fragment", entries[0].Visibility)
	}
	if entries[0].Buffer.MinBindingSize != 16 {
		t.Errorf("MinBindingSize = %d, want 16", entries[0].Buffer.MinBindingSize)
	}
	if len(p.VertexLayouts()) != 1 {
		t.Errorf("vertex layouts = %d, want 1", len(p.VertexLayouts()))
	}
}
