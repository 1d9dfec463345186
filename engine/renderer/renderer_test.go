package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/kaffee/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestPresentModeMapping(t *testing.T) {
	tests := []struct {
		mode PresentMode
		want wgpu.PresentMode
		name string
	}{
		{PresentModeVSync, wgpu.PresentModeFifo, "vsync"},
		{PresentModeUncapped, wgpu.PresentModeImmediate, "uncapped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.wgpu(); got != tt.want {
				t.Errorf("wgpu() = %v, want %v", got, tt.want)
			}
			if tt.mode.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.mode.String(), tt.name)
			}
		})
	}
}

func TestBuilderOptions(t *testing.T) {
	r := &renderer{pipelineCache: make(map[string]pipeline.Pipeline)}
	a := pipeline.NewPipeline("a")
	b := pipeline.NewPipeline("b")

	for _, opt := range []RendererBuilderOption{
		WithPipeline(a),
		WithPipeline(b),
		WithPresentMode(PresentModeUncapped),
		WithForceSoftwareRenderer(true),
	} {
		opt(r)
	}

	if len(r.pendingPipelines) != 2 || r.pendingPipelines[0] != a || r.pendingPipelines[1] != b {
		t.Errorf("pending pipelines = %v", r.pendingPipelines)
	}
	if r.pendingPresentMode == nil || *r.pendingPresentMode != PresentModeUncapped {
		t.Error("present mode option not applied")
	}
	if !r.forceFallbackAdapter {
		t.Error("software renderer option not applied")
	}
}
