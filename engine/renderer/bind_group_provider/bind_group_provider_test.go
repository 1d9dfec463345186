package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProviderLabel(t *testing.T) {
	p := NewBindGroupProvider("camera")
	if p.Label() != "camera" {
		t.Errorf("Label() = %q, want %q", p.Label(), "camera")
	}
	if p.Resident() {
		t.Error("new provider should not be resident")
	}
}

func TestBindGroupProviderSetters(t *testing.T) {
	buf := &wgpu.Buffer{}
	p := NewBindGroupProvider("p", WithBuffer(0, buf))

	if p.Buffer(0) != buf {
		t.Error("WithBuffer did not bind the buffer")
	}
	if p.Buffer(1) != nil {
		t.Error("unbound binding should be nil")
	}

	view := &wgpu.TextureView{}
	sampler := &wgpu.Sampler{}
	p.SetTextureView(0, view)
	p.SetSampler(1, sampler)
	if p.TextureView(0) != view || p.Sampler(1) != sampler {
		t.Error("setters did not store resources at their bindings")
	}

	p.SetBindGroup(&wgpu.BindGroup{})
	if !p.Resident() {
		t.Error("provider with a bind group should be resident")
	}
}
