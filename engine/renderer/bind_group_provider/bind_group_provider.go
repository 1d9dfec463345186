package bind_group_provider

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// BufferWrite describes a pending write of Data into the buffer at Binding on Provider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

type bindGroupProvider struct {
	mu    sync.Mutex
	label string

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout

	// GPU resources keyed by their binding index within the group.
	buffers      map[int]*wgpu.Buffer
	textures     map[int]*wgpu.Texture
	textureViews map[int]*wgpu.TextureView
	samplers     map[int]*wgpu.Sampler
}

// BindGroupProvider owns one bind group and every GPU resource bound into it.
// Textures, the batch pipeline's camera uniform and any custom pipeline resources each live in their own provider.
type BindGroupProvider interface {
	// Release frees every GPU resource held by the provider. The provider is empty afterwards.
	Release()

	// Label returns the debug label used to name the provider's GPU objects.
	Label() string

	// BindGroup returns the bind group, or nil until one has been created.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group was created from.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer bound at binding, or nil.
	Buffer(binding int) *wgpu.Buffer

	// Texture returns the texture whose view is bound at binding, or nil.
	Texture(binding int) *wgpu.Texture

	// TextureView returns the texture view bound at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler bound at binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	// Resident reports whether the bind group exists and can be set on a render pass.
	Resident() bool

	SetBindGroup(bg *wgpu.BindGroup)

	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	SetBuffer(binding int, buf *wgpu.Buffer)

	SetTexture(binding int, tex *wgpu.Texture)

	SetTextureView(binding int, tv *wgpu.TextureView)

	SetSampler(binding int, s *wgpu.Sampler)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: debug label prefix for the GPU objects created for this provider
//   - options: builder options
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textures:     make(map[int]*wgpu.Texture),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding int) *wgpu.Texture {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textures[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.samplers[binding]
}

func (p *bindGroupProvider) Resident() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup != nil
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textures[binding] = tex
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// bind group first, it references everything below
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	for i, tv := range p.textureViews {
		if tv != nil {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, tex := range p.textures {
		if tex != nil {
			tex.Release()
		}
		delete(p.textures, i)
	}
	for i, s := range p.samplers {
		if s != nil {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
}
