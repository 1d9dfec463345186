// Package texture creates GPU-resident 2D textures and the bind groups that expose them to the batch pipeline.
//
// A Texture is immutable after construction and shared by reference: every holder calls Retain and Release,
// and the GPU resources are freed when the last reference is released.
package texture

import (
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// TextureBinding is the binding of the texture view within the texture bind group.
	TextureBinding = 0
	// SamplerBinding is the binding of the sampler within the texture bind group.
	SamplerBinding = 1
)

// textureCount is used to generate unique labels for unnamed textures.
var textureCount atomic.Uint64

// FilterMode selects how a texture is sampled between texels.
type FilterMode int

const (
	// FilterNearest picks the closest texel. Suited to pixel art.
	FilterNearest FilterMode = iota
	// FilterLinear interpolates between neighboring texels.
	FilterLinear
)

func (f FilterMode) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return "FilterMode(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseFilterMode converts "nearest" or "linear" into a FilterMode.
func ParseFilterMode(s string) (FilterMode, error) {
	switch s {
	case "", "nearest":
		return FilterNearest, nil
	case "linear":
		return FilterLinear, nil
	default:
		return FilterNearest, fmt.Errorf("unknown filter mode %q", s)
	}
}

// SamplerData returns the sampler configuration for a filter mode: clamp-to-edge on every axis,
// with the min, mag and mipmap filters all set by the mode.
//
// Parameters:
//   - f: the filter mode
//
// Returns:
//   - common.SamplerStagingData: the sampler configuration
func (f FilterMode) SamplerData() common.SamplerStagingData {
	filter, mip := wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest
	if f == FilterLinear {
		filter, mip = wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear
	}
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mip,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// LayoutDescriptor returns the bind group layout every texture bind group is created with.
// It matches group 1 of the batch fragment shader: a filterable 2D float texture and a filtering sampler.
func LayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Texture Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    TextureBinding,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			},
			{
				Binding:    SamplerBinding,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	}
}

// Uploader is the device side of texture creation.
type Uploader interface {
	// NewBindGroupProvider creates the provider that will own the texture's GPU resources.
	NewBindGroupProvider(label string) bind_group_provider.BindGroupProvider

	// InitTextureView creates and fills a texture from staging data and stores its view at bindingKey.
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler and stores it at bindingKey.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// InitBindGroup creates the bind group from the provider's resources.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
}

// Texture is a shared, GPU-resident 2D texture with its sampler and bind group.
type Texture interface {
	// Label returns the debug label of the texture.
	Label() string

	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// FilterMode returns the filter the sampler was built with.
	FilterMode() FilterMode

	// BindGroupProvider returns the provider holding the texture, view, sampler and bind group.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Resident reports whether the bind group exists and the texture has not been freed.
	Resident() bool

	// Retain adds a reference.
	Retain()

	// Release drops a reference. The last release frees the GPU resources.
	Release()

	// RefCount returns the number of outstanding references.
	RefCount() int32
}

type textureImpl struct {
	label    string
	width    uint32
	height   uint32
	filter   FilterMode
	provider bind_group_provider.BindGroupProvider
	refs     atomic.Int32
}

var _ Texture = &textureImpl{}

// FromPath reads an encoded image file and creates a texture from it.
//
// Parameters:
//   - u: the device uploader
//   - path: path to a PNG, JPEG, GIF, BMP, TIFF or WebP file
//   - filter: sampler filter mode
//   - options: builder options
//
// Returns:
//   - Texture: the texture with one reference held by the caller
//   - error: wraps common.ErrIO if the file cannot be read, common.ErrImage if it cannot be decoded
func FromPath(u Uploader, path string, filter FilterMode, options ...TextureBuilderOption) (Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIO, err)
	}
	return FromBytes(u, data, filter, append([]TextureBuilderOption{WithLabel(path)}, options...)...)
}

// FromBytes decodes an encoded image and creates a texture from it.
//
// Parameters:
//   - u: the device uploader
//   - data: encoded image bytes
//   - filter: sampler filter mode
//   - options: builder options
//
// Returns:
//   - Texture: the texture with one reference held by the caller
//   - error: wraps common.ErrImage if decoding fails
func FromBytes(u Uploader, data []byte, filter FilterMode, options ...TextureBuilderOption) (Texture, error) {
	img, err := common.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return FromRGBA(u, img.Pix, uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy()), filter, options...)
}

// FromRGBA creates a texture from tightly packed, straight alpha RGBA pixels. The upload happens in a single queue write.
//
// Parameters:
//   - u: the device uploader
//   - pixels: width*height*4 bytes, row-major
//   - width, height: size in pixels
//   - filter: sampler filter mode
//   - options: builder options
//
// Returns:
//   - Texture: the texture with one reference held by the caller
//   - error: error if the pixel data does not match the size or a GPU object could not be created
func FromRGBA(u Uploader, pixels []byte, width, height uint32, filter FilterMode, options ...TextureBuilderOption) (Texture, error) {
	t := &textureImpl{
		width:  width,
		height: height,
		filter: filter,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.label == "" {
		t.label = "texture_" + strconv.FormatUint(textureCount.Add(1)-1, 10)
	}

	staging := common.TextureStagingData{Pixels: pixels, Width: width, Height: height, Label: t.label}
	if err := staging.Validate(); err != nil {
		return nil, fmt.Errorf("texture %s: %w", t.label, err)
	}

	t.provider = u.NewBindGroupProvider(t.label)
	if err := t.upload(u, staging); err != nil {
		t.provider.Release()
		return nil, fmt.Errorf("texture %s: %w", t.label, err)
	}

	t.refs.Store(1)
	common.Logger().Debug("texture created", "label", t.label, "width", width, "height", height, "filter", filter.String())
	return t, nil
}

// White creates the 1x1 opaque white texture used when a batch has no texture of its own.
func White(u Uploader) (Texture, error) {
	return FromRGBA(u, []byte{0xFF, 0xFF, 0xFF, 0xFF}, 1, 1, FilterNearest, WithLabel("default_white"))
}

func (t *textureImpl) upload(u Uploader, staging common.TextureStagingData) error {
	if err := u.InitTextureView(t.provider, TextureBinding, staging); err != nil {
		return err
	}
	if err := u.InitSampler(t.provider, SamplerBinding, t.filter.SamplerData()); err != nil {
		return err
	}
	return u.InitBindGroup(t.provider, LayoutDescriptor(), nil, nil)
}

func (t *textureImpl) Label() string {
	return t.label
}

func (t *textureImpl) Width() uint32 {
	return t.width
}

func (t *textureImpl) Height() uint32 {
	return t.height
}

func (t *textureImpl) FilterMode() FilterMode {
	return t.filter
}

func (t *textureImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return t.provider
}

func (t *textureImpl) Resident() bool {
	return t.refs.Load() > 0 && t.provider != nil && t.provider.Resident()
}

func (t *textureImpl) Retain() {
	t.refs.Add(1)
}

func (t *textureImpl) Release() {
	for {
		n := t.refs.Load()
		if n <= 0 {
			common.Logger().Warn("texture released more times than retained", "label", t.label)
			return
		}
		if t.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				t.provider.Release()
				common.Logger().Debug("texture freed", "label", t.label)
			}
			return
		}
	}
}

func (t *textureImpl) RefCount() int32 {
	return t.refs.Load()
}
