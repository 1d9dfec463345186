// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Rect is an axis-aligned region in normalized [0, 1] texture space, used to select a sub-image of an atlas.
type Rect struct {
	Min [2]float32
	Max [2]float32
}

// FullRect covers the whole texture.
var FullRect = Rect{Min: [2]float32{0, 0}, Max: [2]float32{1, 1}}

// Width returns the horizontal extent of the rect.
func (r Rect) Width() float32 { return r.Max[0] - r.Min[0] }

// Height returns the vertical extent of the rect.
func (r Rect) Height() float32 { return r.Max[1] - r.Min[1] }

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// This is primarily used in the BindGroupProvider to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the tightly packed RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Label names the GPU texture for debugging.
	Label string
}

// Validate checks that the pixel slice matches the declared dimensions.
func (t TextureStagingData) Validate() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("texture dimensions must be non-zero, got %dx%d", t.Width, t.Height)
	}
	if want := int(t.Width) * int(t.Height) * 4; len(t.Pixels) != want {
		return fmt.Errorf("texture pixel data is %d bytes, want %d for %dx%d RGBA", len(t.Pixels), want, t.Width, t.Height)
	}
	return nil
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy is the maximum anisotropy level. WebGPU requires at least 1.
	MaxAnisotropy uint16
}

// DecodeImage decodes an encoded image (PNG, JPEG, GIF, BMP, TIFF or WebP) into tightly packed, straight
// (non-premultiplied) RGBA. Errors wrap ErrImage.
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - *image.NRGBA: the decoded image with its origin at (0, 0)
//   - error: error if the bytes could not be decoded
func DecodeImage(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", ErrImage)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImage, err)
	}

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) && nrgba.Stride == nrgba.Bounds().Dx()*4 {
		return nrgba, nil
	}

	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, xdraw.Src)

	Logger().Debug("decoded image", "format", format, "width", bounds.Dx(), "height", bounds.Dy())
	return nrgba, nil
}
