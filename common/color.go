package common

import "github.com/cogentcore/webgpu/wgpu"

// Color is a linear RGBA color. Channels are conventionally in [0, 1] but this is not enforced.
type Color struct {
	R, G, B, A float32
}

var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Red         = Color{1, 0.2, 0.2, 1}
	Green       = Color{0.2, 0.9, 0.2, 1}
	Blue        = Color{0, 0.2, 1, 1}
	Yellow      = Color{1, 0.86, 0, 0.5}
	Pink        = Color{1, 0, 1, 0.5}
	Transparent = Color{0, 0, 0, 0}
)

// RGB creates an opaque color.
func RGB(r, g, b float32) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// Array3 returns the color channels without alpha.
func (c Color) Array3() [3]float32 {
	return [3]float32{c.R, c.G, c.B}
}

// Array4 returns all four color channels.
func (c Color) Array4() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// WGPU converts the color into the clear value type used by render pass attachments.
func (c Color) WGPU() wgpu.Color {
	return wgpu.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
}
