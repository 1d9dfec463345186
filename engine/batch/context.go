// Package batch accumulates quad vertices for one texture group between flushes.
//
// A Context is single-threaded: it is filled, flushed and reset on the frame's control thread.
package batch

import (
	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/texture"
)

// Context is a fixed-capacity accumulator of quad vertices bound to a single texture.
//
// Every draw appends one quad (4 vertices) in the corner order top-left, top-right, bottom-right,
// bottom-left, which is the order QuadIndices assumes. Quads are corner-anchored: (x, y) is the
// top-left corner in screen space.
type Context interface {
	// DrawRect appends a quad spanning [x, x+w] x [y, y+h] that samples the whole texture.
	//
	// Parameters:
	//   - x, y: top-left corner in logical pixels
	//   - w, h: width and height in logical pixels
	//   - color: tint applied to all four vertices
	//
	// Returns:
	//   - error: a *common.CapacityError if the context is full; nothing is written in that case
	DrawRect(x, y, w, h float32, color common.Color) error

	// DrawQuad appends a square quad. It is DrawRect(x, y, size, size, color).
	//
	// Parameters:
	//   - x, y: top-left corner in logical pixels
	//   - size: edge length in logical pixels
	//   - color: tint applied to all four vertices
	//
	// Returns:
	//   - error: a *common.CapacityError if the context is full
	DrawQuad(x, y, size float32, color common.Color) error

	// DrawTextureRegion appends a quad with DrawRect geometry that samples uv instead of the whole texture.
	// uv.Min maps onto the top-left corner and uv.Max onto the bottom-right corner.
	//
	// Parameters:
	//   - x, y: top-left corner in logical pixels
	//   - w, h: width and height in logical pixels
	//   - color: tint applied to all four vertices
	//   - uv: normalized texture region, usually from an atlas
	//
	// Returns:
	//   - error: a *common.CapacityError if the context is full
	DrawTextureRegion(x, y, w, h float32, color common.Color, uv common.Rect) error

	// Reset rewinds the write offset to zero. Vertex contents are left in place and overwritten by later draws.
	Reset()

	// Vertices returns the filled prefix of the vertex array. The slice aliases the context's storage
	// and is only valid until the next draw or Reset.
	//
	// Returns:
	//   - []Vertex: vertices [0, Len())
	Vertices() []Vertex

	// Bytes returns the filled prefix as raw bytes for a GPU upload.
	//
	// Returns:
	//   - []byte: Len()*VertexSize bytes, or nil when empty
	Bytes() []byte

	// Len returns the number of vertices written since the last Reset. It is always a multiple of 4.
	Len() int

	// QuadCount returns the number of quads written since the last Reset.
	QuadCount() int

	// IndexCount returns the number of indices needed to draw the written quads.
	IndexCount() uint32

	// Capacity returns the maximum number of vertices the context can hold.
	Capacity() int

	// Texture returns the texture this context is bound to, or nil for the renderer's default texture.
	Texture() texture.Texture

	// SetTexture rebinds the context to t. The previous texture is released and t is retained.
	SetTexture(t texture.Texture)

	// Release drops the context's reference on its texture.
	Release()
}

type contextImpl struct {
	vertices    []Vertex
	writeOffset int
	texture     texture.Texture
	maxQuads    int
}

var _ Context = &contextImpl{}

// NewContext creates a batch context bound to tex. The context retains tex until Release.
// A nil tex means the pipeline's default texture is used at draw time.
//
// Parameters:
//   - tex: the texture sampled by every quad in this context, or nil
//   - options: builder options such as WithCapacity
//
// Returns:
//   - Context: the new, empty context
func NewContext(tex texture.Texture, options ...ContextBuilderOption) Context {
	c := &contextImpl{maxQuads: DefaultMaxQuads}
	for _, opt := range options {
		opt(c)
	}
	c.maxQuads = common.Clamp(c.maxQuads, 1, MaxQuadLimit)
	c.vertices = make([]Vertex, c.maxQuads*VerticesPerQuad)

	if tex != nil {
		tex.Retain()
	}
	c.texture = tex
	return c
}

func (c *contextImpl) DrawRect(x, y, w, h float32, color common.Color) error {
	return c.appendQuad(x, y, w, h, color, common.FullRect)
}

func (c *contextImpl) DrawQuad(x, y, size float32, color common.Color) error {
	return c.appendQuad(x, y, size, size, color, common.FullRect)
}

func (c *contextImpl) DrawTextureRegion(x, y, w, h float32, color common.Color, uv common.Rect) error {
	return c.appendQuad(x, y, w, h, color, uv)
}

func (c *contextImpl) Reset() {
	c.writeOffset = 0
}

func (c *contextImpl) Vertices() []Vertex {
	return c.vertices[:c.writeOffset]
}

func (c *contextImpl) Bytes() []byte {
	return common.SliceToBytes(c.Vertices())
}

func (c *contextImpl) Len() int {
	return c.writeOffset
}

func (c *contextImpl) QuadCount() int {
	return c.writeOffset / VerticesPerQuad
}

func (c *contextImpl) IndexCount() uint32 {
	return IndexCount(c.QuadCount())
}

func (c *contextImpl) Capacity() int {
	return len(c.vertices)
}

func (c *contextImpl) Texture() texture.Texture {
	return c.texture
}

func (c *contextImpl) SetTexture(t texture.Texture) {
	if t == c.texture {
		return
	}
	if t != nil {
		t.Retain()
	}
	if c.texture != nil {
		c.texture.Release()
	}
	c.texture = t
}

func (c *contextImpl) Release() {
	if c.texture != nil {
		c.texture.Release()
		c.texture = nil
	}
}

// appendQuad writes one quad at the write cursor after checking capacity.
func (c *contextImpl) appendQuad(x, y, w, h float32, color common.Color, uv common.Rect) error {
	next := c.writeOffset + VerticesPerQuad
	if next > len(c.vertices) {
		return &common.CapacityError{What: "batch vertices", Requested: next, Capacity: len(c.vertices)}
	}

	rgba := color.Array4()
	quad := c.vertices[c.writeOffset:next]
	quad[0] = Vertex{Position: [3]float32{x, y, 0}, Color: rgba, TexCoords: [2]float32{uv.Min[0], uv.Min[1]}}
	quad[1] = Vertex{Position: [3]float32{x + w, y, 0}, Color: rgba, TexCoords: [2]float32{uv.Max[0], uv.Min[1]}}
	quad[2] = Vertex{Position: [3]float32{x + w, y + h, 0}, Color: rgba, TexCoords: [2]float32{uv.Max[0], uv.Max[1]}}
	quad[3] = Vertex{Position: [3]float32{x, y + h, 0}, Color: rgba, TexCoords: [2]float32{uv.Min[0], uv.Max[1]}}

	c.writeOffset = next
	return nil
}
