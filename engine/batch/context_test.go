package batch

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/kaffee/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeTexture struct {
	refs int32
}

var _ texture.Texture = &fakeTexture{}

func (t *fakeTexture) Label() string { return "fake" }
func (t *fakeTexture) Width() uint32 { return 16 }
func (t *fakeTexture) Height() uint32 { return 16 }
func (t *fakeTexture) FilterMode() texture.FilterMode { return texture.FilterNearest }
func (t *fakeTexture) Resident() bool { return t.refs > 0 }
func (t *fakeTexture) Retain() { t.refs++ }
func (t *fakeTexture) Release() { t.refs-- }
func (t *fakeTexture) RefCount() int32 { return t.refs }

func (t *fakeTexture) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return nil
}

func TestDrawAppendsFourVerticesPerQuad(t *testing.T) {
	c := NewContext(nil, WithCapacity(10))
	for i := 0; i < 5; i++ {
		if err := c.DrawRect(float32(i), 0, 1, 1, common.White); err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
	}
	if c.Len() != 20 || c.QuadCount() != 5 || c.IndexCount() != 30 {
		t.Errorf("len/quads/indices = %d/%d/%d, want 20/5/30", c.Len(), c.QuadCount(), c.IndexCount())
	}
	if len(c.Bytes()) != 20*int(VertexSize) {
		t.Errorf("Bytes() = %d bytes, want %d", len(c.Bytes()), 20*VertexSize)
	}
}

func TestQuadGeometry(t *testing.T) {
	c := NewContext(nil)
	if err := c.DrawRect(10, 20, 30, 40, common.Red); err != nil {
		t.Fatal(err)
	}

	want := [4][3]float32{{10, 20, 0}, {40, 20, 0}, {40, 60, 0}, {10, 60, 0}}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, v := range c.Vertices() {
		if v.Position != want[i] {
			t.Errorf("vertex %d position = %v, want %v", i, v.Position, want[i])
		}
		if v.TexCoords != uvs[i] {
			t.Errorf("vertex %d uv = %v, want %v", i, v.TexCoords, uvs[i])
		}
		if v.Color != common.Red.Array4() {
			t.Errorf("vertex %d color = %v, want %v", i, v.Color, common.Red.Array4())
		}
	}
}

func TestDrawTextureRegion(t *testing.T) {
	c := NewContext(nil)
	uv := common.Rect{Min: [2]float32{0.25, 0.5}, Max: [2]float32{0.5, 0.75}}
	if err := c.DrawTextureRegion(0, 0, 8, 8, common.White, uv); err != nil {
		t.Fatal(err)
	}
	want := [4][2]float32{{0.25, 0.5}, {0.5, 0.5}, {0.5, 0.75}, {0.25, 0.75}}
	for i, v := range c.Vertices() {
		if v.TexCoords != want[i] {
			t.Errorf("vertex %d uv = %v, want %v", i, v.TexCoords, want[i])
		}
	}
}

func TestEquivalentDrawCalls(t *testing.T) {
	rect := NewContext(nil)
	quad := NewContext(nil)
	region := NewContext(nil)

	_ = rect.DrawRect(3, 4, 5, 5, common.Blue)
	_ = quad.DrawQuad(3, 4, 5, common.Blue)
	_ = region.DrawTextureRegion(3, 4, 5, 5, common.Blue, common.FullRect)

	if !bytes.Equal(rect.Bytes(), quad.Bytes()) {
		t.Error("DrawQuad should match DrawRect with equal sides")
	}
	if !bytes.Equal(rect.Bytes(), region.Bytes()) {
		t.Error("DrawTextureRegion with FullRect should match DrawRect")
	}
}

func TestResetReproducesFrame(t *testing.T) {
	c := NewContext(nil, WithCapacity(4))
	frame := func() []byte {
		c.Reset()
		_ = c.DrawRect(0, 0, 100, 100, common.Green)
		_ = c.DrawQuad(50, 50, 10, common.Yellow)
		return append([]byte(nil), c.Bytes()...)
	}

	first := frame()
	second := frame()
	if !bytes.Equal(first, second) {
		t.Error("identical draws after Reset should produce identical bytes")
	}

	c.Reset()
	if c.Len() != 0 || len(c.Bytes()) != 0 {
		t.Errorf("Reset left %d vertices", c.Len())
	}
}

func TestCapacityBoundary(t *testing.T) {
	c := NewContext(nil, WithCapacity(3))
	for i := 0; i < 3; i++ {
		if err := c.DrawQuad(0, 0, 1, common.White); err != nil {
			t.Fatalf("draw %d within capacity: %v", i, err)
		}
	}

	err := c.DrawQuad(0, 0, 1, common.White)
	if !errors.Is(err, common.ErrCapacity) {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
	var capErr *common.CapacityError
	if !errors.As(err, &capErr) || capErr.Requested != 16 || capErr.Capacity != 12 {
		t.Errorf("capacity error = %+v", capErr)
	}
	if c.Len() != 12 {
		t.Errorf("failed draw changed Len() to %d", c.Len())
	}
}

func TestCapacityIsClamped(t *testing.T) {
	tests := []struct {
		name    string
		options []ContextBuilderOption
		want    int
	}{
		{"default", nil, DefaultMaxQuads * VerticesPerQuad},
		{"minimum", []ContextBuilderOption{WithCapacity(-5)}, VerticesPerQuad},
		{"maximum", []ContextBuilderOption{WithCapacity(MaxQuadLimit + 1)}, MaxQuadLimit * VerticesPerQuad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext(nil, tt.options...)
			if c.Capacity() != tt.want {
				t.Errorf("Capacity() = %d, want %d", c.Capacity(), tt.want)
			}
		})
	}
}

func TestContextTextureReferences(t *testing.T) {
	a := &fakeTexture{refs: 1}
	b := &fakeTexture{refs: 1}

	c := NewContext(a)
	if a.refs != 2 || c.Texture() != a {
		t.Fatalf("refs = %d, want 2", a.refs)
	}

	c.SetTexture(b)
	if a.refs != 1 || b.refs != 2 {
		t.Errorf("after rebind refs = %d/%d, want 1/2", a.refs, b.refs)
	}

	c.SetTexture(b)
	if b.refs != 2 {
		t.Errorf("rebinding the same texture changed refs to %d", b.refs)
	}

	c.Release()
	c.Release()
	if b.refs != 1 || c.Texture() != nil {
		t.Errorf("after release refs = %d", b.refs)
	}
}

func TestQuadIndices(t *testing.T) {
	indices, err := QuadIndices(3)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint16{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4, 8, 9, 10, 10, 11, 8}
	if len(indices) != len(want) {
		t.Fatalf("len = %d, want %d", len(indices), len(want))
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("indices[%d] = %d, want %d", i, indices[i], want[i])
		}
	}

	full, err := QuadIndices(MaxQuadLimit)
	if err != nil {
		t.Fatal(err)
	}
	if last := full[len(full)-2]; last != 65535 {
		t.Errorf("last corner index = %d, want 65535", last)
	}

	if _, err := QuadIndices(0); err == nil {
		t.Error("zero quads should fail")
	}
	if _, err := QuadIndices(MaxQuadLimit + 1); !errors.Is(err, common.ErrCapacity) {
		t.Errorf("err = %v, want ErrCapacity", err)
	}
}

func TestVertexLayout(t *testing.T) {
	if VertexSize != 36 {
		t.Fatalf("VertexSize = %d, want 36", VertexSize)
	}

	layout := VertexLayout()
	if layout.ArrayStride != VertexSize || layout.StepMode != wgpu.VertexStepModeVertex {
		t.Errorf("stride/step = %d/%v", layout.ArrayStride, layout.StepMode)
	}
	want := []struct {
		format   wgpu.VertexFormat
		offset   uint64
		location uint32
	}{
		{wgpu.VertexFormatFloat32x3, 0, 0},
		{wgpu.VertexFormatFloat32x4, 12, 1},
		{wgpu.VertexFormatFloat32x2, 28, 2},
	}
	for i, w := range want {
		a := layout.Attributes[i]
		if a.Format != w.format || a.Offset != w.offset || a.ShaderLocation != w.location {
			t.Errorf("attribute %d = %+v", i, a)
		}
	}
}
