package camera

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/kaffee/common"
)

func TestViewProjectionDeterministic(t *testing.T) {
	a := NewCamera2D(WithViewport(1024, 768))
	b := NewCamera2D(WithViewport(1024, 768))

	if a.ViewProjectionMatrix() != b.ViewProjectionMatrix() {
		t.Error("identical cameras produced different matrices")
	}
	if ViewProjection(1024, 768, 0, 0) != ViewProjection(1024, 768, 0, 0) {
		t.Error("ViewProjection is not deterministic")
	}
}

func TestViewProjectionCorners(t *testing.T) {
	tests := []struct {
		name    string
		offset  [2]float32
		point   [2]float32
		wantNDC [3]float32
	}{
		{"top-left", [2]float32{0, 0}, [2]float32{0, 0}, [3]float32{-1, 1, 0.5}},
		{"bottom-right", [2]float32{0, 0}, [2]float32{1024, 512}, [3]float32{1, -1, 0.5}},
		{"center", [2]float32{0, 0}, [2]float32{512, 256}, [3]float32{0, 0, 0.5}},
		{"offset moves origin", [2]float32{16, 0}, [2]float32{-16, 0}, [3]float32{-1, 1, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ViewProjection(1024, 512, tt.offset[0], tt.offset[1])
			got := common.MulVec4(m[:], [4]float32{tt.point[0], tt.point[1], 0, 1})
			if got[0] != tt.wantNDC[0] || got[1] != tt.wantNDC[1] || got[2] != tt.wantNDC[2] || got[3] != 1 {
				t.Errorf("clip = %v, want %v", got, tt.wantNDC)
			}
		})
	}
}

func TestCameraDirtyTracking(t *testing.T) {
	c := NewCamera2D(WithViewport(800, 600))
	if !c.Dirty() {
		t.Fatal("new camera should be dirty until its first upload")
	}
	c.ClearDirty()

	before := c.ViewProjectionMatrix()
	c.SetViewport(-1, 600)
	if c.Dirty() {
		t.Error("ignored viewport should not mark the camera dirty")
	}

	c.SetViewport(400, 300)
	if !c.Dirty() {
		t.Error("viewport change should mark the camera dirty")
	}
	if c.ViewProjectionMatrix() == before {
		t.Error("viewport change should change the matrix")
	}
}

func TestCameraResizeUsesLogicalSize(t *testing.T) {
	c := NewCamera2D()
	c.Resize(2048, 1536, 2)
	if c.Width() != 1024 || c.Height() != 768 || c.ScaleFactor() != 2 {
		t.Errorf("logical size = %vx%v @%v, want 1024x768 @2", c.Width(), c.Height(), c.ScaleFactor())
	}
	if c.ViewProjectionMatrix() != ViewProjection(1024, 768, 0, 0) {
		t.Error("resize should use the logical viewport")
	}

	c.Resize(640, 480, 0)
	if c.ScaleFactor() != 1 || c.Width() != 640 {
		t.Error("non-positive scale factor should be treated as 1")
	}
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera2D(WithViewport(1024, 512), WithOffset(3, 4))
	u := c.Uniform()
	buf := u.Marshal()

	if len(buf) != 128 || GPUCameraUniformSize != 128 {
		t.Fatalf("uniform size = %d (const %d), want 128", len(buf), GPUCameraUniformSize)
	}
	vp := c.ViewProjectionMatrix()
	for i := range 16 {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])); got != vp[i] {
			t.Fatalf("view_proj[%d] = %v, want %v", i, got, vp[i])
		}
	}
	var id [16]float32
	common.Identity(id[:])
	for i := range 16 {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[64+i*4:])); got != id[i] {
			t.Fatalf("model[%d] = %v, want %v", i, got, id[i])
		}
	}
}

func TestCameraProvidersAreUnique(t *testing.T) {
	a, b := NewCamera2D(), NewCamera2D()
	if a.BindGroupProvider().Label() == b.BindGroupProvider().Label() {
		t.Error("cameras should get distinct provider labels")
	}
	if !strings.HasPrefix(a.BindGroupProvider().Label(), "camera_") {
		t.Errorf("label = %q", a.BindGroupProvider().Label())
	}
}

func TestUniformSourceDeclaresStruct(t *testing.T) {
	if !strings.Contains(GPUCameraUniformSource, "struct CameraUniform") {
		t.Error("embedded source should declare CameraUniform")
	}
}
