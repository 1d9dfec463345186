package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestMul4Identity(t *testing.T) {
	var id, m, out [16]float32
	Identity(id[:])
	for i := range m {
		m[i] = float32(i + 1)
	}

	Mul4(out[:], id[:], m[:])
	if out != m {
		t.Errorf("I*M = %v, want %v", out, m)
	}
	Mul4(out[:], m[:], id[:])
	if out != m {
		t.Errorf("M*I = %v, want %v", out, m)
	}
}

func TestOrthographicCorners(t *testing.T) {
	var ortho [16]float32
	Orthographic(ortho[:], 0, 1024, 512, 0, -1, 1)

	tests := []struct {
		name   string
		in     [4]float32
		wantXY [2]float32
	}{
		{"top-left", [4]float32{0, 0, 0, 1}, [2]float32{-1, 1}},
		{"bottom-right", [4]float32{1024, 512, 0, 1}, [2]float32{1, -1}},
		{"center", [4]float32{512, 256, 0, 1}, [2]float32{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MulVec4(ortho[:], tt.in)
			if got[0] != tt.wantXY[0] || got[1] != tt.wantXY[1] {
				t.Errorf("clip xy = (%v, %v), want %v", got[0], got[1], tt.wantXY)
			}
		})
	}
}

func TestOpenGLToWGPUDepth(t *testing.T) {
	m := OpenGLToWGPU()
	near := MulVec4(m[:], [4]float32{0, 0, -1, 1})
	far := MulVec4(m[:], [4]float32{0, 0, 1, 1})
	if near[2] != 0 || far[2] != 1 {
		t.Errorf("depth remap = (%v, %v), want (0, 1)", near[2], far[2])
	}
}

func TestTranslation(t *testing.T) {
	var m [16]float32
	Translation(m[:], 3, -4, 0)
	got := MulVec4(m[:], [4]float32{1, 1, 0, 1})
	if got != [4]float32{4, -3, 0, 1} {
		t.Errorf("translated point = %v", got)
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ n, align, want uint64 }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{36, 4, 36},
		{37, 4, 40},
		{130, 256, 256},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.n, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.n, tt.align, got, tt.want)
		}
	}
}

func TestColorConversions(t *testing.T) {
	c := Color{0.25, 0.5, 0.75, 1}
	if got := c.Array3(); got != [3]float32{0.25, 0.5, 0.75} {
		t.Errorf("Array3 = %v", got)
	}
	if got := c.Array4(); got != [4]float32{0.25, 0.5, 0.75, 1} {
		t.Errorf("Array4 = %v", got)
	}
	w := c.WGPU()
	if w.R != 0.25 || w.G != 0.5 || w.B != 0.75 || w.A != 1 {
		t.Errorf("WGPU = %+v", w)
	}
	if RGB(1, 1, 1) != White {
		t.Error("RGB(1,1,1) should equal White")
	}
}

func TestCapacityError(t *testing.T) {
	var err error = &CapacityError{What: "vertices", Requested: 12, Capacity: 8}
	wrapped := fmt.Errorf("draw: %w", err)

	if !errors.Is(wrapped, ErrCapacity) {
		t.Error("errors.Is(wrapped, ErrCapacity) = false")
	}
	var ce *CapacityError
	if !errors.As(wrapped, &ce) {
		t.Fatal("errors.As did not find *CapacityError")
	}
	if ce.Requested != 12 || ce.Capacity != 8 {
		t.Errorf("got %+v", ce)
	}
}

func TestDecodeImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	src.Set(1, 0, color.NRGBA{0, 255, 0, 255})
	src.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	src.Set(1, 1, color.NRGBA{255, 255, 255, 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("size = %v, want 2x2", img.Bounds())
	}
	if len(img.Pix) != 16 {
		t.Fatalf("pixel bytes = %d, want 16", len(img.Pix))
	}
	if got := img.Pix[4:8]; !bytes.Equal(got, []byte{0, 255, 0, 255}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
}

func TestDecodeImageKeepsStraightAlpha(t *testing.T) {
	half := color.NRGBA{255, 0, 0, 128}
	for name, src := range map[string]image.Image{
		"nrgba": func() image.Image {
			img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
			img.Set(0, 0, half)
			return img
		}(),
		"nrgba64": func() image.Image {
			img := image.NewNRGBA64(image.Rect(0, 0, 1, 1))
			img.Set(0, 0, color.NRGBA64{0xFFFF, 0, 0, 0x8080})
			return img
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := png.Encode(&buf, src); err != nil {
				t.Fatal(err)
			}
			img, err := DecodeImage(buf.Bytes())
			if err != nil {
				t.Fatalf("DecodeImage: %v", err)
			}
			want := []byte{half.R, half.G, half.B, half.A}
			if got := img.Pix[0:4]; !bytes.Equal(got, want) {
				t.Errorf("pixel = %v, want %v", got, want)
			}
		})
	}
}

func TestDecodeImageErrors(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("not an image"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeImage(data)
			if !errors.Is(err, ErrImage) {
				t.Errorf("err = %v, want ErrImage", err)
			}
		})
	}
}

func TestTextureStagingDataValidate(t *testing.T) {
	ok := TextureStagingData{Pixels: make([]byte, 16), Width: 2, Height: 2}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid staging data: %v", err)
	}
	short := TextureStagingData{Pixels: make([]byte, 15), Width: 2, Height: 2}
	if err := short.Validate(); err == nil {
		t.Error("short pixel data should fail")
	}
	zero := TextureStagingData{}
	if err := zero.Validate(); err == nil {
		t.Error("zero dimensions should fail")
	}
}

func TestCoalesceAndClamp(t *testing.T) {
	if got := Coalesce("", "a", "b"); got != "a" {
		t.Errorf("Coalesce = %q", got)
	}
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp = %d", got)
	}
	if got := Clamp(float32(-1), 0, 1); got != 0 {
		t.Errorf("Clamp = %v", got)
	}
}
