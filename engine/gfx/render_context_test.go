package gfx

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/batch"
	"github.com/Carmen-Shannon/kaffee/engine/config"
	"github.com/Carmen-Shannon/kaffee/engine/renderer"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/batch_pipeline"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/kaffee/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeProvider struct {
	bind_group_provider.BindGroupProvider
}

func (p *fakeProvider) Release() {}

type fakeDevice struct {
	pipelines []pipeline.Pipeline
	draws     []renderer.DrawCommand
	clears    []common.Color
	resizes   [][2]int
	beginErr  error
	ended     int
	presented int
}

func (d *fakeDevice) CreateBuffer(string, wgpu.BufferUsage, uint64) (*wgpu.Buffer, error) {
	return &wgpu.Buffer{}, nil
}

func (d *fakeDevice) WriteBuffer(*wgpu.Buffer, uint64, []byte) {}

func (d *fakeDevice) NewBindGroupProvider(label string) bind_group_provider.BindGroupProvider {
	return &fakeProvider{BindGroupProvider: bind_group_provider.NewBindGroupProvider(label)}
}

func (d *fakeDevice) InitTextureView(p bind_group_provider.BindGroupProvider, binding int, _ common.TextureStagingData) error {
	p.SetTextureView(binding, &wgpu.TextureView{})
	return nil
}

func (d *fakeDevice) InitSampler(p bind_group_provider.BindGroupProvider, binding int, _ common.SamplerStagingData) error {
	p.SetSampler(binding, &wgpu.Sampler{})
	return nil
}

func (d *fakeDevice) InitBindGroup(p bind_group_provider.BindGroupProvider, desc wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, _ map[int]uint64) error {
	for _, e := range desc.Entries {
		if e.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			p.SetBuffer(int(e.Binding), &wgpu.Buffer{})
		}
	}
	p.SetBindGroup(&wgpu.BindGroup{})
	return nil
}

func (d *fakeDevice) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	d.pipelines = append(d.pipelines, pipelines...)
	return nil
}

func (d *fakeDevice) WriteBuffers([]bind_group_provider.BufferWrite) {}

func (d *fakeDevice) DrawIndexed(_ string, cmd renderer.DrawCommand) error {
	d.draws = append(d.draws, cmd)
	return nil
}

func (d *fakeDevice) BeginFrame(clear common.Color) error {
	if d.beginErr != nil {
		return d.beginErr
	}
	d.clears = append(d.clears, clear)
	return nil
}

func (d *fakeDevice) EndFrame() { d.ended++ }

func (d *fakeDevice) Present() { d.presented++ }

func (d *fakeDevice) Resize(width, height int) {
	d.resizes = append(d.resizes, [2]int{width, height})
}

func newTestContext(t *testing.T, d *fakeDevice, options ...RenderContextBuilderOption) *RenderContext {
	t.Helper()
	settings := config.Default()
	settings.MaxQuads = 16
	rc, err := NewRenderContext(d, settings, options...)
	if err != nil {
		t.Fatalf("NewRenderContext: %v", err)
	}
	return rc
}

func rects(n int) func(b batch.Context) error {
	return func(b batch.Context) error {
		for i := 0; i < n; i++ {
			if err := b.DrawRect(float32(i*8), 0, 8, 8, common.White); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestNewRenderContext(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d)

	if rc.MaxQuads() != 16 {
		t.Errorf("MaxQuads() = %d, want 16", rc.MaxQuads())
	}
	if len(d.pipelines) != 1 || d.pipelines[0].PipelineKey() != rc.Pipeline().Key() {
		t.Errorf("registered pipelines = %d", len(d.pipelines))
	}
	if got := rc.DefaultTexture().RefCount(); got != 2 {
		t.Errorf("default texture refs = %d, want 2", got)
	}
	if w, h := rc.Camera().Width(), rc.Camera().Height(); w != 1024 || h != 768 {
		t.Errorf("camera viewport = %vx%v, want 1024x768", w, h)
	}
	if rc.ClearColor() != common.Black {
		t.Errorf("ClearColor() = %v, want black", rc.ClearColor())
	}
}

func TestPipelineOptionsOverrideQuadBudget(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d, WithPipelineOptions(batch_pipeline.WithMaxQuads(4)))

	if rc.MaxQuads() != 4 {
		t.Fatalf("MaxQuads() = %d, want 4", rc.MaxQuads())
	}
	if got := rc.CreateBatch(nil).Capacity(); got != 16 {
		t.Errorf("batch capacity = %d vertices, want 16", got)
	}
}

func TestFrame(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d)
	rc.SetClearColor(common.Blue)

	if err := rc.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := rc.DrawBatch(rects(3)); err != nil {
		t.Fatal(err)
	}
	if err := rc.EndFrame(); err != nil {
		t.Fatal(err)
	}

	if len(d.clears) != 1 || d.clears[0] != common.Blue {
		t.Errorf("clears = %v, want [blue]", d.clears)
	}
	if len(d.draws) != 1 || d.draws[0].IndexCount != 18 || d.draws[0].BaseVertex != 0 {
		t.Fatalf("draws = %+v", d.draws)
	}
	if got := d.draws[0].BindGroups[batch_pipeline.TextureGroup]; got != rc.DefaultTexture().BindGroupProvider() {
		t.Error("default batch should sample the default texture")
	}
	if d.ended != 1 || d.presented != 1 {
		t.Errorf("ended = %d, presented = %d, want 1 and 1", d.ended, d.presented)
	}
}

func TestBatchesShareTheFrame(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d)
	tex, err := texture.White(d)
	if err != nil {
		t.Fatal(err)
	}
	own := rc.CreateBatch(tex)

	if err := rc.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := rc.DrawBatch(rects(2)); err != nil {
		t.Fatal(err)
	}
	if err := rc.DrawBatchEx(own, rects(1)); err != nil {
		t.Fatal(err)
	}
	if err := rc.EndFrame(); err != nil {
		t.Fatal(err)
	}

	if len(d.draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(d.draws))
	}
	if d.draws[1].BaseVertex != 8 || d.draws[1].IndexCount != 6 {
		t.Errorf("second draw = %+v, want base vertex 8 and 6 indices", d.draws[1])
	}
	if d.draws[1].BindGroups[batch_pipeline.TextureGroup] != tex.BindGroupProvider() {
		t.Error("second draw should sample the batch texture")
	}
	if d.ended != 1 || d.presented != 1 {
		t.Errorf("a frame should submit once, got ended = %d presented = %d", d.ended, d.presented)
	}
}

func TestDrawBatchResetsEachFrame(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d)

	for frame := 0; frame < 3; frame++ {
		if err := rc.BeginFrame(); err != nil {
			t.Fatal(err)
		}
		if err := rc.DrawBatch(rects(2)); err != nil {
			t.Fatal(err)
		}
		if err := rc.EndFrame(); err != nil {
			t.Fatal(err)
		}
	}
	for i, cmd := range d.draws {
		if cmd.IndexCount != 12 || cmd.BaseVertex != 0 {
			t.Errorf("frame %d draw = %+v, want 12 indices at base vertex 0", i, cmd)
		}
	}
}

func TestFrameErrors(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d)

	if err := rc.DrawBatch(rects(1)); !errors.Is(err, ErrNoFrame) {
		t.Errorf("DrawBatch outside a frame = %v, want ErrNoFrame", err)
	}
	if err := rc.EndFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("EndFrame outside a frame = %v, want ErrNoFrame", err)
	}

	if err := rc.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	if err := rc.BeginFrame(); !errors.Is(err, ErrFrameInProgress) {
		t.Errorf("second BeginFrame = %v, want ErrFrameInProgress", err)
	}
	if err := rc.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if len(d.draws) != 0 {
		t.Errorf("draws = %d, want 0", len(d.draws))
	}
}

func TestSurfaceErrorSkipsFrame(t *testing.T) {
	d := &fakeDevice{beginErr: fmt.Errorf("acquire: %w", common.ErrSurface)}
	rc := newTestContext(t, d)

	if err := rc.BeginFrame(); !errors.Is(err, common.ErrSurface) {
		t.Fatalf("BeginFrame = %v, want ErrSurface", err)
	}
	if err := rc.DrawBatch(rects(1)); !errors.Is(err, ErrNoFrame) {
		t.Errorf("DrawBatch after a skipped frame = %v, want ErrNoFrame", err)
	}

	d.beginErr = nil
	if err := rc.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame after recovery = %v", err)
	}
	if err := rc.DrawBatch(rects(1)); err != nil {
		t.Fatal(err)
	}
	if err := rc.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if len(d.draws) != 1 || d.presented != 1 {
		t.Errorf("draws = %d, presented = %d, want 1 and 1", len(d.draws), d.presented)
	}
}

func TestDrawBatchFillErrorAbortsDraw(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d, WithPipelineOptions(batch_pipeline.WithMaxQuads(2)))

	if err := rc.BeginFrame(); err != nil {
		t.Fatal(err)
	}
	err := rc.DrawBatch(rects(3))
	var capErr *common.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("DrawBatch = %v, want *common.CapacityError", err)
	}
	if !errors.Is(err, common.ErrCapacity) {
		t.Error("capacity error should match ErrCapacity")
	}
	if len(d.draws) != 0 {
		t.Errorf("draws = %d, want 0", len(d.draws))
	}

	if err := rc.DrawBatch(rects(2)); err != nil {
		t.Fatalf("DrawBatch within capacity = %v", err)
	}
	if len(d.draws) != 1 {
		t.Errorf("draws = %d, want 1", len(d.draws))
	}
}

func TestResize(t *testing.T) {
	d := &fakeDevice{}
	rc := newTestContext(t, d)

	rc.Resize(1600, 1200, 2)
	rc.Resize(0, 600, 1)

	want := [][2]int{{1600, 1200}, {0, 600}}
	if len(d.resizes) != len(want) || d.resizes[0] != want[0] || d.resizes[1] != want[1] {
		t.Errorf("resizes = %v, want %v", d.resizes, want)
	}
	if w, h := rc.Camera().Width(), rc.Camera().Height(); w != 800 || h != 600 {
		t.Errorf("camera viewport = %vx%v, want 800x600", w, h)
	}
	if !rc.Camera().Dirty() {
		t.Error("camera should be dirty until the next frame")
	}
}

func TestLoadTextureMissingFile(t *testing.T) {
	rc := newTestContext(t, &fakeDevice{})

	_, err := rc.LoadTexture(filepath.Join(t.TempDir(), "missing.png"), texture.FilterNearest)
	if !errors.Is(err, common.ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}
