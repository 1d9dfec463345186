// Package gfx is the drawing surface handed to application code: it owns the batch pipeline, the camera,
// the default white texture and the default batch, and brackets each frame on the renderer.
package gfx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/batch"
	"github.com/Carmen-Shannon/kaffee/engine/camera"
	"github.com/Carmen-Shannon/kaffee/engine/config"
	"github.com/Carmen-Shannon/kaffee/engine/renderer/batch_pipeline"
	"github.com/Carmen-Shannon/kaffee/engine/texture"
)

// ErrNoFrame is returned when drawing or ending a frame outside BeginFrame/EndFrame.
var ErrNoFrame = errors.New("no frame in progress")

// ErrFrameInProgress is returned by BeginFrame when the previous frame was not ended.
var ErrFrameInProgress = errors.New("frame already in progress")

// Device is the renderer surface a RenderContext needs. renderer.Renderer satisfies it.
type Device interface {
	batch_pipeline.Device

	// BeginFrame acquires the next surface texture and opens a render pass cleared to clear.
	BeginFrame(clear common.Color) error

	// EndFrame ends the render pass and submits the frame's commands.
	EndFrame()

	// Present shows the submitted frame.
	Present()

	// Resize reconfigures the surface for a new framebuffer size in pixels.
	Resize(width, height int)
}

// RenderContext draws batches for one window. It is passed to the application explicitly; there is no
// global instance. Methods are safe to call from one goroutine at a time.
type RenderContext struct {
	mu sync.Mutex

	device       Device
	pipeline     batch_pipeline.BatchPipeline
	white        texture.Texture
	defaultBatch batch.Context

	clearColor   common.Color
	maxQuads     int
	filter       texture.FilterMode
	pipelineOpts []batch_pipeline.BatchPipelineBuilderOption

	inFrame bool
}

// NewRenderContext builds the default white texture, a camera sized to the settings window, the batch
// pipeline and the default batch.
//
// Parameters:
//   - d: the renderer to draw through
//   - settings: window size, clear color, quad budget and filter
//   - options: builder options such as WithPipelineOptions
//
// Returns:
//   - *RenderContext: the render context
//   - error: an error from texture upload or pipeline creation
func NewRenderContext(d Device, settings config.Settings, options ...RenderContextBuilderOption) (*RenderContext, error) {
	rc := &RenderContext{
		device:     d,
		clearColor: settings.ClearColor,
		maxQuads:   common.Clamp(settings.MaxQuads, 1, batch.MaxQuadLimit),
		filter:     settings.FilterMode(),
	}
	for _, opt := range options {
		opt(rc)
	}

	white, err := texture.White(d)
	if err != nil {
		return nil, fmt.Errorf("failed to create default texture: %w", err)
	}

	cam := camera.NewCamera2D(camera.WithViewport(float32(settings.Width), float32(settings.Height)))
	opts := append([]batch_pipeline.BatchPipelineBuilderOption{batch_pipeline.WithMaxQuads(rc.maxQuads)}, rc.pipelineOpts...)
	bp, err := batch_pipeline.NewBatchPipeline(d, cam, white, opts...)
	if err != nil {
		white.Release()
		return nil, fmt.Errorf("failed to create batch pipeline: %w", err)
	}

	rc.white = white
	rc.pipeline = bp
	rc.maxQuads = bp.MaxQuads()
	rc.defaultBatch = batch.NewContext(nil, batch.WithCapacity(rc.maxQuads))

	common.Logger().Info("render context ready", "max_quads", rc.maxQuads, "pipeline", bp.Key())
	return rc, nil
}

// CreateBatch creates a batch context that samples tex, sized to the context's quad budget.
// A nil tex samples the default white texture.
//
// Parameters:
//   - tex: the texture for every quad in the batch, or nil
//
// Returns:
//   - batch.Context: the new batch; the caller releases it
func (rc *RenderContext) CreateBatch(tex texture.Texture) batch.Context {
	return batch.NewContext(tex, batch.WithCapacity(rc.maxQuads))
}

// LoadTexture reads and uploads an image file.
//
// Parameters:
//   - path: path to the image file
//   - filter: sampler filter mode
//
// Returns:
//   - texture.Texture: the texture, with one reference held by the caller
//   - error: wraps common.ErrIO or common.ErrImage
func (rc *RenderContext) LoadTexture(path string, filter texture.FilterMode) (texture.Texture, error) {
	return texture.FromPath(rc.device, path, filter)
}

// LoadTextures decodes several image files concurrently and uploads them with the configured filter.
func (rc *RenderContext) LoadTextures(paths ...string) ([]texture.Texture, error) {
	return texture.LoadAll(rc.device, paths, rc.filter)
}

// BeginFrame acquires the next frame and rewinds the batch pipeline.
//
// Returns:
//   - error: wraps common.ErrSurface when the surface has no frame this time; skip the frame and retry
func (rc *RenderContext) BeginFrame() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.inFrame {
		return ErrFrameInProgress
	}
	if err := rc.device.BeginFrame(rc.clearColor); err != nil {
		return err
	}
	rc.pipeline.BeginFrame()
	rc.inFrame = true
	return nil
}

// DrawBatch resets the default batch, fills it with fn and draws it.
//
// Parameters:
//   - fn: fills the batch; an error from fn aborts the draw and is returned
//
// Returns:
//   - error: ErrNoFrame outside a frame, an error from fn, or an error from the draw
func (rc *RenderContext) DrawBatch(fn func(b batch.Context) error) error {
	return rc.DrawBatchEx(rc.defaultBatch, fn)
}

// DrawBatchEx resets ctx, fills it with fn and draws it.
//
// Parameters:
//   - ctx: a batch from CreateBatch
//   - fn: fills the batch; an error from fn aborts the draw and is returned
//
// Returns:
//   - error: ErrNoFrame outside a frame, an error from fn, or an error from the draw
func (rc *RenderContext) DrawBatchEx(ctx batch.Context, fn func(b batch.Context) error) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.inFrame {
		return ErrNoFrame
	}
	ctx.Reset()
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return rc.pipeline.Draw(ctx)
}

// EndFrame submits and presents the frame.
//
// Returns:
//   - error: ErrNoFrame if BeginFrame did not succeed
func (rc *RenderContext) EndFrame() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.inFrame {
		return ErrNoFrame
	}
	rc.inFrame = false
	rc.device.EndFrame()
	rc.device.Present()
	return nil
}

// Resize reconfigures the surface and the camera for a new framebuffer size. A zero size, as reported
// for a minimized window, still reaches the device so BeginFrame reports common.ErrSurface until the
// window is restored; the camera keeps its last viewport.
//
// Parameters:
//   - width, height: framebuffer size in pixels
//   - scaleFactor: window content scale
func (rc *RenderContext) Resize(width, height int, scaleFactor float32) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.device.Resize(width, height)
	if width > 0 && height > 0 {
		rc.pipeline.Resize(width, height, scaleFactor)
	}
}

// SetClearColor sets the color the next frame is cleared to.
func (rc *RenderContext) SetClearColor(c common.Color) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.clearColor = c
}

// ClearColor returns the clear color.
func (rc *RenderContext) ClearColor() common.Color {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.clearColor
}

// Camera returns the camera shared by every batch.
func (rc *RenderContext) Camera() camera.Camera2D {
	return rc.pipeline.Camera()
}

// DefaultTexture returns the 1x1 white texture.
func (rc *RenderContext) DefaultTexture() texture.Texture {
	return rc.white
}

// Pipeline returns the batch pipeline.
func (rc *RenderContext) Pipeline() batch_pipeline.BatchPipeline {
	return rc.pipeline
}

// MaxQuads returns the per-frame quad budget.
func (rc *RenderContext) MaxQuads() int {
	return rc.maxQuads
}

// Release frees the default batch, the batch pipeline and the default texture.
func (rc *RenderContext) Release() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.defaultBatch != nil {
		rc.defaultBatch.Release()
		rc.defaultBatch = nil
	}
	if rc.pipeline != nil {
		rc.pipeline.Release()
		rc.pipeline = nil
	}
	if rc.white != nil {
		rc.white.Release()
		rc.white = nil
	}
}
