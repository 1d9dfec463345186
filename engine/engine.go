package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/kaffee/common"
	"github.com/Carmen-Shannon/kaffee/engine/config"
	"github.com/Carmen-Shannon/kaffee/engine/gfx"
	"github.com/Carmen-Shannon/kaffee/engine/profiler"
	"github.com/Carmen-Shannon/kaffee/engine/renderer"
	"github.com/Carmen-Shannon/kaffee/engine/window"
)

// EventHandler is implemented by the application driven by the engine loop.
type EventHandler interface {
	// Init is called once after the window, renderer and render context exist.
	// Load textures and create batches here.
	Init(rc *gfx.RenderContext) error

	// Update is called once per frame before drawing.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	Update(dt float64)

	// Redraw is called inside the frame, after BeginFrame and before EndFrame.
	// Returning an error stops the loop and is returned from Run.
	Redraw(rc *gfx.RenderContext) error
}

// KeyHandler is optionally implemented by an EventHandler to receive key events.
type KeyHandler interface {
	KeyDown(keyCode uint32)
	KeyUp(keyCode uint32)
}

// ResizeHandler is optionally implemented by an EventHandler to observe size changes.
// The render context has already been resized when it is called. Zero sizes from a minimized window
// are not reported.
type ResizeHandler interface {
	Resize(width, height int, scaleFactor float32)
}

// engine implements the Engine interface.
// The loop is single threaded: window events, update and drawing all run on the thread that called Run.
type engine struct {
	settings config.Settings
	handler  EventHandler

	window   window.Window
	renderer renderer.Renderer
	rc       *gfx.RenderContext

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	logger    *slog.Logger
	now       func() time.Time
	lastFrame time.Time

	errMu sync.Mutex
	err   error
}

// Engine is the main entry point for the engine.
// It owns the window, the renderer and the render context, and drives an EventHandler.
type Engine interface {
	// Run creates the window and renderer, calls Init and runs the loop until the window closes.
	// Blocks. Must be called from the main goroutine.
	//
	// Returns:
	//   - error: an error from setup, Init or Redraw; GPU setup failures wrap common.ErrDevice
	Run() error

	// Quit closes the window after the current frame. Safe to call multiple times.
	// Has no effect before Run has created the window.
	Quit()

	// Window returns the window, or nil before Run.
	Window() window.Window

	// RenderContext returns the render context, or nil before Run.
	RenderContext() *gfx.RenderContext

	// Settings returns the settings the engine was created with.
	Settings() config.Settings

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)
}

// NewEngine creates a new Engine for handler.
// Installs the engine logger: the one given by WithLogger, or a text logger on stderr at settings.LogLevel.
//
// Parameters:
//   - settings: validated window and rendering settings
//   - handler: the application callbacks
//   - options: functional options for engine configuration (profiling, frame limit, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if settings are invalid or handler is nil
func NewEngine(settings config.Settings, handler EventHandler, options ...EngineBuilderOption) (Engine, error) {
	if handler == nil {
		return nil, errors.New("engine requires an event handler")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	e := &engine{
		settings: settings,
		handler:  handler,
		profiler: profiler.NewProfiler(),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.logger == nil {
		level, _ := settings.Level()
		e.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	common.SetLogger(e.logger)
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) RenderContext() *gfx.RenderContext {
	return e.rc
}

func (e *engine) Settings() config.Settings {
	return e.settings
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameLimit(fps)
}

func (e *engine) Quit() {
	if e.window != nil {
		e.window.RequestClose()
	}
}

func (e *engine) Run() error {
	defer e.shutdown()

	if err := e.setup(); err != nil {
		return err
	}
	if err := e.handler.Init(e.rc); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	e.lastFrame = e.now()
	e.window.SetUpdateCallback(e.frame)
	common.Logger().Info("engine running", "title", e.settings.Title)
	e.window.ProcessMessages()

	return e.loopErr()
}

// setup creates the window, the renderer and the render context, and wires window events into them.
// The renderer panics when no GPU device can be acquired; the panic is returned as an error.
func (e *engine) setup() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(error); ok && errors.Is(perr, common.ErrDevice) {
				err = perr
				return
			}
			err = fmt.Errorf("%w: %v", common.ErrDevice, r)
		}
	}()

	if e.window == nil {
		w, err := window.NewWindow(
			window.WithTitle(e.settings.Title),
			window.WithSize(e.settings.Width, e.settings.Height),
			window.WithResizable(e.settings.Resizable),
		)
		if err != nil {
			return err
		}
		e.window = w
	}

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, e.window,
		renderer.WithPresentMode(e.settings.PresentMode()),
		renderer.WithForceSoftwareRenderer(e.settings.SoftwareRenderer),
	)
	if err != nil {
		return err
	}
	e.renderer = r

	rc, err := gfx.NewRenderContext(r, e.settings)
	if err != nil {
		return err
	}
	e.rc = rc

	width, height := e.window.FramebufferSize()
	rc.Resize(width, height, e.window.ScaleFactor())

	e.window.SetResizeCallback(func(width, height int) {
		e.resize(width, height, e.window.ScaleFactor())
	})
	e.window.SetScaleCallback(func(scale float32) {
		width, height := e.window.FramebufferSize()
		e.resize(width, height, scale)
	})
	e.window.SetCloseCallback(func() {
		common.Logger().Info("window close requested")
	})
	if kh, ok := e.handler.(KeyHandler); ok {
		e.window.SetKeyDownCallback(kh.KeyDown)
		e.window.SetKeyUpCallback(kh.KeyUp)
	}
	return nil
}

func (e *engine) resize(width, height int, scale float32) {
	e.rc.Resize(width, height, scale)
	common.Logger().Debug("resized", "width", width, "height", height, "scale", scale)
	if width <= 0 || height <= 0 {
		return
	}
	if rh, ok := e.handler.(ResizeHandler); ok {
		rh.Resize(width, height, scale)
	}
}

// frame runs one loop iteration: update, then a frame bracketed by BeginFrame and EndFrame.
// A surface that has no frame to give skips the draw; any other error stops the loop.
func (e *engine) frame() {
	start := e.now()
	dt := start.Sub(e.lastFrame).Seconds()
	e.lastFrame = start

	e.handler.Update(dt)

	if err := e.rc.BeginFrame(); err != nil {
		if errors.Is(err, common.ErrSurface) {
			common.Logger().Warn("frame skipped", "err", err)
			return
		}
		e.fail(err)
		return
	}
	if err := e.handler.Redraw(e.rc); err != nil {
		_ = e.rc.EndFrame()
		e.fail(fmt.Errorf("redraw: %w", err))
		return
	}
	if err := e.rc.EndFrame(); err != nil {
		e.fail(err)
		return
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	// Frame rate limiting
	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// fail records the first loop error and closes the window.
func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.errMu.Unlock()
	common.Logger().Error("engine loop stopped", "err", err)
	e.Quit()
}

func (e *engine) loopErr() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// shutdown releases the render context, the renderer and the window in that order.
func (e *engine) shutdown() {
	if e.rc != nil {
		e.rc.Release()
		e.rc = nil
	}
	if e.renderer != nil {
		e.renderer.Release()
		e.renderer = nil
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			common.Logger().Warn("window close failed", "err", err)
		}
	}
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
