package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/kaffee/engine/profiler"
	"github.com/Carmen-Shannon/kaffee/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfilerInterval sets how often the profiler reports.
func WithProfilerInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = profiler.NewProfiler(profiler.WithInterval(interval))
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. The engine closes it when Run returns.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameLimit(fps)
	}
}

// WithLogger installs l as the engine logger instead of the default stderr text logger.
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = l
	}
}
