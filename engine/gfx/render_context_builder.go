package gfx

import "github.com/Carmen-Shannon/kaffee/engine/renderer/batch_pipeline"

// RenderContextBuilderOption is a functional option for configuring a RenderContext.
type RenderContextBuilderOption func(rc *RenderContext)

// WithPipelineOptions passes options through to the batch pipeline, such as a custom shader.
// The settings quad budget is applied first, so a WithMaxQuads here overrides it.
//
// Parameters:
//   - options: batch pipeline builder options
//
// Returns:
//   - RenderContextBuilderOption: option function to apply
func WithPipelineOptions(options ...batch_pipeline.BatchPipelineBuilderOption) RenderContextBuilderOption {
	return func(rc *RenderContext) {
		rc.pipelineOpts = append(rc.pipelineOpts, options...)
	}
}
