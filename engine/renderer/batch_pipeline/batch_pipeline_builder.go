package batch_pipeline

// BatchPipelineBuilderOption is a functional option used to configure a BatchPipeline during construction.
type BatchPipelineBuilderOption func(*batchPipelineImpl)

// WithMaxQuads sets how many quads the frame's vertex buffer holds. Values are clamped to [1, batch.MaxQuadLimit].
//
// Parameters:
//   - quads: quads per frame
//
// Returns:
//   - BatchPipelineBuilderOption: a function that applies the capacity
func WithMaxQuads(quads int) BatchPipelineBuilderOption {
	return func(b *batchPipelineImpl) {
		b.maxQuads = quads
	}
}

// WithBlendEnabled toggles straight alpha blending. Enabled by default.
func WithBlendEnabled(enabled bool) BatchPipelineBuilderOption {
	return func(b *batchPipelineImpl) {
		b.blend = enabled
	}
}

// WithShaderSource replaces the batch shaders. The vertex source is compiled after the CameraUniform
// definition and must accept the batch vertex layout; the fragment source must declare the texture and
// sampler at group 1. Replaced sources are compiled offline and rejected if they do not compile.
//
// Parameters:
//   - vertex: WGSL vertex shader body
//   - fragment: WGSL fragment shader
//
// Returns:
//   - BatchPipelineBuilderOption: a function that applies the shader sources
func WithShaderSource(vertex, fragment string) BatchPipelineBuilderOption {
	return func(b *batchPipelineImpl) {
		if vertex != "" {
			b.vertexSource = vertex
			b.customVertex = true
		}
		if fragment != "" {
			b.fragmentSource = fragment
			b.customFragment = true
		}
	}
}
