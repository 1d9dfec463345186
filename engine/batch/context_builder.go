package batch

// ContextBuilderOption configures a Context at construction.
type ContextBuilderOption func(*contextImpl)

// WithCapacity sets the maximum number of quads the context can hold.
// Values are clamped to [1, MaxQuadLimit].
//
// Parameters:
//   - quads: quad capacity
//
// Returns:
//   - ContextBuilderOption: a function that applies the capacity to a context
func WithCapacity(quads int) ContextBuilderOption {
	return func(c *contextImpl) {
		c.maxQuads = quads
	}
}
