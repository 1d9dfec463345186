package camera

// Camera2DBuilderOption is a functional option used to configure a Camera2D during construction.
type Camera2DBuilderOption func(*camera2DImpl)

// WithViewport sets the initial logical viewport size. Non-positive values are ignored.
//
// Parameters:
//   - width, height: logical viewport size
//
// Returns:
//   - Camera2DBuilderOption: a function that applies the viewport
func WithViewport(width, height float32) Camera2DBuilderOption {
	return func(c *camera2DImpl) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

// WithOffset sets the initial translation in logical pixels.
func WithOffset(x, y float32) Camera2DBuilderOption {
	return func(c *camera2DImpl) {
		c.offsetX, c.offsetY = x, y
	}
}

// WithScaleFactor records the window scale factor the viewport was derived from.
func WithScaleFactor(scale float32) Camera2DBuilderOption {
	return func(c *camera2DImpl) {
		if scale > 0 {
			c.scaleFactor = scale
		}
	}
}
