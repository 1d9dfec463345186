package texture

// TextureBuilderOption is a functional option used to configure a Texture during construction.
type TextureBuilderOption func(*textureImpl)

// WithLabel sets the debug label of the texture and its GPU objects.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - TextureBuilderOption: a function that sets the label
func WithLabel(label string) TextureBuilderOption {
	return func(t *textureImpl) {
		t.label = label
	}
}
