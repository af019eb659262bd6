package window

// WindowBuilderOption configures a window during construction.
type WindowBuilderOption func(*engineWindow)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title bar text
//
// Returns:
//   - WindowBuilderOption: the option to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size in pixels.
//
// Parameters:
//   - width: the initial width
//   - height: the initial height
//
// Returns:
//   - WindowBuilderOption: the option to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}
