package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lucasb-eyer/go-colorful"
)

// RendererBuilderOption is a functional option for configuring a renderer at
// creation time.
type RendererBuilderOption func(*lineRenderer)

// WithPresentMode sets the surface presentation mode. The default is Fifo,
// which synchronizes presentation with the display's vertical blank.
//
// Parameters:
//   - mode: the wgpu present mode to configure the surface with
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithPresentMode(mode wgpu.PresentMode) RendererBuilderOption {
	return func(r *lineRenderer) {
		r.presentMode = mode
	}
}

// WithClearColor sets the background color the frame is cleared to.
//
// Parameters:
//   - color: the clear color, alpha is forced opaque
//
// Returns:
//   - RendererBuilderOption: the option to pass to NewRenderer
func WithClearColor(color colorful.Color) RendererBuilderOption {
	return func(r *lineRenderer) {
		r.clearColor = wgpu.Color{R: color.R, G: color.G, B: color.B, A: 1}
	}
}
