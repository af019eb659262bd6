// Package window provides platform windowing and input for the viewer
// programs, wrapping GLFW behind a small interface that yields a WebGPU
// surface descriptor.
package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window provides platform windowing and input event handling.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is
	// resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = zoom in)
	SetScrollCallback(callback func(delta float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating
	// a WebGPU surface, created by the wgpuglfw bridge from the underlying
	// GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// ProcessMessages runs the window message loop. Blocks until the window is
	// closed, invoking the update callback each iteration.
	ProcessMessages()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close fails
	Close() error

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

type engineWindow struct {
	title  string
	width  int
	height int

	window  *glfw.Window
	running bool

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
	onScroll  func(delta float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a GLFW window without an OpenGL context, ready
// for a WebGPU surface. Must be called from the main goroutine; the OS thread
// is locked for the window's lifetime.
//
// Parameters:
//   - options: functional options to further configure the window
//
// Returns:
//   - Window: the newly created window
//   - error: error if GLFW initialization or window creation fails
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:  "stride",
		width:  1280,
		height: 720,
	}
	for _, option := range options {
		option(w)
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	w.window = win
	w.running = true

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.running = false
			win.SetShouldClose(true)
			return
		}
		if (action == glfw.Press || action == glfw.Repeat) && w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	w.width, w.height = win.GetFramebufferSize()
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.window == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.window)
}

func (w *engineWindow) IsRunning() bool {
	return w.running && !w.window.ShouldClose()
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		glfw.PollEvents()
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
	w.running = false
}

func (w *engineWindow) Close() error {
	w.running = false
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
	glfw.Terminate()
	return nil
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
