// Package camera provides an orbiting viewer camera: it circles a target
// point at a distance controlled by scroll zoom, and can follow a moving
// target such as an accumulating character.
package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/stride-go/common"
)

// Camera holds perspective settings and computes view/projection matrices
// from its orbit state. Thread-safe for concurrent access.
type Camera interface {
	// SetAspect updates the aspect ratio, typically from a resize callback.
	//
	// Parameters:
	//   - aspect: width divided by height
	SetAspect(aspect float32)

	// SetTarget moves the orbit center.
	//
	// Parameters:
	//   - target: the point the camera looks at
	SetTarget(target [3]float32)

	// Target returns the current orbit center.
	Target() [3]float32

	// Orbit rotates the camera around the target.
	//
	// Parameters:
	//   - dYaw: yaw delta in radians
	//   - dPitch: pitch delta in radians, clamped short of the poles
	Orbit(dYaw, dPitch float32)

	// Zoom scales the orbit distance. Positive deltas move closer.
	//
	// Parameters:
	//   - delta: scroll delta
	Zoom(delta float32)

	// ViewProjection computes the combined view-projection matrix.
	//
	// Returns:
	//   - [16]float32: the column-major view-projection matrix
	ViewProjection() [16]float32

	// Eye returns the camera's world position.
	Eye() [3]float32
}

type orbitCamera struct {
	mu sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	target   [3]float32
	yaw      float32
	pitch    float32
	distance float32
}

var _ Camera = &orbitCamera{}

// NewCamera creates an orbit camera looking at the origin from a default
// distance.
//
// Parameters:
//   - options: functional options to further configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &orbitCamera{
		fov:      float32(math.Pi / 4),
		aspect:   16.0 / 9.0,
		near:     0.1,
		far:      500,
		yaw:      float32(math.Pi / 4),
		pitch:    0.4,
		distance: 8,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *orbitCamera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
	}
}

func (c *orbitCamera) SetTarget(target [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *orbitCamera) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *orbitCamera) Orbit(dYaw, dPitch float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yaw += dYaw
	c.pitch += dPitch
	limit := float32(math.Pi/2) - 0.01
	if c.pitch > limit {
		c.pitch = limit
	}
	if c.pitch < -limit {
		c.pitch = -limit
	}
}

func (c *orbitCamera) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.distance *= float32(math.Pow(0.9, float64(delta)))
	if c.distance < 0.5 {
		c.distance = 0.5
	}
	if c.distance > 100 {
		c.distance = 100
	}
}

func (c *orbitCamera) Eye() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye()
}

// eye derives the camera position from the orbit state. Callers must hold the
// mutex.
func (c *orbitCamera) eye() [3]float32 {
	cp := float32(math.Cos(float64(c.pitch)))
	return [3]float32{
		c.target[0] + c.distance*cp*float32(math.Sin(float64(c.yaw))),
		c.target[1] + c.distance*float32(math.Sin(float64(c.pitch))),
		c.target[2] + c.distance*cp*float32(math.Cos(float64(c.yaw))),
	}
}

func (c *orbitCamera) ViewProjection() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var view, proj, vp [16]float32
	eye := c.eye()
	common.LookAt(view[:], eye[0], eye[1], eye[2], c.target[0], c.target[1], c.target[2], 0, 1, 0)
	common.Perspective(proj[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(vp[:], proj[:], view[:])
	return vp
}
