package camera

// CameraBuilderOption configures a camera during construction.
type CameraBuilderOption func(*orbitCamera)

// WithPerspective sets the projection parameters.
//
// Parameters:
//   - fov: vertical field of view in radians
//   - near: near clipping plane distance
//   - far: far clipping plane distance
//
// Returns:
//   - CameraBuilderOption: the option to apply
func WithPerspective(fov, near, far float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.fov = fov
		c.near = near
		c.far = far
	}
}

// WithOrbit sets the initial orbit state.
//
// Parameters:
//   - yaw: initial yaw angle in radians
//   - pitch: initial pitch angle in radians
//   - distance: initial distance from the target
//
// Returns:
//   - CameraBuilderOption: the option to apply
func WithOrbit(yaw, pitch, distance float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.yaw = yaw
		c.pitch = pitch
		c.distance = distance
	}
}

// WithTarget sets the initial orbit center.
//
// Parameters:
//   - target: the point the camera looks at
//
// Returns:
//   - CameraBuilderOption: the option to apply
func WithTarget(target [3]float32) CameraBuilderOption {
	return func(c *orbitCamera) {
		c.target = target
	}
}
