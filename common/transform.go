package common

import "math"

// Transform represents a decomposed affine transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// TransformIdentity returns the identity transform (zero translation, identity rotation, unit scale).
//
// Returns:
//   - Transform: the identity transform
func TransformIdentity() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Vec3Add returns a + b component-wise.
func Vec3Add(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Vec3Sub returns a - b component-wise.
func Vec3Sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Vec3Scale returns v scaled by s.
func Vec3Scale(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}

// Vec3Lerp linearly interpolates between a and b by t.
//
// Parameters:
//   - a: start value at t = 0
//   - b: end value at t = 1
//   - t: interpolation factor
//
// Returns:
//   - [3]float32: the interpolated vector
func Vec3Lerp(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// QuatIdentity returns the identity quaternion (0, 0, 0, 1).
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatMul multiplies two quaternions (Hamilton product, left-to-right application order).
// The result applies a first, then b.
//
// Parameters:
//   - a: left-hand quaternion (x, y, z, w)
//   - b: right-hand quaternion (x, y, z, w)
//
// Returns:
//   - [4]float32: the product quaternion
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] + a[1]*b[3] + a[2]*b[0] - a[0]*b[2],
		a[3]*b[2] + a[2]*b[3] + a[0]*b[1] - a[1]*b[0],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatConjugate returns the conjugate of q. For unit quaternions this is the inverse rotation.
func QuatConjugate(q [4]float32) [4]float32 {
	return [4]float32{-q[0], -q[1], -q[2], q[3]}
}

// QuatNorm returns the Euclidean norm of q.
func QuatNorm(q [4]float32) float32 {
	return float32(math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])))
}

// QuatNormalize returns q scaled to unit length. A zero-norm input returns the
// identity quaternion; callers that must treat zero-norm as an error should check
// QuatNorm first.
//
// Parameters:
//   - q: the quaternion to normalize
//
// Returns:
//   - [4]float32: the unit quaternion
func QuatNormalize(q [4]float32) [4]float32 {
	n := QuatNorm(q)
	if n == 0 {
		return QuatIdentity()
	}
	inv := 1.0 / n
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatNLerp interpolates between a and b by t using normalized linear interpolation
// along the shortest arc.
//
// Parameters:
//   - a: start rotation at t = 0
//   - b: end rotation at t = 1
//   - t: interpolation factor
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func QuatNLerp(a, b [4]float32, t float32) [4]float32 {
	// Take the shortest path by flipping b when the rotations are in opposite hemispheres.
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
	}
	return QuatNormalize([4]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	})
}

// QuatRotateVec3 rotates vector v by unit quaternion q.
//
// Parameters:
//   - q: the rotation as a unit quaternion
//   - v: the vector to rotate
//
// Returns:
//   - [3]float32: the rotated vector
func QuatRotateVec3(q [4]float32, v [3]float32) [3]float32 {
	// v' = v + 2w(u x v) + 2(u x (u x v)) with u the quaternion's vector part.
	ux := q[1]*v[2] - q[2]*v[1]
	uy := q[2]*v[0] - q[0]*v[2]
	uz := q[0]*v[1] - q[1]*v[0]

	uux := q[1]*uz - q[2]*uy
	uuy := q[2]*ux - q[0]*uz
	uuz := q[0]*uy - q[1]*ux

	return [3]float32{
		v[0] + 2*(q[3]*ux+uux),
		v[1] + 2*(q[3]*uy+uuy),
		v[2] + 2*(q[3]*uz+uuz),
	}
}

// QuatFromEuler builds a quaternion from Euler angles using the engine's
// Y * X * Z (yaw-pitch-roll) rotation order.
//
// Parameters:
//   - pitch: rotation around the X axis in radians
//   - yaw: rotation around the Y axis in radians
//   - roll: rotation around the Z axis in radians
//
// Returns:
//   - [4]float32: the equivalent unit quaternion (x, y, z, w)
func QuatFromEuler(pitch, yaw, roll float32) [4]float32 {
	sp, cp := math.Sincos(float64(pitch) / 2)
	sy, cy := math.Sincos(float64(yaw) / 2)
	sr, cr := math.Sincos(float64(roll) / 2)

	qx := [4]float32{float32(sp), 0, 0, float32(cp)}
	qy := [4]float32{0, float32(sy), 0, float32(cy)}
	qz := [4]float32{0, 0, float32(sr), float32(cr)}

	return QuatMul(QuatMul(qy, qx), qz)
}

// QuatToEuler decomposes a unit quaternion into Euler angles matching QuatFromEuler's
// Y * X * Z rotation order. At the gimbal singularity (pitch = ±π/2) roll is folded
// into yaw and returned as zero.
//
// Parameters:
//   - q: the unit quaternion to decompose
//
// Returns:
//   - pitch: rotation around the X axis in radians
//   - yaw: rotation around the Y axis in radians
//   - roll: rotation around the Z axis in radians
func QuatToEuler(q [4]float32) (pitch, yaw, roll float32) {
	// Matrix elements of R = Ry * Rx * Rz needed for the decomposition.
	sinPitch := float64(2 * (q[3]*q[0] - q[1]*q[2]))
	if sinPitch > 1 {
		sinPitch = 1
	} else if sinPitch < -1 {
		sinPitch = -1
	}
	pitch = float32(math.Asin(sinPitch))

	if math.Abs(sinPitch) > 0.99999 {
		// Gimbal lock: yaw and roll rotate around the same world axis.
		yaw = float32(math.Atan2(float64(2*(q[3]*q[1]-q[0]*q[2])), float64(1-2*(q[1]*q[1]+q[2]*q[2]))))
		roll = 0
		return pitch, yaw, roll
	}

	yaw = float32(math.Atan2(float64(2*(q[0]*q[2]+q[3]*q[1])), float64(1-2*(q[0]*q[0]+q[1]*q[1]))))
	roll = float32(math.Atan2(float64(2*(q[0]*q[1]+q[3]*q[2])), float64(1-2*(q[0]*q[0]+q[2]*q[2]))))
	return pitch, yaw, roll
}

// FromAffine builds a 4x4 column-major matrix from a decomposed transform.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: the transform to convert
func FromAffine(out []float32, t Transform) {
	x, y, z, w := t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3]

	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = (1 - 2*(yy+zz)) * t.Scale[0]
	out[1] = 2 * (xy + wz) * t.Scale[0]
	out[2] = 2 * (xz - wy) * t.Scale[0]
	out[3] = 0

	out[4] = 2 * (xy - wz) * t.Scale[1]
	out[5] = (1 - 2*(xx+zz)) * t.Scale[1]
	out[6] = 2 * (yz + wx) * t.Scale[1]
	out[7] = 0

	out[8] = 2 * (xz + wy) * t.Scale[2]
	out[9] = 2 * (yz - wx) * t.Scale[2]
	out[10] = (1 - 2*(xx+yy)) * t.Scale[2]
	out[11] = 0

	out[12] = t.Translation[0]
	out[13] = t.Translation[1]
	out[14] = t.Translation[2]
	out[15] = 1
}
