package common

import (
	"math"
	"testing"
)

const epsilon = 1e-5

func near(t *testing.T, got, want, tolerance float32, label string) {
	t.Helper()
	if float32(math.Abs(float64(got-want))) > tolerance {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}

func near3(t *testing.T, got, want [3]float32, tolerance float32, label string) {
	t.Helper()
	for i := range got {
		near(t, got[i], want[i], tolerance, label)
	}
}

func TestVec3Ops(t *testing.T) {
	near3(t, Vec3Add([3]float32{1, 2, 3}, [3]float32{4, 5, 6}), [3]float32{5, 7, 9}, epsilon, "Vec3Add")
	near3(t, Vec3Sub([3]float32{4, 5, 6}, [3]float32{1, 2, 3}), [3]float32{3, 3, 3}, epsilon, "Vec3Sub")
	near3(t, Vec3Scale([3]float32{1, -2, 3}, 2), [3]float32{2, -4, 6}, epsilon, "Vec3Scale")
	near3(t, Vec3Lerp([3]float32{0, 0, 0}, [3]float32{2, 4, 6}, 0.5), [3]float32{1, 2, 3}, epsilon, "Vec3Lerp")
}

func TestQuatMulIdentity(t *testing.T) {
	q := QuatFromEuler(0.3, 0.7, -0.2)
	got := QuatMul(q, QuatIdentity())
	for i := range q {
		near(t, got[i], q[i], epsilon, "QuatMul identity")
	}
}

func TestQuatConjugateInverts(t *testing.T) {
	q := QuatFromEuler(0.3, 0.7, -0.2)
	got := QuatMul(q, QuatConjugate(q))
	id := QuatIdentity()
	for i := range id {
		near(t, got[i], id[i], epsilon, "q * conj(q)")
	}
}

func TestQuatNormalize(t *testing.T) {
	q := QuatNormalize([4]float32{0, 2, 0, 0})
	near(t, QuatNorm(q), 1, epsilon, "norm after normalize")

	// Zero quaternions normalize to identity instead of NaN.
	zero := QuatNormalize([4]float32{})
	id := QuatIdentity()
	for i := range id {
		near(t, zero[i], id[i], epsilon, "zero normalize")
	}
}

func TestQuatRotateVec3Yaw(t *testing.T) {
	// +90 degrees of yaw carries +X into -Z.
	yaw90 := QuatFromEuler(0, math.Pi/2, 0)
	got := QuatRotateVec3(yaw90, [3]float32{1, 0, 0})
	near3(t, got, [3]float32{0, 0, -1}, 1e-4, "yaw rotate")
}

func TestQuatEulerRoundTrip(t *testing.T) {
	tests := []struct {
		name             string
		pitch, yaw, roll float32
	}{
		{"yaw only", 0, 1.1, 0},
		{"pitch only", 0.6, 0, 0},
		{"roll only", 0, 0, -0.4},
		{"combined", 0.3, -0.8, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromEuler(tt.pitch, tt.yaw, tt.roll)
			pitch, yaw, roll := QuatToEuler(q)
			near(t, pitch, tt.pitch, 1e-4, "pitch")
			near(t, yaw, tt.yaw, 1e-4, "yaw")
			near(t, roll, tt.roll, 1e-4, "roll")
		})
	}
}

func TestQuatNLerpShortestArc(t *testing.T) {
	a := QuatIdentity()
	b := QuatFromEuler(0, math.Pi/2, 0)
	mid := QuatNLerp(a, b, 0.5)
	_, yaw, _ := QuatToEuler(mid)
	near(t, yaw, math.Pi/4, 1e-3, "halfway yaw")

	// Negated b represents the same rotation; nlerp must not swing the long
	// way around.
	negB := [4]float32{-b[0], -b[1], -b[2], -b[3]}
	mid2 := QuatNLerp(a, negB, 0.5)
	_, yaw2, _ := QuatToEuler(mid2)
	near(t, float32(math.Abs(float64(yaw2))), math.Pi/4, 1e-3, "double cover yaw")
}

func TestFromAffineColumnMajor(t *testing.T) {
	tr := Transform{
		Translation: [3]float32{1, 2, 3},
		Rotation:    QuatIdentity(),
		Scale:       [3]float32{2, 2, 2},
	}
	var m [16]float32
	FromAffine(m[:], tr)
	near(t, m[0], 2, epsilon, "scale x")
	near(t, m[5], 2, epsilon, "scale y")
	near(t, m[10], 2, epsilon, "scale z")
	near(t, m[12], 1, epsilon, "translation x")
	near(t, m[13], 2, epsilon, "translation y")
	near(t, m[14], 3, epsilon, "translation z")
	near(t, m[15], 1, epsilon, "w")
}

func TestFromAffineRotatesBasis(t *testing.T) {
	tr := Transform{
		Translation: [3]float32{0, 0, 0},
		Rotation:    QuatFromEuler(0, math.Pi/2, 0),
		Scale:       [3]float32{1, 1, 1},
	}
	var m [16]float32
	FromAffine(m[:], tr)
	// Column 0 is the image of +X.
	near3(t, [3]float32{m[0], m[1], m[2]}, [3]float32{0, 0, -1}, 1e-4, "rotated basis x")
}
