// Package track implements the curve primitives the motion pipeline is built on:
// raw (offline) vector and quaternion tracks, a validating builder producing
// immutable runtime tracks, a lossy keyframe optimizer, and runtime sampling at
// normalized time ratios.
package track

import (
	"sort"

	"github.com/Carmen-Shannon/stride-go/common"
)

// Float3Track is the immutable runtime form of a vector curve.
// Built once by BuildFloat3Track, then sampled concurrently without locks.
type Float3Track struct {
	ratios []float32
	values [][3]float32
	steps  []bool
}

// QuaternionTrack is the immutable runtime form of a rotation curve.
// Built once by BuildQuaternionTrack, then sampled concurrently without locks.
type QuaternionTrack struct {
	ratios []float32
	values [][4]float32
	steps  []bool
}

// NumKeyframes returns the number of keyframes in the track.
func (t *Float3Track) NumKeyframes() int {
	return len(t.ratios)
}

// NumKeyframes returns the number of keyframes in the track.
func (t *QuaternionTrack) NumKeyframes() int {
	return len(t.ratios)
}

// Keyframe returns the ratio and value of the keyframe at index i.
// Index must be in [0, NumKeyframes()).
func (t *Float3Track) Keyframe(i int) (float32, [3]float32) {
	return t.ratios[i], t.values[i]
}

// Keyframe returns the ratio and value of the keyframe at index i.
// Index must be in [0, NumKeyframes()).
func (t *QuaternionTrack) Keyframe(i int) (float32, [4]float32) {
	return t.ratios[i], t.values[i]
}

// span locates the keyframe interval containing ratio and the interpolation
// factor within it. Shared search logic for both track types.
func span(ratios []float32, ratio float32) (i int, alpha float32) {
	if ratio <= ratios[0] {
		return 0, 0
	}
	last := len(ratios) - 1
	if ratio >= ratios[last] {
		return last, 0
	}
	// First key strictly greater than ratio; the span starts one before it.
	j := sort.Search(len(ratios), func(k int) bool { return ratios[k] > ratio })
	i = j - 1
	alpha = (ratio - ratios[i]) / (ratios[j] - ratios[i])
	return i, alpha
}

// Sample evaluates the track at a normalized time ratio. Ratios outside [0, 1]
// are clamped to the track's end values. An empty track samples to the zero vector.
//
// Parameters:
//   - ratio: the normalized time in [0, 1]
//
// Returns:
//   - [3]float32: the interpolated value
func (t *Float3Track) Sample(ratio float32) [3]float32 {
	if len(t.ratios) == 0 {
		return [3]float32{}
	}
	i, alpha := span(t.ratios, ratio)
	if alpha == 0 || t.steps[i] {
		return t.values[i]
	}
	return common.Vec3Lerp(t.values[i], t.values[i+1], alpha)
}

// Sample evaluates the track at a normalized time ratio. Ratios outside [0, 1]
// are clamped to the track's end values. An empty track samples to the identity
// rotation. Interpolation is normalized lerp along the shortest arc.
//
// Parameters:
//   - ratio: the normalized time in [0, 1]
//
// Returns:
//   - [4]float32: the interpolated unit quaternion
func (t *QuaternionTrack) Sample(ratio float32) [4]float32 {
	if len(t.ratios) == 0 {
		return common.QuatIdentity()
	}
	i, alpha := span(t.ratios, ratio)
	if alpha == 0 || t.steps[i] {
		return t.values[i]
	}
	return common.QuatNLerp(t.values[i], t.values[i+1], alpha)
}
