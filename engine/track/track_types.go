package track

import (
	"errors"
	"fmt"
)

// ErrInvalidTrack is returned when raw track data fails validation.
var ErrInvalidTrack = errors.New("track: invalid raw track")

// Interpolation selects how a keyframe's value blends toward the next keyframe.
type Interpolation uint8

const (
	// InterpolationLinear blends linearly toward the next keyframe.
	InterpolationLinear Interpolation = iota

	// InterpolationStep holds the keyframe's value until the next keyframe.
	InterpolationStep
)

// Float3Keyframe stores a 3D vector value at a normalized time ratio.
type Float3Keyframe struct {
	// Ratio is the keyframe's normalized time in [0, 1].
	Ratio float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32

	// Interpolation selects how this keyframe blends toward the next one.
	Interpolation Interpolation
}

// QuaternionKeyframe stores a rotation value at a normalized time ratio.
type QuaternionKeyframe struct {
	// Ratio is the keyframe's normalized time in [0, 1].
	Ratio float32

	// Value is the rotation as a quaternion (x, y, z, w).
	Value [4]float32

	// Interpolation selects how this keyframe blends toward the next one.
	Interpolation Interpolation
}

// RawFloat3Track is the mutable, offline form of a vector curve. It is the
// input of the track builder and optimizer; the runtime never samples it directly.
type RawFloat3Track struct {
	// Name identifies the track (for debugging and archive round-trips).
	Name string

	// Keyframes are the track's keys, ordered by strictly increasing ratio.
	Keyframes []Float3Keyframe
}

// RawQuaternionTrack is the mutable, offline form of a rotation curve.
type RawQuaternionTrack struct {
	// Name identifies the track (for debugging and archive round-trips).
	Name string

	// Keyframes are the track's keys, ordered by strictly increasing ratio.
	Keyframes []QuaternionKeyframe
}

// Validate checks keyframe ordering and ratio range.
// An empty track is valid; it samples to the zero vector.
//
// Returns:
//   - error: ErrInvalidTrack (wrapped with detail) if the track is malformed
func (t *RawFloat3Track) Validate() error {
	prev := float32(-1)
	for i, k := range t.Keyframes {
		if k.Ratio < 0 || k.Ratio > 1 {
			return fmt.Errorf("%w: keyframe %d ratio %v outside [0, 1]", ErrInvalidTrack, i, k.Ratio)
		}
		if k.Ratio <= prev {
			return fmt.Errorf("%w: keyframe %d ratio %v not strictly increasing", ErrInvalidTrack, i, k.Ratio)
		}
		prev = k.Ratio
	}
	return nil
}

// Validate checks keyframe ordering, ratio range, and quaternion norms.
// An empty track is valid; it samples to the identity rotation.
//
// Returns:
//   - error: ErrInvalidTrack (wrapped with detail) if the track is malformed
func (t *RawQuaternionTrack) Validate() error {
	prev := float32(-1)
	for i, k := range t.Keyframes {
		if k.Ratio < 0 || k.Ratio > 1 {
			return fmt.Errorf("%w: keyframe %d ratio %v outside [0, 1]", ErrInvalidTrack, i, k.Ratio)
		}
		if k.Ratio <= prev {
			return fmt.Errorf("%w: keyframe %d ratio %v not strictly increasing", ErrInvalidTrack, i, k.Ratio)
		}
		prev = k.Ratio
		if k.Value == ([4]float32{}) {
			return fmt.Errorf("%w: keyframe %d has zero-norm quaternion", ErrInvalidTrack, i)
		}
	}
	return nil
}
