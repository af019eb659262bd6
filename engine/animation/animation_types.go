package animation

import (
	"errors"
	"fmt"
)

// ErrInvalidAnimation is returned when raw animation data fails validation.
var ErrInvalidAnimation = errors.New("animation: invalid raw animation")

// ErrSampling is returned when sampling is given mismatched buffers or an
// unprepared context.
var ErrSampling = errors.New("animation: sampling failure")

// VectorKeyframe stores a 3D vector value at a specific time.
type VectorKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32
}

// QuaternionKeyframe stores a quaternion rotation at a specific time.
type QuaternionKeyframe struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32
}

// JointTrack contains the keyframe channels for a single joint.
// A channel with no keyframes samples to its default value (zero translation,
// identity rotation, unit scale).
type JointTrack struct {
	// Translations are keyframes for the joint's local translation.
	Translations []VectorKeyframe

	// Rotations are keyframes for the joint's local rotation.
	Rotations []QuaternionKeyframe

	// Scales are keyframes for the joint's local scale.
	Scales []VectorKeyframe
}

// RawAnimation is the mutable, offline form of an animation: one JointTrack per
// skeleton joint, in skeleton joint order. It is the input of the animation
// builder, optimizer, and motion extractor.
type RawAnimation struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Tracks holds one entry per skeleton joint, in joint order.
	Tracks []JointTrack
}

// NumTracks returns the number of joint tracks.
func (a *RawAnimation) NumTracks() int {
	return len(a.Tracks)
}

// Validate checks duration, key ordering, key time range, and rotation norms.
//
// Returns:
//   - error: ErrInvalidAnimation (wrapped with detail) if the animation is malformed
func (a *RawAnimation) Validate() error {
	if a.Duration <= 0 {
		return fmt.Errorf("%w: non-positive duration %v", ErrInvalidAnimation, a.Duration)
	}
	for ti, tr := range a.Tracks {
		prev := float32(-1)
		for ki, k := range tr.Translations {
			if k.Time < 0 || k.Time > a.Duration {
				return fmt.Errorf("%w: track %d translation key %d time %v outside [0, %v]", ErrInvalidAnimation, ti, ki, k.Time, a.Duration)
			}
			if k.Time <= prev {
				return fmt.Errorf("%w: track %d translation key %d time %v not strictly increasing", ErrInvalidAnimation, ti, ki, k.Time)
			}
			prev = k.Time
		}
		prev = -1
		for ki, k := range tr.Rotations {
			if k.Time < 0 || k.Time > a.Duration {
				return fmt.Errorf("%w: track %d rotation key %d time %v outside [0, %v]", ErrInvalidAnimation, ti, ki, k.Time, a.Duration)
			}
			if k.Time <= prev {
				return fmt.Errorf("%w: track %d rotation key %d time %v not strictly increasing", ErrInvalidAnimation, ti, ki, k.Time)
			}
			prev = k.Time
			if k.Value == ([4]float32{}) {
				return fmt.Errorf("%w: track %d rotation key %d has zero-norm quaternion", ErrInvalidAnimation, ti, ki)
			}
		}
		prev = -1
		for ki, k := range tr.Scales {
			if k.Time < 0 || k.Time > a.Duration {
				return fmt.Errorf("%w: track %d scale key %d time %v outside [0, %v]", ErrInvalidAnimation, ti, ki, k.Time, a.Duration)
			}
			if k.Time <= prev {
				return fmt.Errorf("%w: track %d scale key %d time %v not strictly increasing", ErrInvalidAnimation, ti, ki, k.Time)
			}
			prev = k.Time
		}
	}
	return nil
}
