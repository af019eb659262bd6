// Package animation implements the skeletal animation data model and pose
// sampling: raw (offline) animations, a validating builder producing immutable
// runtime animations, a lossy per-track optimizer, and a cursor-cached sampler
// that evaluates all joint local transforms at a normalized time ratio.
package animation

import "fmt"

// Animation is the immutable runtime form of a skeletal animation. Built once
// by Build, then sampled every tick without locks or allocation.
type Animation struct {
	name     string
	duration float32
	tracks   []JointTrack
}

// Build validates a raw animation and produces its immutable runtime form.
// Track data is copied; later mutations of the raw animation do not affect the
// result.
//
// Parameters:
//   - raw: the offline animation to build
//
// Returns:
//   - *Animation: the runtime animation
//   - error: ErrInvalidAnimation (wrapped) if validation fails
func Build(raw *RawAnimation) (*Animation, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	a := &Animation{
		name:     raw.Name,
		duration: raw.Duration,
		tracks:   make([]JointTrack, len(raw.Tracks)),
	}
	for i, tr := range raw.Tracks {
		a.tracks[i] = JointTrack{
			Translations: append([]VectorKeyframe(nil), tr.Translations...),
			Rotations:    append([]QuaternionKeyframe(nil), tr.Rotations...),
			Scales:       append([]VectorKeyframe(nil), tr.Scales...),
		}
	}
	return a, nil
}

// Name returns the animation identifier.
func (a *Animation) Name() string {
	return a.name
}

// Duration returns the animation length in seconds.
func (a *Animation) Duration() float32 {
	return a.duration
}

// NumTracks returns the number of joint tracks.
func (a *Animation) NumTracks() int {
	return len(a.tracks)
}

// checkJointCount verifies the animation matches a buffer sized per joint.
func (a *Animation) checkJointCount(n int) error {
	if len(a.tracks) != n {
		return fmt.Errorf("%w: animation has %d tracks, buffer has %d joints", ErrSampling, len(a.tracks), n)
	}
	return nil
}
