package motion

import (
	"fmt"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/Carmen-Shannon/stride-go/engine/track"
)

// MotionTrack pairs the runtime position and rotation curves extracted from one
// animation, along with each channel's periodicity flag. The tracks are
// immutable and safe for concurrent sampling.
type MotionTrack struct {
	Position *track.Float3Track
	Rotation *track.QuaternionTrack

	// PositionLoop and RotationLoop record whether the corresponding channel was
	// extracted as periodic. Only looping channels contribute loop deltas during
	// accumulation.
	PositionLoop bool
	RotationLoop bool
}

// BuildMotionTrack validates, optimizes and compiles raw extraction output into
// a runtime motion track.
//
// Parameters:
//   - rawPos: the extracted position curve
//   - rawRot: the extracted rotation curve
//   - opt: the keyframe optimizer applied to both curves before compilation
//   - posLoop: whether the position channel was extracted as periodic
//   - rotLoop: whether the rotation channel was extracted as periodic
//
// Returns:
//   - *MotionTrack: the compiled motion track
//   - error: track.ErrInvalidTrack (wrapped) when either curve is malformed
func BuildMotionTrack(rawPos track.RawFloat3Track, rawRot track.RawQuaternionTrack, opt track.Optimizer, posLoop, rotLoop bool) (*MotionTrack, error) {
	pos, err := track.BuildFloat3Track(opt.OptimizeFloat3(rawPos))
	if err != nil {
		return nil, fmt.Errorf("motion: position curve: %w", err)
	}
	rot, err := track.BuildQuaternionTrack(opt.OptimizeQuaternion(rawRot))
	if err != nil {
		return nil, fmt.Errorf("motion: rotation curve: %w", err)
	}

	return &MotionTrack{Position: pos, Rotation: rot, PositionLoop: posLoop, RotationLoop: rotLoop}, nil
}

// SampleMotion evaluates the motion delta transform at a playback ratio. The
// ratio is clamped to [0, 1]; scale is always identity.
//
// Parameters:
//   - mt: the motion track to sample
//   - ratio: normalized playback time
//
// Returns:
//   - common.Transform: the root motion delta at the given ratio
//   - error: ErrSampling when the track or either curve is nil
func SampleMotion(mt *MotionTrack, ratio float32) (common.Transform, error) {
	if mt == nil || mt.Position == nil || mt.Rotation == nil {
		return common.TransformIdentity(), fmt.Errorf("%w: nil motion track", ErrSampling)
	}
	return common.Transform{
		Translation: mt.Position.Sample(ratio),
		Rotation:    mt.Rotation.Sample(ratio),
		Scale:       [3]float32{1, 1, 1},
	}, nil
}
