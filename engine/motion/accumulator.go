package motion

import "github.com/Carmen-Shannon/stride-go/common"

// Accumulator integrates a motion track's deltas across playback loops into a
// continuously advancing world transform. Within one loop the result is the
// stored base composed with the track's delta at the current ratio, so repeated
// updates at the same ratio are idempotent; each wrap folds the track's
// per-loop delta into the base permanently.
//
// The accumulator is driven by a single updater per character and is not safe
// for concurrent use.
type Accumulator struct {
	base      common.Transform
	current   common.Transform
	lastRatio float32
}

// NewAccumulator creates an accumulator at the identity transform.
//
// Returns:
//   - *Accumulator: the initialized accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		base:    common.TransformIdentity(),
		current: common.TransformIdentity(),
	}
}

// Transform returns the accumulated world transform as of the last Update or
// Teleport call.
//
// Returns:
//   - common.Transform: the current accumulated transform
func (a *Accumulator) Transform() common.Transform {
	return a.current
}

// Teleport relocates the accumulator, discarding all accumulated motion. The
// next Update composes the motion delta on top of the new transform.
//
// Parameters:
//   - t: the new base transform
func (a *Accumulator) Teleport(t common.Transform) {
	a.base = t
	a.current = t
}

// Update advances the accumulator to a new playback ratio. Loop wraps that
// occurred since the previous update are applied first: each wrap composes the
// track's net per-loop delta into the base, with the delta's translation
// rotated into the orientation accumulated so far. Negative wrap counts apply
// the inverse delta, rewinding motion. Channels not flagged as looping never
// contribute to the loop delta.
//
// Parameters:
//   - mt: the motion track being played
//   - ratio: the playback ratio after this tick
//   - loops: signed number of loop wraps since the previous update
//
// Returns:
//   - common.Transform: the accumulated transform at the new ratio
//   - error: ErrSampling when the track cannot be sampled
func (a *Accumulator) Update(mt *MotionTrack, ratio float32, loops int) (common.Transform, error) {
	if loops != 0 && (mt == nil || mt.PositionLoop || mt.RotationLoop) {
		delta, err := loopDelta(mt)
		if err != nil {
			return a.current, err
		}
		if loops < 0 {
			delta = invert(delta)
			loops = -loops
		}
		for i := 0; i < loops; i++ {
			a.base = compose(a.base, delta)
		}
	}

	d, err := SampleMotion(mt, ratio)
	if err != nil {
		return a.current, err
	}
	a.current = compose(a.base, d)
	a.lastRatio = ratio
	return a.current, nil
}

// LastRatio returns the playback ratio of the most recent Update.
func (a *Accumulator) LastRatio() float32 {
	return a.lastRatio
}

// loopDelta computes the track's net transform over one full loop,
// D(1) composed with the inverse of D(0), gated per channel by the track's
// loop flags.
func loopDelta(mt *MotionTrack) (common.Transform, error) {
	d0, err := SampleMotion(mt, 0)
	if err != nil {
		return common.TransformIdentity(), err
	}
	d1, err := SampleMotion(mt, 1)
	if err != nil {
		return common.TransformIdentity(), err
	}

	delta := common.TransformIdentity()
	if mt.RotationLoop {
		delta.Rotation = common.QuatNormalize(common.QuatMul(d1.Rotation, common.QuatConjugate(d0.Rotation)))
	}
	if mt.PositionLoop {
		delta.Translation = common.Vec3Sub(d1.Translation, common.QuatRotateVec3(delta.Rotation, d0.Translation))
	}
	return delta, nil
}

// compose applies b in a's local frame: translation is rotated by a's
// orientation before adding, rotations multiply, scales multiply per component.
func compose(a, b common.Transform) common.Transform {
	return common.Transform{
		Translation: common.Vec3Add(a.Translation, common.QuatRotateVec3(a.Rotation, b.Translation)),
		Rotation:    common.QuatNormalize(common.QuatMul(a.Rotation, b.Rotation)),
		Scale:       [3]float32{a.Scale[0] * b.Scale[0], a.Scale[1] * b.Scale[1], a.Scale[2] * b.Scale[2]},
	}
}

// invert returns the transform undoing t, ignoring scale.
func invert(t common.Transform) common.Transform {
	ir := common.QuatConjugate(t.Rotation)
	it := common.QuatRotateVec3(ir, t.Translation)
	return common.Transform{
		Translation: [3]float32{-it[0], -it[1], -it[2]},
		Rotation:    ir,
		Scale:       [3]float32{1, 1, 1},
	}
}
