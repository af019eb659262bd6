package animation

import (
	"fmt"

	"github.com/Carmen-Shannon/stride-go/common"
)

// SamplingContext holds per-track key cursors reused across Sample calls so
// steady-state forward playback never re-searches a channel from its start.
// A context is sized to a joint count once and reused every tick; it must be
// invalidated whenever the sampled animation object is replaced.
type SamplingContext struct {
	// cursors holds three channel cursors per joint: translation, rotation, scale.
	cursors []int

	// anim is the animation the cursors currently describe. Sampling a different
	// animation (or a nil one after Invalidate) resets the cursors first.
	anim *Animation
}

// NewSamplingContext creates a context sized for the given joint count.
//
// Parameters:
//   - jointCount: the number of joints the sampled animations drive
//
// Returns:
//   - *SamplingContext: the prepared context
func NewSamplingContext(jointCount int) *SamplingContext {
	c := &SamplingContext{}
	c.Resize(jointCount)
	return c
}

// Resize re-allocates the cursor storage for a new joint count and invalidates
// the context.
//
// Parameters:
//   - jointCount: the new joint count
func (c *SamplingContext) Resize(jointCount int) {
	c.cursors = make([]int, jointCount*3)
	c.anim = nil
}

// Invalidate clears the cursor/animation association. Call this whenever the
// animation object the context was last used with is rebuilt or swapped.
func (c *SamplingContext) Invalidate() {
	for i := range c.cursors {
		c.cursors[i] = 0
	}
	c.anim = nil
}

// JointCount returns the joint count the context is sized for.
func (c *SamplingContext) JointCount() int {
	return len(c.cursors) / 3
}

// Sample evaluates every joint's local transform at a normalized time ratio.
// Ratios outside [0, 1] are clamped. The output slice is written in place and
// must be sized to the animation's track count; the context must be sized to
// the same count.
//
// Parameters:
//   - anim: the runtime animation to sample
//   - ctx: the sampling context (cursor cache)
//   - ratio: the normalized time in [0, 1]
//   - output: destination local transforms, one per joint
//
// Returns:
//   - error: ErrSampling (wrapped) on nil inputs or buffer/context size mismatch
func Sample(anim *Animation, ctx *SamplingContext, ratio float32, output []common.Transform) error {
	if anim == nil || ctx == nil {
		return fmt.Errorf("%w: nil animation or context", ErrSampling)
	}
	if err := anim.checkJointCount(len(output)); err != nil {
		return err
	}
	if ctx.JointCount() != anim.NumTracks() {
		return fmt.Errorf("%w: context sized for %d joints, animation has %d tracks", ErrSampling, ctx.JointCount(), anim.NumTracks())
	}
	if ctx.anim != anim {
		ctx.Invalidate()
		ctx.anim = anim
	}

	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	t := ratio * anim.duration

	for i := range anim.tracks {
		tr := &anim.tracks[i]
		output[i].Translation = sampleVector(tr.Translations, t, &ctx.cursors[i*3], [3]float32{})
		output[i].Rotation = sampleQuaternion(tr.Rotations, t, &ctx.cursors[i*3+1])
		output[i].Scale = sampleVector(tr.Scales, t, &ctx.cursors[i*3+2], [3]float32{1, 1, 1})
	}
	return nil
}

// seek advances (or rewinds) a channel cursor so that keys[cursor] is the last
// key at or before time t. Returns false when t precedes the first key.
func seek(cursor *int, times func(int) float32, n int, t float32) bool {
	if n == 0 || t < times(0) {
		*cursor = 0
		return false
	}
	i := *cursor
	if i >= n || times(i) > t {
		i = 0
	}
	for i+1 < n && times(i+1) <= t {
		i++
	}
	*cursor = i
	return true
}

func sampleVector(keys []VectorKeyframe, t float32, cursor *int, def [3]float32) [3]float32 {
	if len(keys) == 0 {
		return def
	}
	if !seek(cursor, func(i int) float32 { return keys[i].Time }, len(keys), t) {
		return keys[0].Value
	}
	i := *cursor
	if i+1 >= len(keys) {
		return keys[i].Value
	}
	alpha := (t - keys[i].Time) / (keys[i+1].Time - keys[i].Time)
	return common.Vec3Lerp(keys[i].Value, keys[i+1].Value, alpha)
}

func sampleQuaternion(keys []QuaternionKeyframe, t float32, cursor *int) [4]float32 {
	if len(keys) == 0 {
		return common.QuatIdentity()
	}
	if !seek(cursor, func(i int) float32 { return keys[i].Time }, len(keys), t) {
		return common.QuatNormalize(keys[0].Value)
	}
	i := *cursor
	if i+1 >= len(keys) {
		return common.QuatNormalize(keys[i].Value)
	}
	alpha := (t - keys[i].Time) / (keys[i+1].Time - keys[i].Time)
	return common.QuatNLerp(common.QuatNormalize(keys[i].Value), common.QuatNormalize(keys[i+1].Value), alpha)
}
