package animation

import (
	"math"

	"github.com/Carmen-Shannon/stride-go/common"
)

// Optimizer removes animation keyframes that interpolation can re-derive from
// their neighbors within per-channel tolerances. Like the track optimizer it is
// a pure transformation: the input animation is never mutated and the pass is
// idempotent.
type Optimizer struct {
	// TranslationTolerance is the maximum per-component translation deviation in
	// value units. Zero selects 1e-3.
	TranslationTolerance float32

	// RotationTolerance is the maximum quaternion component deviation.
	// Zero selects 1e-4.
	RotationTolerance float32

	// ScaleTolerance is the maximum per-component scale deviation.
	// Zero selects 1e-3.
	ScaleTolerance float32
}

func (o Optimizer) tolerances() (float32, float32, float32) {
	tt, rt, st := o.TranslationTolerance, o.RotationTolerance, o.ScaleTolerance
	if tt <= 0 {
		tt = 1e-3
	}
	if rt <= 0 {
		rt = 1e-4
	}
	if st <= 0 {
		st = 1e-3
	}
	return tt, rt, st
}

// Optimize returns a decimated copy of the raw animation. First and last keys
// of every channel are always preserved so channel endpoints survive the pass.
//
// Parameters:
//   - raw: the animation to decimate
//
// Returns:
//   - RawAnimation: the decimated animation (new slices; raw is untouched)
func (o Optimizer) Optimize(raw *RawAnimation) RawAnimation {
	tt, rt, st := o.tolerances()
	out := RawAnimation{Name: raw.Name, Duration: raw.Duration, Tracks: make([]JointTrack, len(raw.Tracks))}
	for i, tr := range raw.Tracks {
		out.Tracks[i] = JointTrack{
			Translations: decimateVector(tr.Translations, tt),
			Rotations:    decimateQuaternion(tr.Rotations, rt),
			Scales:       decimateVector(tr.Scales, st),
		}
	}
	return out
}

func decimateVector(keys []VectorKeyframe, tol float32) []VectorKeyframe {
	if len(keys) <= 2 {
		return append([]VectorKeyframe(nil), keys...)
	}
	out := make([]VectorKeyframe, 0, len(keys))
	out = append(out, keys[0])
	for i := 1; i < len(keys)-1; i++ {
		prev := out[len(out)-1]
		cur, next := keys[i], keys[i+1]
		alpha := (cur.Time - prev.Time) / (next.Time - prev.Time)
		lerped := common.Vec3Lerp(prev.Value, next.Value, alpha)
		if maxAbsDiff3(lerped, cur.Value) > tol {
			out = append(out, cur)
		}
	}
	return append(out, keys[len(keys)-1])
}

func decimateQuaternion(keys []QuaternionKeyframe, tol float32) []QuaternionKeyframe {
	if len(keys) <= 2 {
		return append([]QuaternionKeyframe(nil), keys...)
	}
	out := make([]QuaternionKeyframe, 0, len(keys))
	out = append(out, keys[0])
	for i := 1; i < len(keys)-1; i++ {
		prev := out[len(out)-1]
		cur, next := keys[i], keys[i+1]
		alpha := (cur.Time - prev.Time) / (next.Time - prev.Time)
		lerped := common.QuatNLerp(common.QuatNormalize(prev.Value), common.QuatNormalize(next.Value), alpha)
		if quatAbsDiff(lerped, common.QuatNormalize(cur.Value)) > tol {
			out = append(out, cur)
		}
	}
	return append(out, keys[len(keys)-1])
}

func maxAbsDiff3(a, b [3]float32) float32 {
	m := float32(0)
	for i := 0; i < 3; i++ {
		d := float32(math.Abs(float64(a[i] - b[i])))
		if d > m {
			m = d
		}
	}
	return m
}

func quatAbsDiff(a, b [4]float32) float32 {
	dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
	if dot < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
	}
	m := float32(0)
	for i := 0; i < 4; i++ {
		d := float32(math.Abs(float64(a[i] - b[i])))
		if d > m {
			m = d
		}
	}
	return m
}
