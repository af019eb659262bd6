package track

import (
	"math"

	"github.com/Carmen-Shannon/stride-go/common"
)

// DefaultOptimizerTolerance is the decimation tolerance used when an Optimizer
// is constructed with a zero tolerance. Expressed in value units for vector
// tracks and in quaternion component units for rotation tracks.
const DefaultOptimizerTolerance = 1e-3

// Optimizer removes keyframes that can be re-derived by interpolating their
// neighbors within Tolerance. It is a pure transformation: inputs are never
// mutated, and re-running it on its own output removes nothing further.
type Optimizer struct {
	// Tolerance is the maximum per-component deviation an interpolated value may
	// have from the removed keyframe's value. Zero selects DefaultOptimizerTolerance.
	Tolerance float32
}

func (o Optimizer) tolerance() float32 {
	if o.Tolerance <= 0 {
		return DefaultOptimizerTolerance
	}
	return o.Tolerance
}

// OptimizeFloat3 returns a decimated copy of the raw track. First and last
// keyframes are always preserved, as are step keyframes and keyframes following
// a step span (interpolation cannot re-derive either).
//
// Parameters:
//   - raw: the track to decimate
//
// Returns:
//   - RawFloat3Track: the decimated track (a new slice; raw is untouched)
func (o Optimizer) OptimizeFloat3(raw RawFloat3Track) RawFloat3Track {
	out := RawFloat3Track{Name: raw.Name}
	if len(raw.Keyframes) <= 2 {
		out.Keyframes = append([]Float3Keyframe(nil), raw.Keyframes...)
		return out
	}

	tol := o.tolerance()
	out.Keyframes = append(out.Keyframes, raw.Keyframes[0])
	for i := 1; i < len(raw.Keyframes)-1; i++ {
		cur := raw.Keyframes[i]
		prev := out.Keyframes[len(out.Keyframes)-1]
		next := raw.Keyframes[i+1]
		if cur.Interpolation == InterpolationStep || prev.Interpolation == InterpolationStep {
			out.Keyframes = append(out.Keyframes, cur)
			continue
		}
		alpha := (cur.Ratio - prev.Ratio) / (next.Ratio - prev.Ratio)
		lerped := common.Vec3Lerp(prev.Value, next.Value, alpha)
		if maxAbsDiff3(lerped, cur.Value) > tol {
			out.Keyframes = append(out.Keyframes, cur)
		}
	}
	out.Keyframes = append(out.Keyframes, raw.Keyframes[len(raw.Keyframes)-1])
	return out
}

// OptimizeQuaternion returns a decimated copy of the raw track, comparing
// removed keys against shortest-arc nlerp of their kept neighbors.
//
// Parameters:
//   - raw: the track to decimate
//
// Returns:
//   - RawQuaternionTrack: the decimated track (a new slice; raw is untouched)
func (o Optimizer) OptimizeQuaternion(raw RawQuaternionTrack) RawQuaternionTrack {
	out := RawQuaternionTrack{Name: raw.Name}
	if len(raw.Keyframes) <= 2 {
		out.Keyframes = append([]QuaternionKeyframe(nil), raw.Keyframes...)
		return out
	}

	tol := o.tolerance()
	out.Keyframes = append(out.Keyframes, raw.Keyframes[0])
	for i := 1; i < len(raw.Keyframes)-1; i++ {
		cur := raw.Keyframes[i]
		prev := out.Keyframes[len(out.Keyframes)-1]
		next := raw.Keyframes[i+1]
		if cur.Interpolation == InterpolationStep || prev.Interpolation == InterpolationStep {
			out.Keyframes = append(out.Keyframes, cur)
			continue
		}
		alpha := (cur.Ratio - prev.Ratio) / (next.Ratio - prev.Ratio)
		lerped := common.QuatNLerp(common.QuatNormalize(prev.Value), common.QuatNormalize(next.Value), alpha)
		if quatDiff(lerped, common.QuatNormalize(cur.Value)) > tol {
			out.Keyframes = append(out.Keyframes, cur)
		}
	}
	out.Keyframes = append(out.Keyframes, raw.Keyframes[len(raw.Keyframes)-1])
	return out
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

// quatDiff measures component distance between two unit quaternions, accounting
// for the double-cover (q and -q are the same rotation).
func quatDiff(a, b [4]float32) float32 {
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
