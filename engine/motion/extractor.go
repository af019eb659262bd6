// Package motion implements the root-motion pipeline: extracting a character's
// net root displacement and rotation from a skeletal animation into standalone
// motion tracks (plus a baked residual animation), and accumulating those tracks
// across repeated playback loops into a continuously advancing world transform.
package motion

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
	"github.com/Carmen-Shannon/stride-go/engine/track"
)

// ErrConfigMismatch is returned when an animation and skeleton cannot be paired:
// differing joint counts or an out-of-range root joint. Fatal at initialization.
var ErrConfigMismatch = errors.New("motion: animation/skeleton configuration mismatch")

// ErrExtraction is returned when extraction input is degenerate: empty animation,
// zero duration, or malformed keyframes. No partial output is produced.
var ErrExtraction = errors.New("motion: extraction failure")

// ErrSampling is returned when a motion track cannot be sampled.
var ErrSampling = errors.New("motion: sampling failure")

// ReferenceFrame selects the baseline against which extracted motion is measured.
type ReferenceFrame uint8

const (
	// ReferenceIdentity measures motion against the world origin.
	ReferenceIdentity ReferenceFrame = iota

	// ReferenceSkeleton measures motion against the skeleton's rest-pose root transform.
	ReferenceSkeleton

	// ReferenceAnimation measures motion against the animation's first-frame root transform.
	ReferenceAnimation
)

// ExtractionSettings configures one extraction channel (position or rotation).
type ExtractionSettings struct {
	// X, Y, Z select which components are extracted. Components left false stay
	// in the residual animation untouched. For the rotation channel the axes map
	// to pitch (X), yaw (Y), and roll (Z).
	X, Y, Z bool

	// Reference is the frame extracted motion is measured against.
	Reference ReferenceFrame

	// Bake removes the extracted channel from the residual animation's root track
	// so it is not applied twice at playback.
	Bake bool

	// Loop marks the channel periodic: the residual animation's root channel is
	// forced seamless (its end value re-derived to equal its start value) and the
	// motion track's endpoint absorbs the difference.
	Loop bool
}

// DefaultPositionSettings returns the extraction defaults for the position
// channel: full horizontal and vertical extraction against the world origin,
// baked out of the residual animation.
func DefaultPositionSettings() ExtractionSettings {
	return ExtractionSettings{X: true, Y: true, Z: true, Reference: ReferenceIdentity, Bake: true}
}

// DefaultRotationSettings returns the extraction defaults for the rotation
// channel: yaw only, measured against the world origin, baked out of the
// residual animation.
func DefaultRotationSettings() ExtractionSettings {
	return ExtractionSettings{Y: true, Reference: ReferenceIdentity, Bake: true}
}

// resampleRate is the fixed keyframe rate used when the root joint's translation
// and rotation channels disagree on key times, or have no keys at all.
const resampleRate = 30.0

// Extractor derives root-motion tracks from a raw animation. Settings are plain
// fields so a caller (GUI, script, settings file) can rewrite them at any time
// and re-run Extract; extraction itself never mutates the extractor.
type Extractor struct {
	// RootJoint is the index of the joint motion is extracted from, usually 0.
	RootJoint int

	// PositionSettings configures the translation channel.
	PositionSettings ExtractionSettings

	// RotationSettings configures the rotation channel.
	RotationSettings ExtractionSettings
}

// NewExtractor creates an extractor with the default channel settings and root
// joint 0.
//
// Returns:
//   - *Extractor: the configured extractor
func NewExtractor() *Extractor {
	return &Extractor{
		PositionSettings: DefaultPositionSettings(),
		RotationSettings: DefaultRotationSettings(),
	}
}

// Extract derives the position and rotation motion tracks from the animation's
// root joint and produces the residual animation with extracted motion removed
// per the channel settings. The input animation is never mutated; on error no
// partial output is returned.
//
// Parameters:
//   - raw: the source animation (one track per skeleton joint)
//   - skel: the skeleton supplying joint count and the rest-pose reference frame
//
// Returns:
//   - track.RawFloat3Track: the extracted position curve over ratio [0, 1]
//   - track.RawQuaternionTrack: the extracted rotation curve over ratio [0, 1]
//   - animation.RawAnimation: the residual animation
//   - error: ErrConfigMismatch or ErrExtraction (wrapped) on invalid input
func (e *Extractor) Extract(raw *animation.RawAnimation, skel *skeleton.Skeleton) (track.RawFloat3Track, track.RawQuaternionTrack, animation.RawAnimation, error) {
	var posOut track.RawFloat3Track
	var rotOut track.RawQuaternionTrack
	var residual animation.RawAnimation

	if raw == nil || skel == nil {
		return posOut, rotOut, residual, fmt.Errorf("%w: nil animation or skeleton", ErrConfigMismatch)
	}
	if err := skel.Validate(); err != nil {
		return posOut, rotOut, residual, fmt.Errorf("%w: %v", ErrConfigMismatch, err)
	}
	if raw.NumTracks() != skel.NumJoints() {
		return posOut, rotOut, residual, fmt.Errorf("%w: animation has %d tracks, skeleton has %d joints", ErrConfigMismatch, raw.NumTracks(), skel.NumJoints())
	}
	if e.RootJoint < 0 || e.RootJoint >= skel.NumJoints() {
		return posOut, rotOut, residual, fmt.Errorf("%w: root joint %d out of range", ErrConfigMismatch, e.RootJoint)
	}
	if err := raw.Validate(); err != nil {
		return posOut, rotOut, residual, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	root := &raw.Tracks[e.RootJoint]
	times := sampleTimes(root, raw.Duration)

	posRef, rotRef := e.references(root, skel)

	// Residual starts as a full copy; only the root joint's baked channels are rewritten.
	residual = copyRawAnimation(raw)
	resRoot := &residual.Tracks[e.RootJoint]

	posOut.Name = raw.Name + "_motion_position"
	rotOut.Name = raw.Name + "_motion_rotation"
	posOut.Keyframes = make([]track.Float3Keyframe, 0, len(times))
	rotOut.Keyframes = make([]track.QuaternionKeyframe, 0, len(times))

	bakedT := make([]animation.VectorKeyframe, 0, len(times))
	bakedR := make([]animation.QuaternionKeyframe, 0, len(times))

	for _, t := range times {
		ratio := t / raw.Duration
		p := sampleRawVector(root.Translations, t, [3]float32{})
		q := sampleRawQuaternion(root.Rotations, t)

		ext, res := extractPosition(p, posRef, e.PositionSettings)
		posOut.Keyframes = append(posOut.Keyframes, track.Float3Keyframe{Ratio: ratio, Value: ext})
		if e.PositionSettings.Bake {
			bakedT = append(bakedT, animation.VectorKeyframe{Time: t, Value: res})
		}

		extQ, resQ := extractRotation(q, rotRef, e.RotationSettings)
		rotOut.Keyframes = append(rotOut.Keyframes, track.QuaternionKeyframe{Ratio: ratio, Value: extQ})
		if e.RotationSettings.Bake {
			bakedR = append(bakedR, animation.QuaternionKeyframe{Time: t, Value: resQ})
		}
	}

	if e.PositionSettings.Bake {
		resRoot.Translations = bakedT
	}
	if e.RotationSettings.Bake {
		resRoot.Rotations = bakedR
	}

	if e.PositionSettings.Loop {
		e.loopPosition(&posOut, resRoot, root, raw.Duration)
	}
	if e.RotationSettings.Loop {
		e.loopRotation(&rotOut, resRoot, root, raw.Duration, rotRef)
	}

	return posOut, rotOut, residual, nil
}

// references evaluates the per-channel reference transforms.
func (e *Extractor) references(root *animation.JointTrack, skel *skeleton.Skeleton) ([3]float32, [4]float32) {
	rest := skel.Joints[e.RootJoint].RestPose

	posRef := [3]float32{}
	switch e.PositionSettings.Reference {
	case ReferenceSkeleton:
		posRef = rest.Translation
	case ReferenceAnimation:
		posRef = sampleRawVector(root.Translations, 0, [3]float32{})
	}

	rotRef := common.QuatIdentity()
	switch e.RotationSettings.Reference {
	case ReferenceSkeleton:
		rotRef = common.QuatNormalize(rest.Rotation)
	case ReferenceAnimation:
		rotRef = sampleRawQuaternion(root.Rotations, 0)
	}

	return posRef, rotRef
}

// extractPosition splits a sampled root translation into the motion-track value
// (reference-relative, masked) and the residual value used when baking.
func extractPosition(p, ref [3]float32, s ExtractionSettings) (ext, res [3]float32) {
	mask := [3]bool{s.X, s.Y, s.Z}
	for i := 0; i < 3; i++ {
		if mask[i] {
			ext[i] = p[i] - ref[i]
			res[i] = ref[i]
		} else {
			res[i] = p[i]
		}
	}
	return ext, res
}

// extractRotation splits a sampled root rotation into the motion-track value and
// the residual value used when baking. The reference-relative rotation is
// decomposed to yaw-pitch-roll Euler angles so individual axes can be masked.
func extractRotation(q, ref [4]float32, s ExtractionSettings) (ext, res [4]float32) {
	rel := common.QuatMul(common.QuatConjugate(ref), q)
	pitch, yaw, roll := common.QuatToEuler(rel)
	if !s.X {
		pitch = 0
	}
	if !s.Y {
		yaw = 0
	}
	if !s.Z {
		roll = 0
	}
	ext = common.QuatFromEuler(pitch, yaw, roll)

	// Residual keeps whatever the extracted part does not: ref * ext^-1 * rel
	// recomposes with ext to the original rotation.
	res = common.QuatNormalize(common.QuatMul(ref, common.QuatMul(common.QuatConjugate(ext), rel)))
	return ext, res
}

// loopPosition re-derives the channel endpoints for seamless looping: the
// residual's last key value becomes its first key value, and the motion track's
// last key absorbs the difference so the composed endpoint still matches the
// source animation on extracted components.
func (e *Extractor) loopPosition(posOut *track.RawFloat3Track, resRoot *animation.JointTrack, root *animation.JointTrack, duration float32) {
	if len(posOut.Keyframes) < 2 {
		return
	}
	if e.PositionSettings.Bake && len(resRoot.Translations) >= 2 {
		resRoot.Translations[len(resRoot.Translations)-1].Value = resRoot.Translations[0].Value
	}

	resFirst := sampleRawVector(resRoot.Translations, 0, [3]float32{})
	pEnd := sampleRawVector(root.Translations, duration, [3]float32{})
	mask := [3]bool{e.PositionSettings.X, e.PositionSettings.Y, e.PositionSettings.Z}
	last := &posOut.Keyframes[len(posOut.Keyframes)-1]
	for i := 0; i < 3; i++ {
		if mask[i] {
			last.Value[i] = pEnd[i] - resFirst[i]
		} else {
			last.Value[i] = 0
		}
	}
}

// loopRotation mirrors loopPosition for the rotation channel.
func (e *Extractor) loopRotation(rotOut *track.RawQuaternionTrack, resRoot *animation.JointTrack, root *animation.JointTrack, duration float32, ref [4]float32) {
	if len(rotOut.Keyframes) < 2 {
		return
	}
	if e.RotationSettings.Bake && len(resRoot.Rotations) >= 2 {
		resRoot.Rotations[len(resRoot.Rotations)-1].Value = resRoot.Rotations[0].Value
	}

	resFirst := sampleRawQuaternion(resRoot.Rotations, 0)
	qEnd := sampleRawQuaternion(root.Rotations, duration)

	// Solve q_end == ref * ext * ref^-1 * residual_first for ext.
	ext := common.QuatMul(common.QuatConjugate(ref), common.QuatMul(qEnd, common.QuatMul(common.QuatConjugate(resFirst), ref)))
	rotOut.Keyframes[len(rotOut.Keyframes)-1].Value = common.QuatNormalize(ext)
}

// sampleTimes derives the extraction sample times from the root joint's
// channels: the shared key times when translation and rotation agree, otherwise
// a fixed-rate grid. The result always includes 0 and the full duration.
func sampleTimes(root *animation.JointTrack, duration float32) []float32 {
	tTimes := keyTimesVector(root.Translations)
	rTimes := keyTimesQuaternion(root.Rotations)

	var times []float32
	switch {
	case len(tTimes) == 0 && len(rTimes) == 0:
		times = []float32{0, duration}
	case len(rTimes) == 0:
		times = tTimes
	case len(tTimes) == 0:
		times = rTimes
	case sameTimes(tTimes, rTimes):
		times = tTimes
	default:
		// Channels disagree: resample both on a fixed-rate grid.
		n := int(duration*resampleRate) + 1
		if n < 2 {
			n = 2
		}
		times = make([]float32, 0, n+1)
		for i := 0; i < n; i++ {
			times = append(times, float32(i)/resampleRate)
		}
	}

	// Guarantee endpoint keys so curves cover the whole [0, 1] ratio range.
	if times[0] != 0 {
		times = append([]float32{0}, times...)
	}
	if times[len(times)-1] < duration {
		times = append(times, duration)
	} else if times[len(times)-1] > duration {
		times[len(times)-1] = duration
	}
	return times
}

func keyTimesVector(keys []animation.VectorKeyframe) []float32 {
	if len(keys) == 0 {
		return nil
	}
	out := make([]float32, len(keys))
	for i, k := range keys {
		out[i] = k.Time
	}
	return out
}

func keyTimesQuaternion(keys []animation.QuaternionKeyframe) []float32 {
	if len(keys) == 0 {
		return nil
	}
	out := make([]float32, len(keys))
	for i, k := range keys {
		out[i] = k.Time
	}
	return out
}

func sameTimes(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sampleRawVector linearly interpolates a raw keyframe channel at time t,
// clamping outside the key range. Empty channels return the default.
func sampleRawVector(keys []animation.VectorKeyframe, t float32, def [3]float32) [3]float32 {
	if len(keys) == 0 {
		return def
	}
	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return keys[last].Value
	}
	i := 0
	for keys[i+1].Time <= t {
		i++
	}
	alpha := (t - keys[i].Time) / (keys[i+1].Time - keys[i].Time)
	return common.Vec3Lerp(keys[i].Value, keys[i+1].Value, alpha)
}

// sampleRawQuaternion interpolates a raw rotation channel at time t with
// shortest-arc nlerp, clamping outside the key range. Empty channels return the
// identity rotation.
func sampleRawQuaternion(keys []animation.QuaternionKeyframe, t float32) [4]float32 {
	if len(keys) == 0 {
		return common.QuatIdentity()
	}
	if t <= keys[0].Time {
		return common.QuatNormalize(keys[0].Value)
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return common.QuatNormalize(keys[last].Value)
	}
	i := 0
	for keys[i+1].Time <= t {
		i++
	}
	alpha := (t - keys[i].Time) / (keys[i+1].Time - keys[i].Time)
	return common.QuatNLerp(common.QuatNormalize(keys[i].Value), common.QuatNormalize(keys[i+1].Value), alpha)
}

// copyRawAnimation deep-copies a raw animation so baking never mutates the source.
func copyRawAnimation(raw *animation.RawAnimation) animation.RawAnimation {
	out := animation.RawAnimation{Name: raw.Name, Duration: raw.Duration, Tracks: make([]animation.JointTrack, len(raw.Tracks))}
	for i, tr := range raw.Tracks {
		out.Tracks[i] = animation.JointTrack{
			Translations: append([]animation.VectorKeyframe(nil), tr.Translations...),
			Rotations:    append([]animation.QuaternionKeyframe(nil), tr.Rotations...),
			Scales:       append([]animation.VectorKeyframe(nil), tr.Scales...),
		}
	}
	return out
}
