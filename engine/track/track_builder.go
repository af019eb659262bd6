package track

import "github.com/Carmen-Shannon/stride-go/common"

// BuildFloat3Track validates a raw vector track and builds its immutable runtime
// form. The raw track is copied; later mutations of it do not affect the result.
//
// Parameters:
//   - raw: the offline track to build
//
// Returns:
//   - *Float3Track: the runtime track
//   - error: ErrInvalidTrack (wrapped) if validation fails
func BuildFloat3Track(raw RawFloat3Track) (*Float3Track, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	t := &Float3Track{
		ratios: make([]float32, len(raw.Keyframes)),
		values: make([][3]float32, len(raw.Keyframes)),
		steps:  make([]bool, len(raw.Keyframes)),
	}
	for i, k := range raw.Keyframes {
		t.ratios[i] = k.Ratio
		t.values[i] = k.Value
		t.steps[i] = k.Interpolation == InterpolationStep
	}
	return t, nil
}

// BuildQuaternionTrack validates a raw rotation track and builds its immutable
// runtime form. Keyframe quaternions are normalized so runtime sampling never
// sees a non-unit rotation.
//
// Parameters:
//   - raw: the offline track to build
//
// Returns:
//   - *QuaternionTrack: the runtime track
//   - error: ErrInvalidTrack (wrapped) if validation fails
func BuildQuaternionTrack(raw RawQuaternionTrack) (*QuaternionTrack, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	t := &QuaternionTrack{
		ratios: make([]float32, len(raw.Keyframes)),
		values: make([][4]float32, len(raw.Keyframes)),
		steps:  make([]bool, len(raw.Keyframes)),
	}
	for i, k := range raw.Keyframes {
		t.ratios[i] = k.Ratio
		t.values[i] = common.QuatNormalize(k.Value)
		t.steps[i] = k.Interpolation == InterpolationStep
	}
	return t, nil
}
