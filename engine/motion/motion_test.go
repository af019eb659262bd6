package motion

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
	"github.com/Carmen-Shannon/stride-go/engine/track"
)

func near(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

func near3(a, b [3]float32, tol float32) bool {
	return near(a[0], b[0], tol) && near(a[1], b[1], tol) && near(a[2], b[2], tol)
}

func near4(a, b [4]float32, tol float32) bool {
	// Quaternion double cover: q and -q are the same rotation.
	same := near(a[0], b[0], tol) && near(a[1], b[1], tol) && near(a[2], b[2], tol) && near(a[3], b[3], tol)
	flipped := near(a[0], -b[0], tol) && near(a[1], -b[1], tol) && near(a[2], -b[2], tol) && near(a[3], -b[3], tol)
	return same || flipped
}

func rootSkeleton() *skeleton.Skeleton {
	return &skeleton.Skeleton{Joints: []skeleton.Joint{
		{Name: "root", ParentIndex: -1, RestPose: common.Transform{
			Translation: [3]float32{0, 1, 0},
			Rotation:    common.QuatIdentity(),
			Scale:       [3]float32{1, 1, 1},
		}},
	}}
}

// walkAnim returns a 2 second animation whose root travels one unit along x
// with a small vertical bob at the midpoint.
func walkAnim() animation.RawAnimation {
	return animation.RawAnimation{
		Name:     "walk",
		Duration: 2,
		Tracks: []animation.JointTrack{{
			Translations: []animation.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 1, Value: [3]float32{0.5, 0.1, 0}},
				{Time: 2, Value: [3]float32{1, 0, 0}},
			},
			Rotations: []animation.QuaternionKeyframe{
				{Time: 0, Value: common.QuatIdentity()},
				{Time: 1, Value: common.QuatIdentity()},
				{Time: 2, Value: common.QuatIdentity()},
			},
		}},
	}
}

func yaw90() [4]float32 {
	s := float32(math.Sin(math.Pi / 4))
	return [4]float32{0, s, 0, s}
}

func TestExtractConfigMismatch(t *testing.T) {
	raw := walkAnim()
	skel := rootSkeleton()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"nil animation", func() error {
			_, _, _, err := NewExtractor().Extract(nil, skel)
			return err
		}, ErrConfigMismatch},
		{"nil skeleton", func() error {
			_, _, _, err := NewExtractor().Extract(&raw, nil)
			return err
		}, ErrConfigMismatch},
		{"track count mismatch", func() error {
			bad := walkAnim()
			bad.Tracks = append(bad.Tracks, animation.JointTrack{})
			_, _, _, err := NewExtractor().Extract(&bad, skel)
			return err
		}, ErrConfigMismatch},
		{"root joint out of range", func() error {
			e := NewExtractor()
			e.RootJoint = 3
			_, _, _, err := e.Extract(&raw, skel)
			return err
		}, ErrConfigMismatch},
		{"zero duration", func() error {
			bad := walkAnim()
			bad.Duration = 0
			_, _, _, err := NewExtractor().Extract(&bad, skel)
			return err
		}, ErrExtraction},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestExtractFullPosition(t *testing.T) {
	raw := walkAnim()
	e := NewExtractor()
	pos, _, residual, err := e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}

	wantCurve := [][3]float32{{0, 0, 0}, {0.5, 0.1, 0}, {1, 0, 0}}
	if len(pos.Keyframes) != 3 {
		t.Fatalf("got %d position keys, want 3", len(pos.Keyframes))
	}
	for i, k := range pos.Keyframes {
		if !near3(k.Value, wantCurve[i], 1e-6) {
			t.Fatalf("key %d: got %v, want %v", i, k.Value, wantCurve[i])
		}
	}

	// Identity reference with bake leaves the residual root pinned at the origin.
	for i, k := range residual.Tracks[0].Translations {
		if !near3(k.Value, [3]float32{0, 0, 0}, 1e-6) {
			t.Fatalf("residual key %d: got %v, want origin", i, k.Value)
		}
	}
}

func TestExtractAxisMask(t *testing.T) {
	raw := walkAnim()
	e := NewExtractor()
	e.PositionSettings.Y = false
	pos, _, residual, err := e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}

	for i, k := range pos.Keyframes {
		if k.Value[1] != 0 {
			t.Fatalf("key %d: masked y leaked into curve: %v", i, k.Value)
		}
	}
	// The vertical bob stays in the residual animation.
	mid := residual.Tracks[0].Translations[1]
	if !near3(mid.Value, [3]float32{0, 0.1, 0}, 1e-6) {
		t.Fatalf("residual midpoint got %v, want (0, 0.1, 0)", mid.Value)
	}
}

func TestExtractReferenceFrames(t *testing.T) {
	raw := walkAnim()
	raw.Tracks[0].Translations[0].Value = [3]float32{0.25, 0, 0}

	e := NewExtractor()
	e.PositionSettings.Reference = ReferenceAnimation
	pos, _, _, err := e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}
	if !near3(pos.Keyframes[0].Value, [3]float32{0, 0, 0}, 1e-6) {
		t.Fatalf("animation reference: first curve value got %v, want zero", pos.Keyframes[0].Value)
	}

	e.PositionSettings.Reference = ReferenceSkeleton
	pos, _, _, err = e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}
	// Rest pose translation is (0, 1, 0).
	if !near3(pos.Keyframes[0].Value, [3]float32{0.25, -1, 0}, 1e-6) {
		t.Fatalf("skeleton reference: first curve value got %v", pos.Keyframes[0].Value)
	}
}

func TestExtractYawRotation(t *testing.T) {
	raw := walkAnim()
	raw.Tracks[0].Rotations = []animation.QuaternionKeyframe{
		{Time: 0, Value: common.QuatIdentity()},
		{Time: 1, Value: common.QuatNLerp(common.QuatIdentity(), yaw90(), 0.5)},
		{Time: 2, Value: yaw90()},
	}

	e := NewExtractor()
	_, rot, residual, err := e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}

	if !near4(rot.Keyframes[len(rot.Keyframes)-1].Value, yaw90(), 1e-5) {
		t.Fatalf("curve end got %v, want 90 degree yaw", rot.Keyframes[len(rot.Keyframes)-1].Value)
	}
	// Pure yaw animation extracted on yaw leaves an identity residual rotation.
	for i, k := range residual.Tracks[0].Rotations {
		if !near4(k.Value, common.QuatIdentity(), 1e-5) {
			t.Fatalf("residual rotation %d: got %v, want identity", i, k.Value)
		}
	}
}

func TestExtractLoopSeamlessResidual(t *testing.T) {
	raw := walkAnim()
	raw.Tracks[0].Translations[2].Value = [3]float32{1, 0.2, 0}

	e := NewExtractor()
	e.PositionSettings.Y = false
	e.PositionSettings.Loop = true
	pos, _, residual, err := e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}

	keys := residual.Tracks[0].Translations
	if !near3(keys[0].Value, keys[len(keys)-1].Value, 1e-6) {
		t.Fatalf("residual not seamless: start %v, end %v", keys[0].Value, keys[len(keys)-1].Value)
	}
	// The curve endpoint still carries the net travel on extracted axes.
	last := pos.Keyframes[len(pos.Keyframes)-1].Value
	if !near3(last, [3]float32{1, 0, 0}, 1e-6) {
		t.Fatalf("curve endpoint got %v, want (1, 0, 0)", last)
	}
}

func TestExtractLoopRotationRecomposes(t *testing.T) {
	pitch10 := common.QuatFromEuler(0.17, 0, 0)
	end := common.QuatMul(yaw90(), pitch10)
	raw := walkAnim()
	raw.Tracks[0].Rotations = []animation.QuaternionKeyframe{
		{Time: 0, Value: common.QuatIdentity()},
		{Time: 1, Value: common.QuatNLerp(common.QuatIdentity(), end, 0.5)},
		{Time: 2, Value: end},
	}

	e := NewExtractor()
	e.RotationSettings.Loop = true
	_, rot, residual, err := e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}

	keys := residual.Tracks[0].Rotations
	if !near4(keys[0].Value, keys[len(keys)-1].Value, 1e-5) {
		t.Fatalf("residual rotation not seamless: start %v, end %v", keys[0].Value, keys[len(keys)-1].Value)
	}
	// Curve endpoint composed with the residual start reproduces the source rotation.
	got := common.QuatMul(rot.Keyframes[len(rot.Keyframes)-1].Value, keys[0].Value)
	if !near4(got, end, 1e-4) {
		t.Fatalf("recomposed endpoint got %v, want %v", got, end)
	}
}

func TestExtractDoesNotMutateInput(t *testing.T) {
	raw := walkAnim()
	want := walkAnim()

	if _, _, _, err := NewExtractor().Extract(&raw, rootSkeleton()); err != nil {
		t.Fatal(err)
	}
	for i, k := range raw.Tracks[0].Translations {
		if k != want.Tracks[0].Translations[i] {
			t.Fatalf("input translation key %d mutated: %v", i, k)
		}
	}
	for i, k := range raw.Tracks[0].Rotations {
		if k != want.Tracks[0].Rotations[i] {
			t.Fatalf("input rotation key %d mutated: %v", i, k)
		}
	}
}

func TestExtractResampledChannels(t *testing.T) {
	// Translation and rotation key times disagree, forcing the fixed-rate
	// resample grid. Durations cover both a whole and a fractional number of
	// grid frames.
	tests := []struct {
		name     string
		duration float32
	}{
		{"whole frame count", 2},
		{"fractional frame count", 1.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := [3]float32{1, 0, 0}
			raw := animation.RawAnimation{
				Name:     "resampled",
				Duration: tt.duration,
				Tracks: []animation.JointTrack{{
					Translations: []animation.VectorKeyframe{
						{Time: 0, Value: [3]float32{0, 0, 0}},
						{Time: tt.duration, Value: end},
					},
					Rotations: []animation.QuaternionKeyframe{
						{Time: 0, Value: common.QuatIdentity()},
						{Time: tt.duration / 2, Value: common.QuatIdentity()},
						{Time: tt.duration, Value: common.QuatIdentity()},
					},
				}},
			}

			rawPos, rawRot, residual, err := NewExtractor().Extract(&raw, rootSkeleton())
			if err != nil {
				t.Fatal(err)
			}
			if err := rawPos.Validate(); err != nil {
				t.Fatalf("position curve: %v", err)
			}
			if err := rawRot.Validate(); err != nil {
				t.Fatalf("rotation curve: %v", err)
			}

			mt, err := BuildMotionTrack(rawPos, rawRot, track.Optimizer{}, false, false)
			if err != nil {
				t.Fatalf("motion track: %v", err)
			}
			if _, err := animation.Build(&residual); err != nil {
				t.Fatalf("residual animation: %v", err)
			}

			got := mt.Position.Sample(1)
			if !near3(got, end, 1e-4) {
				t.Errorf("Position.Sample(1) = %v, want %v", got, end)
			}
		})
	}
}

// stride returns a motion track moving one unit along x per loop, optionally
// turning 90 degrees of yaw per loop.
func stride(t *testing.T, turn bool) *MotionTrack {
	t.Helper()
	rawPos := track.RawFloat3Track{Keyframes: []track.Float3Keyframe{
		{Ratio: 0, Value: [3]float32{0, 0, 0}},
		{Ratio: 1, Value: [3]float32{1, 0, 0}},
	}}
	rawRot := track.RawQuaternionTrack{Keyframes: []track.QuaternionKeyframe{
		{Ratio: 0, Value: common.QuatIdentity()},
	}}
	if turn {
		rawRot.Keyframes = append(rawRot.Keyframes, track.QuaternionKeyframe{Ratio: 1, Value: yaw90()})
	}
	mt, err := BuildMotionTrack(rawPos, rawRot, track.Optimizer{}, true, turn)
	if err != nil {
		t.Fatal(err)
	}
	return mt
}

func TestAccumulatorIdempotent(t *testing.T) {
	mt := stride(t, false)
	acc := NewAccumulator()

	first, err := acc.Update(mt, 0.3, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := acc.Update(mt, 0.3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !near3(first.Translation, second.Translation, 1e-6) {
		t.Fatalf("repeated update drifted: %v then %v", first.Translation, second.Translation)
	}
	if !near3(second.Translation, [3]float32{0.3, 0, 0}, 1e-6) {
		t.Fatalf("got %v, want (0.3, 0, 0)", second.Translation)
	}
}

func TestAccumulatorLoopsAdvance(t *testing.T) {
	mt := stride(t, false)
	acc := NewAccumulator()

	if _, err := acc.Update(mt, 0.5, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Update(mt, 0.5, 1); err != nil {
		t.Fatal(err)
	}
	got, err := acc.Update(mt, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Two full loops plus half a stride.
	if !near3(got.Translation, [3]float32{2.5, 0, 0}, 1e-5) {
		t.Fatalf("got %v, want (2.5, 0, 0)", got.Translation)
	}
}

func TestAccumulatorMultiLoopSingleUpdate(t *testing.T) {
	mt := stride(t, false)
	acc := NewAccumulator()

	got, err := acc.Update(mt, 0.25, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !near3(got.Translation, [3]float32{3.25, 0, 0}, 1e-5) {
		t.Fatalf("got %v, want (3.25, 0, 0)", got.Translation)
	}
}

func TestAccumulatorRotatedStride(t *testing.T) {
	mt := stride(t, true)
	acc := NewAccumulator()

	if _, err := acc.Update(mt, 1, 0); err != nil {
		t.Fatal(err)
	}
	got, err := acc.Update(mt, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	// After one wrap the base faces 90 degrees of yaw, so the second stride's
	// half step advances along -z instead of +x.
	if !near3(got.Translation, [3]float32{1, 0, -0.5}, 1e-2) {
		t.Fatalf("got %v, want (1, 0, -0.5)", got.Translation)
	}
}

func TestAccumulatorNegativeLoops(t *testing.T) {
	mt := stride(t, false)
	acc := NewAccumulator()

	got, err := acc.Update(mt, 0.5, -1)
	if err != nil {
		t.Fatal(err)
	}
	if !near3(got.Translation, [3]float32{-0.5, 0, 0}, 1e-5) {
		t.Fatalf("got %v, want (-0.5, 0, 0)", got.Translation)
	}
}

func TestAccumulatorNonLoopingChannels(t *testing.T) {
	rawPos := track.RawFloat3Track{Keyframes: []track.Float3Keyframe{
		{Ratio: 0, Value: [3]float32{0, 0, 0}},
		{Ratio: 1, Value: [3]float32{1, 0, 0}},
	}}
	rawRot := track.RawQuaternionTrack{Keyframes: []track.QuaternionKeyframe{
		{Ratio: 0, Value: common.QuatIdentity()},
	}}
	mt, err := BuildMotionTrack(rawPos, rawRot, track.Optimizer{}, false, false)
	if err != nil {
		t.Fatal(err)
	}

	acc := NewAccumulator()
	got, err := acc.Update(mt, 0.5, 4)
	if err != nil {
		t.Fatal(err)
	}
	// No channel loops, so wraps must not accumulate anything.
	if !near3(got.Translation, [3]float32{0.5, 0, 0}, 1e-6) {
		t.Fatalf("got %v, want (0.5, 0, 0)", got.Translation)
	}
}

func TestAccumulatorTeleport(t *testing.T) {
	mt := stride(t, false)
	acc := NewAccumulator()

	if _, err := acc.Update(mt, 0.5, 2); err != nil {
		t.Fatal(err)
	}
	dest := common.Transform{
		Translation: [3]float32{10, 0, 5},
		Rotation:    common.QuatIdentity(),
		Scale:       [3]float32{1, 1, 1},
	}
	acc.Teleport(dest)
	if !near3(acc.Transform().Translation, dest.Translation, 1e-6) {
		t.Fatalf("teleport not applied: %v", acc.Transform().Translation)
	}

	got, err := acc.Update(mt, 0.5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !near3(got.Translation, [3]float32{10.5, 0, 5}, 1e-6) {
		t.Fatalf("got %v, want (10.5, 0, 5)", got.Translation)
	}
}

func TestSampleMotionNil(t *testing.T) {
	if _, err := SampleMotion(nil, 0.5); !errors.Is(err, ErrSampling) {
		t.Fatalf("got %v, want ErrSampling", err)
	}
}

func TestExtractAndAccumulate(t *testing.T) {
	raw := walkAnim()
	e := NewExtractor()
	e.PositionSettings.Loop = true
	rawPos, rawRot, _, err := e.Extract(&raw, rootSkeleton())
	if err != nil {
		t.Fatal(err)
	}
	mt, err := BuildMotionTrack(rawPos, rawRot, track.Optimizer{}, true, false)
	if err != nil {
		t.Fatal(err)
	}

	acc := NewAccumulator()
	if _, err := acc.Update(mt, 0.5, 2); err != nil {
		t.Fatal(err)
	}
	got := acc.Transform().Translation
	if !near(got[0], 2.5, 1e-4) {
		t.Fatalf("accumulated x got %v, want 2.5", got[0])
	}
}
