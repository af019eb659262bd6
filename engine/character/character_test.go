package character

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/motion"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
	"github.com/Carmen-Shannon/stride-go/engine/track"
)

func near(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

func near3(a, b [3]float32, tol float32) bool {
	return near(a[0], b[0], tol) && near(a[1], b[1], tol) && near(a[2], b[2], tol)
}

func rootSkeleton() *skeleton.Skeleton {
	return &skeleton.Skeleton{Joints: []skeleton.Joint{
		{Name: "root", ParentIndex: -1, RestPose: common.TransformIdentity()},
	}}
}

// inPlaceAnim returns a 2 second animation whose root stays at the origin, as
// a residual animation would after full extraction.
func inPlaceAnim(t *testing.T) *animation.Animation {
	t.Helper()
	raw := animation.RawAnimation{
		Name:     "residual",
		Duration: 2,
		Tracks: []animation.JointTrack{{
			Translations: []animation.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 2, Value: [3]float32{0, 0, 0}},
			},
		}},
	}
	anim, err := animation.Build(&raw)
	if err != nil {
		t.Fatal(err)
	}
	return anim
}

// strideTrack returns a looping motion track advancing one unit along x per loop.
func strideTrack(t *testing.T) *motion.MotionTrack {
	t.Helper()
	rawPos := track.RawFloat3Track{Keyframes: []track.Float3Keyframe{
		{Ratio: 0, Value: [3]float32{0, 0, 0}},
		{Ratio: 1, Value: [3]float32{1, 0, 0}},
	}}
	rawRot := track.RawQuaternionTrack{Keyframes: []track.QuaternionKeyframe{
		{Ratio: 0, Value: common.QuatIdentity()},
	}}
	mt, err := motion.BuildMotionTrack(rawPos, rawRot, track.Optimizer{}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	return mt
}

func TestNewCharacterPanicsOnNilSkeleton(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil skeleton")
		}
	}()
	NewCharacter(nil)
}

func TestSetAnimationJointMismatch(t *testing.T) {
	c := NewCharacter(rootSkeleton())
	raw := animation.RawAnimation{
		Name:     "two-joint",
		Duration: 1,
		Tracks:   make([]animation.JointTrack, 2),
	}
	anim, err := animation.Build(&raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetAnimation(anim, nil); !errors.Is(err, animation.ErrSampling) {
		t.Fatalf("got %v, want animation.ErrSampling", err)
	}
}

func TestUpdateWithoutAnimation(t *testing.T) {
	c := NewCharacter(rootSkeleton())
	if err := c.Update(0.1); !errors.Is(err, ErrNoAnimation) {
		t.Fatalf("got %v, want ErrNoAnimation", err)
	}
}

func TestUpdateAdvancesMotion(t *testing.T) {
	c := NewCharacter(rootSkeleton(), WithAnimation(inPlaceAnim(t), strideTrack(t)))

	if err := c.Update(1); err != nil {
		t.Fatal(err)
	}
	got := c.Transform().Translation
	if !near3(got, [3]float32{0.5, 0, 0}, 1e-5) {
		t.Fatalf("got %v, want (0.5, 0, 0)", got)
	}

	w := c.WorldMatrix()
	if !near(w[12], 0.5, 1e-5) || !near(w[13], 0, 1e-5) || !near(w[14], 0, 1e-5) {
		t.Fatalf("world matrix translation got (%v, %v, %v)", w[12], w[13], w[14])
	}
}

func TestUpdateAccumulatesAcrossLoops(t *testing.T) {
	c := NewCharacter(rootSkeleton(), WithAnimation(inPlaceAnim(t), strideTrack(t)))

	// Five one-second steps over a two-second looping animation: two and a half loops.
	for i := 0; i < 5; i++ {
		if err := c.Update(1); err != nil {
			t.Fatal(err)
		}
	}
	got := c.Transform().Translation
	if !near3(got, [3]float32{2.5, 0, 0}, 1e-4) {
		t.Fatalf("got %v, want (2.5, 0, 0)", got)
	}
}

func TestApplyToggles(t *testing.T) {
	c := NewCharacter(rootSkeleton(), WithAnimation(inPlaceAnim(t), strideTrack(t)))
	if err := c.Update(1); err != nil {
		t.Fatal(err)
	}

	c.SetApplyMotionPosition(false)
	if got := c.Transform().Translation; !near3(got, [3]float32{0, 0, 0}, 1e-6) {
		t.Fatalf("disabled position still applied: %v", got)
	}

	// Accumulation continues while the toggle is off.
	c.SetApplyMotionPosition(true)
	if got := c.Transform().Translation; !near3(got, [3]float32{0.5, 0, 0}, 1e-5) {
		t.Fatalf("re-enabled position got %v, want (0.5, 0, 0)", got)
	}
}

func TestTeleport(t *testing.T) {
	c := NewCharacter(rootSkeleton(), WithAnimation(inPlaceAnim(t), strideTrack(t)))
	for i := 0; i < 4; i++ {
		if err := c.Update(1); err != nil {
			t.Fatal(err)
		}
	}

	dest := common.Transform{
		Translation: [3]float32{10, 0, 5},
		Rotation:    common.QuatIdentity(),
		Scale:       [3]float32{1, 1, 1},
	}
	c.Teleport(dest)
	if got := c.Transform().Translation; !near3(got, dest.Translation, 1e-6) {
		t.Fatalf("teleport got %v, want %v", got, dest.Translation)
	}

	if err := c.Update(1); err != nil {
		t.Fatal(err)
	}
	if got := c.Transform().Translation; !near3(got, [3]float32{10.5, 0, 5}, 1e-5) {
		t.Fatalf("post-teleport update got %v, want (10.5, 0, 5)", got)
	}
}

func TestSetExtractionPipeline(t *testing.T) {
	raw := animation.RawAnimation{
		Name:     "walk",
		Duration: 2,
		Tracks: []animation.JointTrack{{
			Translations: []animation.VectorKeyframe{
				{Time: 0, Value: [3]float32{0, 0, 0}},
				{Time: 2, Value: [3]float32{1, 0, 0}},
			},
		}},
	}

	c := NewCharacter(rootSkeleton())
	e := motion.NewExtractor()
	e.PositionSettings.Loop = true
	if err := c.SetExtraction(&raw, e, track.Optimizer{}); err != nil {
		t.Fatal(err)
	}

	// Three one-second steps: one and a half loops of a one-unit stride.
	for i := 0; i < 3; i++ {
		if err := c.Update(1); err != nil {
			t.Fatal(err)
		}
	}
	got := c.Transform().Translation
	if !near(got[0], 1.5, 1e-4) {
		t.Fatalf("accumulated x got %v, want 1.5", got[0])
	}

	// The residual animation is in place: the root's model matrix stays at the origin.
	m := c.ModelMatrices()[0]
	if !near(m[12], 0, 1e-5) {
		t.Fatalf("residual root not pinned: x %v", m[12])
	}
}

func TestStageRegistry(t *testing.T) {
	s := NewStage(WithWorkers(2))
	c := NewCharacter(rootSkeleton())
	id := s.Add(c)

	if s.Count() != 1 {
		t.Fatalf("got count %d, want 1", s.Count())
	}
	if s.Get(id) == nil {
		t.Fatal("registered character not found")
	}
	s.Remove(id)
	if s.Count() != 0 || s.Get(id) != nil {
		t.Fatal("character not removed")
	}
}

func TestStageUpdateFansOut(t *testing.T) {
	s := NewStage(WithWorkers(2))
	var chars []Character
	for i := 0; i < 4; i++ {
		c := NewCharacter(rootSkeleton(), WithAnimation(inPlaceAnim(t), strideTrack(t)))
		chars = append(chars, c)
		s.Add(c)
	}
	// A character without an animation must not fail the frame.
	s.Add(NewCharacter(rootSkeleton()))

	if err := s.Update(1); err != nil {
		t.Fatal(err)
	}
	for i, c := range chars {
		if got := c.Transform().Translation; !near3(got, [3]float32{0.5, 0, 0}, 1e-5) {
			t.Fatalf("character %d got %v, want (0.5, 0, 0)", i, got)
		}
	}
}
