package skeleton

import (
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/stride-go/common"
)

func TestSkeletonValidate(t *testing.T) {
	tests := []struct {
		name    string
		joints  []Joint
		wantErr bool
	}{
		{
			name:    "empty skeleton rejected",
			joints:  nil,
			wantErr: true,
		},
		{
			name: "single root valid",
			joints: []Joint{
				{Name: "root", ParentIndex: -1, RestPose: common.TransformIdentity()},
			},
			wantErr: false,
		},
		{
			name: "parent before child valid",
			joints: []Joint{
				{Name: "root", ParentIndex: -1, RestPose: common.TransformIdentity()},
				{Name: "spine", ParentIndex: 0, RestPose: common.TransformIdentity()},
				{Name: "head", ParentIndex: 1, RestPose: common.TransformIdentity()},
			},
			wantErr: false,
		},
		{
			name: "self parent rejected",
			joints: []Joint{
				{Name: "root", ParentIndex: 0, RestPose: common.TransformIdentity()},
			},
			wantErr: true,
		},
		{
			name: "forward parent rejected",
			joints: []Joint{
				{Name: "root", ParentIndex: 1, RestPose: common.TransformIdentity()},
				{Name: "spine", ParentIndex: -1, RestPose: common.TransformIdentity()},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Skeleton{Joints: tt.joints}
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSkeleton) {
				t.Errorf("Validate() error = %v, want ErrInvalidSkeleton", err)
			}
		})
	}
}

func TestLocalToModelChainsTranslation(t *testing.T) {
	s := &Skeleton{Joints: []Joint{
		{Name: "root", ParentIndex: -1, RestPose: common.TransformIdentity()},
		{Name: "child", ParentIndex: 0, RestPose: common.TransformIdentity()},
	}}

	locals := []common.Transform{
		{Translation: [3]float32{1, 0, 0}, Rotation: common.QuatIdentity(), Scale: [3]float32{1, 1, 1}},
		{Translation: [3]float32{0, 2, 0}, Rotation: common.QuatIdentity(), Scale: [3]float32{1, 1, 1}},
	}
	models := make([][16]float32, 2)

	if err := LocalToModel(s, locals, models); err != nil {
		t.Fatalf("LocalToModel() error = %v", err)
	}

	// Child model translation is parent + child local offsets.
	if models[1][12] != 1 || models[1][13] != 2 || models[1][14] != 0 {
		t.Errorf("child translation = (%v, %v, %v), want (1, 2, 0)", models[1][12], models[1][13], models[1][14])
	}
}

func TestLocalToModelParentRotationMovesChild(t *testing.T) {
	// Parent rotated 90 degrees around Y; child offset along +X ends up at -Z.
	s, c := float32(math.Sin(math.Pi/4)), float32(math.Cos(math.Pi/4))
	skel := &Skeleton{Joints: []Joint{
		{Name: "root", ParentIndex: -1, RestPose: common.TransformIdentity()},
		{Name: "child", ParentIndex: 0, RestPose: common.TransformIdentity()},
	}}

	locals := []common.Transform{
		{Rotation: [4]float32{0, s, 0, c}, Scale: [3]float32{1, 1, 1}},
		{Translation: [3]float32{1, 0, 0}, Rotation: common.QuatIdentity(), Scale: [3]float32{1, 1, 1}},
	}
	models := make([][16]float32, 2)

	if err := LocalToModel(skel, locals, models); err != nil {
		t.Fatalf("LocalToModel() error = %v", err)
	}

	if math.Abs(float64(models[1][12])) > 1e-5 || math.Abs(float64(models[1][14]+1)) > 1e-5 {
		t.Errorf("child translation = (%v, %v, %v), want (0, 0, -1)", models[1][12], models[1][13], models[1][14])
	}
}

func TestLocalToModelBufferMismatch(t *testing.T) {
	s := &Skeleton{Joints: []Joint{
		{Name: "root", ParentIndex: -1, RestPose: common.TransformIdentity()},
	}}

	err := LocalToModel(s, make([]common.Transform, 2), make([][16]float32, 1))
	if !errors.Is(err, ErrBufferMismatch) {
		t.Fatalf("LocalToModel() error = %v, want ErrBufferMismatch", err)
	}
}
