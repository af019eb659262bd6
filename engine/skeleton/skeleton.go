// Package skeleton holds the joint hierarchy data model: rest-pose transforms,
// parent indexing, and the local-to-model conversion used to turn sampled joint
// transforms into model-space matrices.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/stride-go/common"
)

// ErrInvalidSkeleton is returned when skeleton data fails validation.
var ErrInvalidSkeleton = errors.New("skeleton: invalid skeleton")

// ErrBufferMismatch is returned when a conversion buffer does not match the
// skeleton's joint count.
var ErrBufferMismatch = errors.New("skeleton: buffer size does not match joint count")

// Joint represents a single joint in the hierarchy.
type Joint struct {
	// Name is the joint's identifier (for debugging and animation targeting).
	Name string

	// ParentIndex is the index of the parent joint (-1 for root joints).
	// Parents always precede children in the joint slice.
	ParentIndex int32

	// RestPose is the joint's bind-time transform relative to its parent.
	RestPose common.Transform
}

// Skeleton represents a read-only joint hierarchy. Joints are ordered so that a
// parent always appears before its children, which lets local-to-model run as a
// single forward pass.
type Skeleton struct {
	// Joints is the array of all joints in the skeleton.
	Joints []Joint
}

// NumJoints returns the number of joints in the skeleton.
func (s *Skeleton) NumJoints() int {
	return len(s.Joints)
}

// Validate checks hierarchy ordering: every joint's parent must either be -1 or
// an earlier joint.
//
// Returns:
//   - error: ErrInvalidSkeleton (wrapped with detail) if the hierarchy is malformed
func (s *Skeleton) Validate() error {
	if len(s.Joints) == 0 {
		return fmt.Errorf("%w: no joints", ErrInvalidSkeleton)
	}
	for i, j := range s.Joints {
		if j.ParentIndex >= int32(i) {
			return fmt.Errorf("%w: joint %d (%s) parent %d is not an earlier joint", ErrInvalidSkeleton, i, j.Name, j.ParentIndex)
		}
		if j.ParentIndex < -1 {
			return fmt.Errorf("%w: joint %d (%s) parent %d out of range", ErrInvalidSkeleton, i, j.Name, j.ParentIndex)
		}
	}
	return nil
}

// JointRestPose returns the rest-pose transform of the joint at the given index.
//
// Parameters:
//   - index: the joint index
//
// Returns:
//   - common.Transform: the joint's rest pose
//   - error: error if the index is out of range
func (s *Skeleton) JointRestPose(index int) (common.Transform, error) {
	if index < 0 || index >= len(s.Joints) {
		return common.Transform{}, fmt.Errorf("%w: joint index %d out of range", ErrInvalidSkeleton, index)
	}
	return s.Joints[index].RestPose, nil
}

// LocalToModel converts per-joint local transforms into model-space matrices by
// walking the hierarchy in order. Matrices are flat column-major [16]float32 in
// the engine's matrix convention. Both slices must be sized to NumJoints();
// models is written in place so callers can reuse the buffer every tick.
//
// Parameters:
//   - s: the skeleton supplying the hierarchy
//   - locals: per-joint local transforms, parent-relative
//   - models: destination model-space matrices, one per joint
//
// Returns:
//   - error: ErrBufferMismatch if either slice size differs from the joint count
func LocalToModel(s *Skeleton, locals []common.Transform, models [][16]float32) error {
	n := s.NumJoints()
	if len(locals) != n || len(models) != n {
		return fmt.Errorf("%w: joints=%d locals=%d models=%d", ErrBufferMismatch, n, len(locals), len(models))
	}

	var local [16]float32
	for i := 0; i < n; i++ {
		common.FromAffine(local[:], locals[i])
		parent := s.Joints[i].ParentIndex
		if parent < 0 {
			models[i] = local
			continue
		}
		common.Mul4(models[i][:], models[parent][:], local[:])
	}
	return nil
}
