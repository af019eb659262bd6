// Package character ties the animation pipeline together for one animated
// entity: a playback controller drives a sampling context over the residual
// animation while a motion accumulator integrates the extracted root-motion
// track into the character's world transform. A Stage updates many characters
// in parallel over a reusable worker pool.
package character

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/stride-go/common"
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/motion"
	"github.com/Carmen-Shannon/stride-go/engine/playback"
	"github.com/Carmen-Shannon/stride-go/engine/skeleton"
	"github.com/Carmen-Shannon/stride-go/engine/track"
	"github.com/google/uuid"
)

// ErrNoAnimation is returned when an operation requires an animation and none
// is set.
var ErrNoAnimation = errors.New("character: no animation set")

// Character animates one skeleton instance. Each Update advances playback,
// folds root motion into the accumulated world transform, samples the residual
// animation and rebuilds model-space joint matrices. On any error the previous
// frame's pose and transform are held. Thread-safe for concurrent access.
type Character interface {
	// ID returns the character's unique identifier.
	ID() uuid.UUID

	// Skeleton returns the skeleton the character animates.
	Skeleton() *skeleton.Skeleton

	// Controller returns the playback controller driving the character. The
	// controller is owned by the character; mutate it only between Update calls.
	Controller() *playback.Controller

	// SetAnimation swaps the animation and its motion track in one step so a
	// frame never samples mismatched data. The motion track may be nil for
	// in-place animations. The sampling context is resized and invalidated.
	//
	// Parameters:
	//   - anim: the residual animation to play
	//   - mt: the extracted motion track, or nil
	//
	// Returns:
	//   - error: animation.ErrSampling (wrapped) when the animation does not fit the skeleton
	SetAnimation(anim *animation.Animation, mt *motion.MotionTrack) error

	// SetExtraction runs the full extraction pipeline on a raw animation and
	// atomically adopts the result: motion curves are extracted per the
	// extractor's settings, optimized, compiled, and the residual animation is
	// built and swapped in. Accumulated motion is preserved across the swap.
	//
	// Parameters:
	//   - raw: the source animation
	//   - e: the extractor carrying per-channel settings
	//   - opt: the optimizer applied to the extracted curves
	//
	// Returns:
	//   - error: motion or animation build errors (wrapped)
	SetExtraction(raw *animation.RawAnimation, e *motion.Extractor, opt track.Optimizer) error

	// SetApplyMotionPosition toggles whether accumulated translation reaches the
	// character's world transform. Accumulation itself always continues.
	SetApplyMotionPosition(apply bool)

	// SetApplyMotionRotation toggles whether accumulated rotation reaches the
	// character's world transform. Accumulation itself always continues.
	SetApplyMotionRotation(apply bool)

	// Teleport relocates the character, discarding accumulated motion.
	//
	// Parameters:
	//   - t: the new world transform
	Teleport(t common.Transform)

	// Update advances the character by a wall-clock delta: playback first, then
	// root-motion accumulation for any loop wraps, then residual pose sampling
	// and the local-to-model pass. On error the previous pose is kept.
	//
	// Parameters:
	//   - dt: elapsed seconds since the last update
	//
	// Returns:
	//   - error: ErrNoAnimation, or sampling errors (wrapped)
	Update(dt float32) error

	// Transform returns the character's world transform: the accumulated root
	// motion gated by the apply toggles.
	//
	// Returns:
	//   - common.Transform: the world transform as of the last Update
	Transform() common.Transform

	// WorldMatrix returns the character's column-major world matrix. The
	// returned array is a copy.
	//
	// Returns:
	//   - [16]float32: the world matrix as of the last Update
	WorldMatrix() [16]float32

	// ModelMatrices returns the model-space joint matrices of the current pose,
	// one per joint. The slice is reused between updates; copy it to retain.
	//
	// Returns:
	//   - [][16]float32: model-space matrices as of the last Update
	ModelMatrices() [][16]float32
}

type character struct {
	mu *sync.RWMutex

	id   uuid.UUID
	skel *skeleton.Skeleton

	controller  *playback.Controller
	accumulator *motion.Accumulator
	ctx         *animation.SamplingContext

	anim        *animation.Animation
	motionTrack *motion.MotionTrack

	applyPosition bool
	applyRotation bool

	// Pose buffers reused every frame. locals holds the committed pose,
	// scratch receives the next sample and is swapped in on success so a failed
	// update never corrupts the committed pose.
	locals  []common.Transform
	scratch []common.Transform
	models  [][16]float32
	world   [16]float32
}

var _ Character = &character{}

// NewCharacter creates a character for a skeleton. Panics if the skeleton is
// nil or invalid, mirroring the fail-fast construction used across the engine.
//
// Parameters:
//   - skel: the skeleton to animate (must be valid)
//   - options: functional options to further configure the character
//
// Returns:
//   - Character: the newly created character
func NewCharacter(skel *skeleton.Skeleton, options ...CharacterBuilderOption) Character {
	if skel == nil {
		panic("character: NewCharacter requires a non-nil Skeleton")
	}
	if err := skel.Validate(); err != nil {
		panic(fmt.Sprintf("character: NewCharacter requires a valid Skeleton: %v", err))
	}

	n := skel.NumJoints()
	c := &character{
		mu:            &sync.RWMutex{},
		id:            uuid.New(),
		skel:          skel,
		controller:    playback.NewController(),
		accumulator:   motion.NewAccumulator(),
		ctx:           animation.NewSamplingContext(n),
		applyPosition: true,
		applyRotation: true,
		locals:        make([]common.Transform, n),
		scratch:       make([]common.Transform, n),
		models:        make([][16]float32, n),
	}
	for i := 0; i < n; i++ {
		c.locals[i] = skel.Joints[i].RestPose
		c.scratch[i] = common.TransformIdentity()
	}
	common.Identity(c.world[:])

	for _, option := range options {
		option(c)
	}
	return c
}

func (c *character) ID() uuid.UUID {
	return c.id
}

func (c *character) Skeleton() *skeleton.Skeleton {
	return c.skel
}

func (c *character) Controller() *playback.Controller {
	return c.controller
}

func (c *character) SetAnimation(anim *animation.Animation, mt *motion.MotionTrack) error {
	if anim != nil && anim.NumTracks() != c.skel.NumJoints() {
		return fmt.Errorf("%w: animation has %d tracks, skeleton has %d joints", animation.ErrSampling, anim.NumTracks(), c.skel.NumJoints())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.anim = anim
	c.motionTrack = mt
	c.ctx.Resize(c.skel.NumJoints())
	c.ctx.Invalidate()
	return nil
}

func (c *character) SetExtraction(raw *animation.RawAnimation, e *motion.Extractor, opt track.Optimizer) error {
	rawPos, rawRot, residual, err := e.Extract(raw, c.skel)
	if err != nil {
		return err
	}
	mt, err := motion.BuildMotionTrack(rawPos, rawRot, opt, e.PositionSettings.Loop, e.RotationSettings.Loop)
	if err != nil {
		return err
	}
	anim, err := animation.Build(&residual)
	if err != nil {
		return fmt.Errorf("character: residual animation: %w", err)
	}
	return c.SetAnimation(anim, mt)
}

func (c *character) SetApplyMotionPosition(apply bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyPosition = apply
}

func (c *character) SetApplyMotionRotation(apply bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyRotation = apply
}

func (c *character) Teleport(t common.Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accumulator.Teleport(t)
	c.refreshWorld()
}

func (c *character) Update(dt float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.anim == nil {
		return ErrNoAnimation
	}

	loops := c.controller.Update(c.anim.Duration(), dt)
	ratio := c.controller.TimeRatio()

	if c.motionTrack != nil {
		if _, err := c.accumulator.Update(c.motionTrack, ratio, loops); err != nil {
			return fmt.Errorf("character: %w", err)
		}
	}

	if err := animation.Sample(c.anim, c.ctx, ratio, c.scratch); err != nil {
		return fmt.Errorf("character: %w", err)
	}
	c.locals, c.scratch = c.scratch, c.locals

	if err := skeleton.LocalToModel(c.skel, c.locals, c.models); err != nil {
		return fmt.Errorf("character: %w", err)
	}

	c.refreshWorld()
	return nil
}

func (c *character) Transform() common.Transform {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gatedTransform()
}

func (c *character) WorldMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.world
}

func (c *character) ModelMatrices() [][16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.models
}

// gatedTransform applies the per-channel toggles to the accumulated transform.
// Callers must hold the mutex.
func (c *character) gatedTransform() common.Transform {
	t := c.accumulator.Transform()
	if !c.applyPosition {
		t.Translation = [3]float32{}
	}
	if !c.applyRotation {
		t.Rotation = common.QuatIdentity()
	}
	return t
}

// refreshWorld rebuilds the cached world matrix. Callers must hold the mutex.
func (c *character) refreshWorld() {
	common.FromAffine(c.world[:], c.gatedTransform())
}
