package character

import (
	"github.com/Carmen-Shannon/stride-go/engine/animation"
	"github.com/Carmen-Shannon/stride-go/engine/motion"
)

// CharacterBuilderOption configures a character during construction.
type CharacterBuilderOption func(*character)

// WithAnimation sets the initial animation and motion track. Panics if the
// animation does not fit the character's skeleton.
//
// Parameters:
//   - anim: the residual animation to play
//   - mt: the extracted motion track, or nil
//
// Returns:
//   - CharacterBuilderOption: the option to apply
func WithAnimation(anim *animation.Animation, mt *motion.MotionTrack) CharacterBuilderOption {
	return func(c *character) {
		if err := c.SetAnimation(anim, mt); err != nil {
			panic("character: WithAnimation: " + err.Error())
		}
	}
}

// WithMotionApplied sets the initial per-channel toggles routing accumulated
// root motion into the character's world transform.
//
// Parameters:
//   - position: whether accumulated translation is applied
//   - rotation: whether accumulated rotation is applied
//
// Returns:
//   - CharacterBuilderOption: the option to apply
func WithMotionApplied(position, rotation bool) CharacterBuilderOption {
	return func(c *character) {
		c.applyPosition = position
		c.applyRotation = rotation
	}
}

// WithLoop sets whether the character's playback controller loops.
//
// Parameters:
//   - loop: the initial looping mode
//
// Returns:
//   - CharacterBuilderOption: the option to apply
func WithLoop(loop bool) CharacterBuilderOption {
	return func(c *character) {
		c.controller.SetLoop(loop)
	}
}
