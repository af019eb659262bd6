// Package playback tracks normalized animation time. A controller advances a
// ratio in [0, 1] from wall-clock deltas, reporting loop wraps to whoever
// accumulates root motion, and supports pausing, time scaling and eased speed
// ramps.
package playback

import (
	"math"

	"github.com/fogleman/ease"
)

// Controller advances a normalized playback ratio. The zero value is not
// usable; create controllers with NewController.
type Controller struct {
	ratio     float32
	previous  float32
	speed     float32
	playing   bool
	loop      bool
	ramping   bool
	rampFrom  float32
	rampTo    float32
	rampTime  float32
	rampTotal float32
}

// NewController creates a controller at ratio 0, playing, looping, at unit
// speed.
//
// Returns:
//   - *Controller: the initialized controller
func NewController() *Controller {
	return &Controller{speed: 1, playing: true, loop: true}
}

// TimeRatio returns the current normalized playback time.
func (c *Controller) TimeRatio() float32 {
	return c.ratio
}

// PreviousTimeRatio returns the normalized playback time before the last
// Update call.
func (c *Controller) PreviousTimeRatio() float32 {
	return c.previous
}

// SetTimeRatio jumps playback to a ratio. Looping controllers wrap the value
// into [0, 1); non-looping controllers clamp it. The previous ratio is set to
// the same value so no phantom delta is reported.
//
// Parameters:
//   - ratio: the normalized time to jump to
func (c *Controller) SetTimeRatio(ratio float32) {
	if c.loop {
		ratio = wrap(ratio)
	} else {
		ratio = clamp(ratio)
	}
	c.ratio = ratio
	c.previous = ratio
}

// Play resumes playback.
func (c *Controller) Play() {
	c.playing = true
}

// Pause halts playback; Update becomes a no-op until Play.
func (c *Controller) Pause() {
	c.playing = false
}

// Playing reports whether the controller is advancing.
func (c *Controller) Playing() bool {
	return c.playing
}

// SetLoop switches between wrapping and clamping at the end of the animation.
func (c *Controller) SetLoop(loop bool) {
	c.loop = loop
}

// Loop reports whether playback wraps at the end of the animation.
func (c *Controller) Loop() bool {
	return c.loop
}

// SetSpeed sets the playback speed multiplier. Negative values play backwards.
// Any ramp in progress is cancelled.
//
// Parameters:
//   - speed: the time scale applied to Update deltas
func (c *Controller) SetSpeed(speed float32) {
	c.speed = speed
	c.ramping = false
}

// Speed returns the current playback speed multiplier.
func (c *Controller) Speed() float32 {
	return c.speed
}

// RampSpeed eases the playback speed from its current value to target over the
// given wall-clock duration, evaluated as Update is called. A non-positive
// duration applies the target immediately.
//
// Parameters:
//   - target: the speed multiplier to reach
//   - duration: ramp length in seconds
func (c *Controller) RampSpeed(target, duration float32) {
	if duration <= 0 {
		c.SetSpeed(target)
		return
	}
	c.ramping = true
	c.rampFrom = c.speed
	c.rampTo = target
	c.rampTime = 0
	c.rampTotal = duration
}

// Update advances playback by a wall-clock delta against an animation of the
// given duration and reports how many times the ratio wrapped. Looping
// controllers wrap and return the signed wrap count; non-looping controllers
// clamp to [0, 1] and always return 0. Paused controllers hold their ratio.
//
// Parameters:
//   - duration: the animation length in seconds, must be positive
//   - dt: elapsed wall-clock seconds since the previous update
//
// Returns:
//   - int: signed number of loop wraps that occurred during this update
func (c *Controller) Update(duration, dt float32) int {
	c.previous = c.ratio
	if !c.playing || duration <= 0 {
		return 0
	}

	if c.ramping {
		c.rampTime += dt
		t := float64(c.rampTime / c.rampTotal)
		if t >= 1 {
			t = 1
			c.ramping = false
		}
		c.speed = c.rampFrom + (c.rampTo-c.rampFrom)*float32(ease.InOutQuad(t))
	}

	next := c.ratio + dt*c.speed/duration
	if !c.loop {
		c.ratio = clamp(next)
		return 0
	}

	loops := int(math.Floor(float64(next)))
	c.ratio = wrap(next)
	return loops
}

func clamp(r float32) float32 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// wrap maps a ratio into [0, 1), keeping 0 for exact integers.
func wrap(r float32) float32 {
	w := r - float32(math.Floor(float64(r)))
	return w
}
