package playback

import (
	"math"
	"testing"
)

func near(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

func TestControllerAdvance(t *testing.T) {
	c := NewController()
	loops := c.Update(2, 0.5)
	if loops != 0 {
		t.Fatalf("got %d loops, want 0", loops)
	}
	if !near(c.TimeRatio(), 0.25, 1e-6) {
		t.Fatalf("got ratio %v, want 0.25", c.TimeRatio())
	}
	if c.PreviousTimeRatio() != 0 {
		t.Fatalf("got previous %v, want 0", c.PreviousTimeRatio())
	}
}

func TestControllerWraps(t *testing.T) {
	tests := []struct {
		name      string
		start     float32
		speed     float32
		dt        float32
		wantLoops int
		wantRatio float32
	}{
		{"single wrap", 0.75, 1, 1, 1, 0.25},
		{"multiple wraps", 0, 1, 5, 2, 0.5},
		{"backward wrap", 0.25, -1, 1, -1, 0.75},
		{"no wrap", 0.25, 1, 0.5, 0, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewController()
			c.SetTimeRatio(tc.start)
			c.SetSpeed(tc.speed)
			loops := c.Update(2, tc.dt)
			if loops != tc.wantLoops {
				t.Fatalf("got %d loops, want %d", loops, tc.wantLoops)
			}
			if !near(c.TimeRatio(), tc.wantRatio, 1e-5) {
				t.Fatalf("got ratio %v, want %v", c.TimeRatio(), tc.wantRatio)
			}
		})
	}
}

func TestControllerClampsWithoutLoop(t *testing.T) {
	c := NewController()
	c.SetLoop(false)
	c.SetTimeRatio(0.9)
	if loops := c.Update(2, 1); loops != 0 {
		t.Fatalf("non-looping controller reported %d loops", loops)
	}
	if c.TimeRatio() != 1 {
		t.Fatalf("got ratio %v, want clamp at 1", c.TimeRatio())
	}
	c.Update(2, 1)
	if c.TimeRatio() != 1 {
		t.Fatalf("ratio moved past end: %v", c.TimeRatio())
	}
}

func TestControllerPause(t *testing.T) {
	c := NewController()
	c.Update(2, 0.5)
	c.Pause()
	if loops := c.Update(2, 10); loops != 0 {
		t.Fatalf("paused controller reported %d loops", loops)
	}
	if !near(c.TimeRatio(), 0.25, 1e-6) {
		t.Fatalf("paused controller moved to %v", c.TimeRatio())
	}
	c.Play()
	c.Update(2, 0.5)
	if !near(c.TimeRatio(), 0.5, 1e-6) {
		t.Fatalf("resumed controller at %v, want 0.5", c.TimeRatio())
	}
}

func TestSetTimeRatio(t *testing.T) {
	c := NewController()
	c.SetTimeRatio(1.25)
	if !near(c.TimeRatio(), 0.25, 1e-6) {
		t.Fatalf("looping jump got %v, want wrap to 0.25", c.TimeRatio())
	}
	if c.PreviousTimeRatio() != c.TimeRatio() {
		t.Fatalf("jump left a phantom delta: previous %v, current %v", c.PreviousTimeRatio(), c.TimeRatio())
	}

	c.SetLoop(false)
	c.SetTimeRatio(1.5)
	if c.TimeRatio() != 1 {
		t.Fatalf("clamping jump got %v, want 1", c.TimeRatio())
	}
}

func TestRampSpeed(t *testing.T) {
	c := NewController()
	c.RampSpeed(3, 1)

	c.Update(10, 0.5)
	// InOutQuad is 0.5 at its midpoint, so the speed is halfway through the ramp.
	if !near(c.Speed(), 2, 1e-5) {
		t.Fatalf("mid-ramp speed got %v, want 2", c.Speed())
	}
	c.Update(10, 0.5)
	if !near(c.Speed(), 3, 1e-5) {
		t.Fatalf("post-ramp speed got %v, want 3", c.Speed())
	}
	c.Update(10, 1)
	if !near(c.Speed(), 3, 1e-5) {
		t.Fatalf("speed drifted after ramp: %v", c.Speed())
	}
}

func TestRampSpeedImmediate(t *testing.T) {
	c := NewController()
	c.RampSpeed(0.5, 0)
	if c.Speed() != 0.5 {
		t.Fatalf("got speed %v, want 0.5", c.Speed())
	}
}

func TestSetSpeedCancelsRamp(t *testing.T) {
	c := NewController()
	c.RampSpeed(3, 1)
	c.SetSpeed(1)
	c.Update(10, 0.5)
	if c.Speed() != 1 {
		t.Fatalf("cancelled ramp still applied: speed %v", c.Speed())
	}
}
