// Package profiler tracks frame timing and memory statistics for the viewer
// programs, logging a summary line at a fixed interval.
package profiler

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// Stats is a snapshot of the metrics gathered over one reporting interval.
type Stats struct {
	// FPS is the average frame rate over the interval.
	FPS float64
	// FrameMin is the shortest frame observed in the interval.
	FrameMin time.Duration
	// FrameMax is the longest frame observed in the interval.
	FrameMax time.Duration
	// HeapMB is the live heap size in mebibytes.
	HeapMB float64
	// AllocRateMB is the heap allocation churn in mebibytes per second.
	AllocRateMB float64
	// GCCount is the cumulative garbage collection count.
	GCCount uint32
}

// String formats the snapshot as a single log-friendly line.
//
// Returns:
//   - string: the formatted statistics
func (s Stats) String() string {
	return fmt.Sprintf("fps: %.1f | frame: %.2f-%.2f ms | heap: %.1f MB | alloc: %.2f MB/s | gc: %d",
		s.FPS,
		float64(s.FrameMin.Microseconds())/1000,
		float64(s.FrameMax.Microseconds())/1000,
		s.HeapMB, s.AllocRateMB, s.GCCount)
}

// Profiler aggregates per-frame timings and reports them periodically. It is
// not safe for concurrent use; call Tick from the frame loop thread.
type Profiler struct {
	frameCount     int
	frameMin       time.Duration
	frameMax       time.Duration
	lastTick       time.Time
	intervalStart  time.Time
	interval       time.Duration
	logging        bool
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	stats          Stats
}

// NewProfiler creates a profiler. The reporting interval defaults to one
// second with logging enabled.
//
// Parameters:
//   - options: functional options to further configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	now := time.Now()
	p := &Profiler{
		lastTick:      now,
		intervalStart: now,
		interval:      time.Second,
		logging:       true,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Tick records one frame boundary. When the reporting interval has elapsed the
// aggregated statistics are captured, optionally logged, and the interval
// restarts.
//
// Returns:
//   - bool: true when a new snapshot was captured this tick
func (p *Profiler) Tick() bool {
	now := time.Now()
	frame := now.Sub(p.lastTick)
	p.lastTick = now

	p.frameCount++
	if p.frameMin == 0 || frame < p.frameMin {
		p.frameMin = frame
	}
	if frame > p.frameMax {
		p.frameMax = frame
	}

	elapsed := now.Sub(p.intervalStart)
	if elapsed < p.interval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	p.stats = Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		FrameMin:    p.frameMin,
		FrameMax:    p.frameMax,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}
	if p.logging {
		log.Printf("[profiler] %s", p.stats)
	}

	p.frameCount = 0
	p.frameMin = 0
	p.frameMax = 0
	p.intervalStart = now
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Stats returns the most recent snapshot. Zero until the first interval has
// elapsed.
//
// Returns:
//   - Stats: the latest captured statistics
func (p *Profiler) Stats() Stats {
	return p.stats
}
