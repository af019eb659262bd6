package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a profiler at
// creation time.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets the reporting interval. Non-positive values are ignored.
//
// Parameters:
//   - interval: time between statistic snapshots
//
// Returns:
//   - ProfilerBuilderOption: the option to pass to NewProfiler
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithLogging enables or disables the periodic log line. Statistics are still
// captured and available through Stats when disabled.
//
// Parameters:
//   - enabled: whether snapshots are written to the log
//
// Returns:
//   - ProfilerBuilderOption: the option to pass to NewProfiler
func WithLogging(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logging = enabled
	}
}
