package character

// StageBuilderOption configures a stage during construction.
type StageBuilderOption func(*stage)

// WithWorkers overrides the number of update workers, which defaults to one
// less than the CPU count.
//
// Parameters:
//   - n: the worker count, clamped to at least 1
//
// Returns:
//   - StageBuilderOption: the option to apply
func WithWorkers(n int) StageBuilderOption {
	return func(s *stage) {
		s.workers = max(n, 1)
	}
}
