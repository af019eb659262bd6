package character

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
)

// Stage is a registry of characters updated together each frame. Updates fan
// out over a bounded pool of reusable workers so large crowds do not spawn
// per-frame goroutines. Thread-safe for concurrent access.
type Stage interface {
	// Add registers a character with the stage.
	//
	// Parameters:
	//   - c: the character to register
	//
	// Returns:
	//   - uuid.UUID: the character's identifier
	Add(c Character) uuid.UUID

	// Get retrieves a character by its identifier. Returns nil if not found.
	//
	// Parameters:
	//   - id: the character's identifier
	//
	// Returns:
	//   - Character: the character or nil
	Get(id uuid.UUID) Character

	// Remove unregisters a character by its identifier.
	//
	// Parameters:
	//   - id: the character's identifier
	Remove(id uuid.UUID)

	// Count returns the number of registered characters.
	Count() int

	// Update advances every registered character by the delta in parallel.
	// Characters without an animation are skipped.
	//
	// Parameters:
	//   - dt: elapsed seconds since the last update
	//
	// Returns:
	//   - error: the joined errors of all characters that failed to update
	Update(dt float32) error
}

type stage struct {
	mu *sync.RWMutex

	registry map[uuid.UUID]Character

	// pool manages a bounded set of reusable goroutines for parallel character
	// updates. Workers persist across frames.
	pool    worker.DynamicWorkerPool
	workers int
}

var _ Stage = &stage{}

// NewStage creates an empty stage.
//
// Parameters:
//   - options: functional options to further configure the stage
//
// Returns:
//   - Stage: the newly created stage
func NewStage(options ...StageBuilderOption) Stage {
	s := &stage{
		mu:       &sync.RWMutex{},
		registry: make(map[uuid.UUID]Character),
		workers:  max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// Queue size of 256 accommodates typical crowd sizes with headroom.
	s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)
	return s
}

func (s *stage) Add(c Character) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[c.ID()] = c
	return c.ID()
}

func (s *stage) Get(id uuid.UUID) Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *stage) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, id)
}

func (s *stage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *stage) Update(dt float32) error {
	s.mu.RLock()
	characters := make([]Character, 0, len(s.registry))
	for _, c := range s.registry {
		characters = append(characters, c)
	}
	s.mu.RUnlock()

	// A WaitGroup provides the per-frame barrier since pool.Wait() blocks until
	// workers idle-exit, which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs []error
	for i, c := range characters {
		wg.Add(1)
		cCap := c
		s.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := cCap.Update(dt); err != nil && !errors.Is(err, ErrNoAnimation) {
					errMu.Lock()
					errs = append(errs, err)
					errMu.Unlock()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}
