package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler runs a task repeatedly with a delay re-read before each run. At
// most one timer is outstanding at any time.
type Scheduler struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	timer   clockwork.Timer
	running bool
	gen     uint64
}

// NewScheduler creates a stopped scheduler on clock.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Start schedules task after delay(), then again after each run completes.
// It returns false if the scheduler is already running.
func (s *Scheduler) Start(delay func() time.Duration, task func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.gen++
	s.schedule(s.gen, delay, task)
	return true
}

// Stop cancels the pending run. A run already executing finishes but does
// not reschedule.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Running reports whether a run is scheduled.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// schedule must be called with mu held.
func (s *Scheduler) schedule(gen uint64, delay func() time.Duration, task func()) {
	s.timer = s.clock.AfterFunc(delay(), func() { s.fire(gen, delay, task) })
}

func (s *Scheduler) fire(gen uint64, delay func() time.Duration, task func()) {
	if !s.current(gen) {
		return
	}
	task()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || gen != s.gen {
		return
	}
	s.schedule(gen, delay, task)
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && gen == s.gen
}
