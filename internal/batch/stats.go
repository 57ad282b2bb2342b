package batch

import (
	"sync"
	"time"
)

// Stats accumulates per-item outcomes across concurrent workers.
// Every settled item increments exactly one counter.
type Stats struct {
	mu        sync.Mutex
	completed int
	failed    int
	skipped   int
	startedAt time.Time
}

// Summary is a point-in-time copy of the accumulated counts.
type Summary struct {
	Completed int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}

// NewStats starts the run clock.
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) RecordSuccess() {
	s.mu.Lock()
	s.completed++
	s.mu.Unlock()
}

func (s *Stats) RecordFailure() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

// RecordSkipped counts items excluded by the resume filter. Skips are not
// failures.
func (s *Stats) RecordSkipped(n int) {
	s.mu.Lock()
	s.skipped += n
	s.mu.Unlock()
}

// Snapshot returns the current counts and elapsed wall-clock time.
func (s *Stats) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		Completed: s.completed,
		Failed:    s.failed,
		Skipped:   s.skipped,
		Elapsed:   time.Since(s.startedAt),
	}
}
