package scheduler

import (
	"sync"
	"time"

	"github.com/viant/labflow/progress"
)

type Option func(s *Scheduler)

// WithStepLocker sets a locker held while the scheduler touches its queue or
// runs a process between two suspension points. Callers spawning or
// cancelling processes from other goroutines must hold the same locker.
func WithStepLocker(locker sync.Locker) Option {
	return func(s *Scheduler) {
		s.locker = locker
	}
}

// WithRealTimeFactor throttles the run loop so that one unit of virtual time
// takes factor units of wall-clock time. Zero disables pacing.
func WithRealTimeFactor(factor float64) Option {
	return func(s *Scheduler) {
		if factor > 0 {
			s.factor = factor
		}
	}
}

// WithObserver sets the resource observer.
func WithObserver(observer Observer) Option {
	return func(s *Scheduler) {
		s.observer = observer
	}
}

// WithProgress sets the progress tracker updated on spawn and completion.
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Scheduler) {
		s.progress = tracker
	}
}

// WithStartTime sets the initial virtual time, for resuming a saved run.
func WithStartTime(now time.Duration) Option {
	return func(s *Scheduler) {
		if now > 0 {
			s.now = now
		}
	}
}
