package loadtest

import (
	"context"
	"time"

	"github.com/bool64/ctxd"
	"golang.org/x/time/rate"
)

// Invoker is a single simulated user behavior.
type Invoker interface {
	Run(ctx context.Context) error
}

// Clock abstracts time for session pacing.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock uses time package.
type RealClock struct{}

// Now returns current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// After waits for duration to elapse.
func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Session is a simulated user that repeatedly invokes a task with a constant wait in between.
type Session struct {
	ID      int
	Task    Invoker
	Wait    time.Duration
	Count   int
	Limiter *rate.Limiter
	Clock   Clock
	Logger  ctxd.Logger
}

// Run invokes task until context is done or Count invocations are made, returns number of invocations.
//
// Task failures are logged and do not stop the session.
func (s *Session) Run(ctx context.Context) int {
	clock := s.Clock
	if clock == nil {
		clock = RealClock{}
	}

	ctx = ctxd.AddFields(ctx, "session", s.ID)
	n := 0

	for {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return n
			}
		}

		if ctx.Err() != nil {
			return n
		}

		if err := s.Task.Run(ctx); err != nil && ctx.Err() == nil && s.Logger != nil {
			s.Logger.Warn(ctx, "task failed", "error", err)
		}

		n++

		if s.Count > 0 && n >= s.Count {
			return n
		}

		select {
		case <-ctx.Done():
			return n
		case <-clock.After(s.Wait):
		}
	}
}
