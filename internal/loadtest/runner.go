package loadtest

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/bool64/ctxd"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// RunnerConfig defines simulated users population.
type RunnerConfig struct {
	// Users is a number of concurrent sessions.
	Users int
	// SpawnRate is a number of sessions started per second, 0 starts all at once.
	SpawnRate float64
	// Wait is a constant delay between invocations of a session.
	Wait time.Duration
	// Count limits invocations per session, 0 is unlimited.
	Count int
	// Duration limits total run time, 0 is unlimited.
	Duration time.Duration
	// RateLimit caps total invocations per second across sessions, 0 is unlimited.
	RateLimit float64
}

// Runner starts and joins simulated user sessions.
type Runner struct {
	Config RunnerConfig

	// NewTask creates a task for a user session.
	NewTask func(user int) (Invoker, error)

	Clock  Clock
	Logger ctxd.Logger
}

// Run starts sessions and blocks until they are finished, returns total number of invocations.
func (r *Runner) Run(ctx context.Context) (int, error) {
	cfg := r.Config

	if cfg.Users < 1 {
		return 0, errors.New("at least one user is required")
	}

	clock := r.Clock
	if clock == nil {
		clock = RealClock{}
	}

	sessions := make([]*Session, 0, cfg.Users)

	var limiter *rate.Limiter

	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(math.Max(1, cfg.RateLimit)))
	}

	for u := 0; u < cfg.Users; u++ {
		task, err := r.NewTask(u)
		if err != nil {
			return 0, ctxd.WrapError(ctx, err, "failed to create task", "user", u)
		}

		sessions = append(sessions, &Session{
			ID:      u,
			Task:    task,
			Wait:    cfg.Wait,
			Count:   cfg.Count,
			Limiter: limiter,
			Clock:   clock,
			Logger:  r.Logger,
		})
	}

	if cfg.Duration > 0 {
		var cancel func()

		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	var (
		total int64
		g     errgroup.Group
	)

	var spawnDelay time.Duration
	if cfg.SpawnRate > 0 {
		spawnDelay = time.Duration(float64(time.Second) / cfg.SpawnRate)
	}

spawn:
	for i, s := range sessions {
		if i > 0 && spawnDelay > 0 {
			select {
			case <-ctx.Done():
				break spawn
			case <-clock.After(spawnDelay):
			}
		}

		s := s

		g.Go(func() error {
			atomic.AddInt64(&total, int64(s.Run(ctx)))

			return nil
		})
	}

	if r.Logger != nil {
		r.Logger.Debug(ctx, "sessions started", "users", cfg.Users)
	}

	err := g.Wait()

	return int(atomic.LoadInt64(&total)), err
}
