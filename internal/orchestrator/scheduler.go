package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/topic-channel/internal/domain"
)

// Runner executes a single run.
type Runner interface {
	Run(ctx context.Context) (*domain.Run, error)
}

// Scheduler starts runs back to back, at most one per interval. Each run is
// bounded by its own timeout; a timed-out run does not stop the schedule.
type Scheduler struct {
	runner   Runner
	count    int
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler returns a Scheduler that performs count runs, or runs until
// its context ends when count is 0.
func NewScheduler(runner Runner, count int, interval, timeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{runner: runner, count: count, interval: interval, timeout: timeout, logger: logger}
}

// Loop runs the schedule. It returns the number of runs started and the
// first failure. Cancelled runs are not failures; a signal on ctx ends the
// schedule after the current run is torn down.
func (s *Scheduler) Loop(ctx context.Context) (int, error) {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	s.logger.Info("scheduler started",
		zap.Int("count", s.count),
		zap.Duration("interval", s.interval),
		zap.Duration("timeout", s.timeout),
	)

	started := 0
	for s.count == 0 || started < s.count {
		if started > 0 && tick != nil {
			select {
			case <-ctx.Done():
				s.logger.Info("scheduler stopping", zap.Int("runs", started))
				return started, nil
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			break
		}

		started++
		if err := s.once(ctx); err != nil {
			return started, err
		}
	}

	s.logger.Info("scheduler stopping", zap.Int("runs", started))
	return started, nil
}

func (s *Scheduler) once(ctx context.Context) error {
	runCtx, cancel := context.WithTimeoutCause(ctx, s.timeout, domain.ErrRunTimeout)
	defer cancel()

	run, err := s.runner.Run(runCtx)
	switch {
	case err == nil:
		s.logger.Info("run completed",
			zap.String("run_id", run.ID),
			zap.Int("produced", run.Produced),
			zap.Int("consumed", run.Consumed),
		)
		return nil
	case errors.Is(err, domain.ErrRunCancelled):
		fields := []zap.Field{zap.Bool("timed_out", errors.Is(err, domain.ErrRunTimeout))}
		if run != nil {
			fields = append(fields, zap.String("run_id", run.ID))
		}
		s.logger.Info("run cancelled", fields...)
		return nil
	default:
		return fmt.Errorf("run failed: %w", err)
	}
}
