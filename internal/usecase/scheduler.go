package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"SalesScanner/internal/ports"
)

// RunFunc performs one scheduled run.
type RunFunc func(ctx context.Context, trigger time.Time) error

// Scheduler wires the cron driver with a pipeline run.
type Scheduler struct {
	driver ports.Scheduler
	run    RunFunc
	logger *zap.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, run RunFunc, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{driver: driver, run: run, logger: logger}
}

// Start registers the run with the driver. A failed run is logged and the
// schedule keeps going.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.run == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if ctx.Err() != nil {
			return
		}
		if err := s.run(ctx, trigger); err != nil {
			s.logger.Error("scheduled run failed",
				zap.Time("trigger", trigger),
				zap.Int("exit_code", ExitCode(err)),
				zap.Error(err),
			)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
