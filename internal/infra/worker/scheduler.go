// Package worker runs the service's periodic maintenance jobs, such as
// sweeping expired session contexts and publishing SLO gauges, on cron
// schedules.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one unit of periodic work. ctx is canceled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron schedules and records their outcome.
// A run is skipped when the previous run of the same job is still going.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. A nil loc uses UTC.
func NewScheduler(logger *slog.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name with a standard cron spec or descriptor
// such as "@every 10m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.logger.Info("job scheduled", slog.String("job", name), slog.String("schedule", spec))
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling, cancels running jobs and waits for them until ctx
// is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out waiting for running jobs")
	}
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		duration := time.Since(start)
		recordJobRun(name, err == nil, duration.Seconds())
		if err != nil {
			s.logger.Error("job failed",
				slog.String("job", name),
				slog.Duration("duration", duration),
				slog.Any("error", err))
			return
		}
		s.logger.Debug("job completed",
			slog.String("job", name),
			slog.Duration("duration", duration))
	}()
	err = job(s.ctx)
}
