// Package scheduler runs the batch pass on a fixed interval in daemon mode.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron scheduler holding the single pass job.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// New creates a scheduler that runs task every interval, starting
// immediately. Singleton mode guarantees that passes never overlap, which
// the store's single-writer rule depends on.
func New(logger *slog.Logger, interval time.Duration, name string, task func()) (*Scheduler, error) {
	log := logger.With("component", "scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogger{logger: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule job %q: %w", name, err)
	}

	log.Info("Job scheduled", "name", name, "interval", interval)
	return &Scheduler{scheduler: s, logger: log}, nil
}

// Start begins executing the scheduled job. It does not block.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Shutdown stops the scheduler, waiting for a running pass to finish.
func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// gocronLogger adapts slog to the gocron.Logger interface.
type gocronLogger struct {
	logger *slog.Logger
}

func (l *gocronLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *gocronLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *gocronLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *gocronLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
