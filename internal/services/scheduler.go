package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vvka-141/oews/pkg/oews"
)

// Runner is one scheduled import run.
type Runner func(ctx context.Context) (*oews.RunReport, error)

// Scheduler repeats an import on a fixed interval. The first run starts
// immediately and runs never overlap.
type Scheduler struct {
	interval time.Duration
	run      Runner
	logger   oews.Logger
	onReport func(*oews.RunReport, error)
}

// NewScheduler creates a Scheduler. onReport, if non-nil, receives every run's result.
func NewScheduler(interval time.Duration, run Runner, logger oews.Logger, onReport func(*oews.RunReport, error)) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: schedule interval must be positive, got %v", oews.ErrInvalidConfig, interval)
	}
	if run == nil {
		panic("run cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Scheduler{interval: interval, run: run, logger: logger, onReport: onReport}, nil
}

// Start runs the import every interval until ctx is cancelled. A run that
// ends in a configuration error stops the schedule, since retrying cannot fix it.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fatal := make(chan error, 1)
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	s.logger.Info("Scheduling import every %v", s.interval)
	_, err := scheduler.Every(s.interval).Do(func() {
		if ctx.Err() != nil {
			return
		}
		s.logger.Verbose("Scheduled import starting")
		report, err := s.run(ctx)
		if s.onReport != nil {
			s.onReport(report, err)
		}
		switch {
		case errors.Is(err, oews.ErrInvalidConfig):
			select {
			case fatal <- err:
			default:
			}
			cancel()
		case err != nil && ctx.Err() == nil:
			s.logger.Error("Scheduled import failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule import: %w", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()
	s.logger.Info("Import schedule stopped")

	select {
	case err := <-fatal:
		return err
	default:
		return nil
	}
}
