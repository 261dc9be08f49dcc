// Package maintenance runs the recurring housekeeping jobs of the delivery
// engine, currently the retention pruner for processed delivery requests.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/herald-sh/herald/internal/storage"
)

// Config holds the maintenance scheduler configuration.
type Config struct {
	Requests storage.RequestStore
	Logger   *slog.Logger
	// Retention is how long processed requests are kept.
	Retention time.Duration
	// Interval is how often the pruner runs. Zero means hourly.
	Interval time.Duration
}

// Scheduler manages the recurring maintenance jobs using gocron.
type Scheduler struct {
	cron gocron.Scheduler
	cfg  Config
}

// New creates a new maintenance Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", cfg.Retention)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Scheduler{cron: cron, cfg: cfg}, nil
}

// Start schedules the retention pruner and starts the scheduler.
func (s *Scheduler) Start() error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.pruneOnce),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling retention pruner: %w", err)
	}

	s.cron.Start()
	s.cfg.Logger.Info("maintenance scheduler started",
		"retention", s.cfg.Retention.String(), "interval", s.cfg.Interval.String())
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (s *Scheduler) Stop() error {
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutting down maintenance scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) pruneOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-s.cfg.Retention)
	n, err := s.cfg.Requests.PruneProcessedBefore(ctx, cutoff)
	if err != nil {
		s.cfg.Logger.Error("retention prune failed", "error", err)
		return
	}
	if n > 0 {
		s.cfg.Logger.Info("pruned processed delivery requests",
			"removed", n, "cutoff", cutoff.Format(time.RFC3339))
	}
}
