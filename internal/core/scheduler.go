package core

// scheduler.go runs automatic imports from a fixed source.
//
// An initial run after a startup delay is followed by an optional fixed
// interval. Failures are logged and never stop the application or the
// schedule.

import (
	"context"
	"time"
)

// SyncConfig controls automatic imports.
type SyncConfig struct {
	StartupDelay    time.Duration // Delay before the first run (0 = immediately)
	Interval        time.Duration // Time between runs (0 = run once)
	ReplaceExisting bool          // Replace public feeds on every run
}

// StartSyncScheduler imports src after StartupDelay and then every Interval
// until ctx is cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSyncScheduler(ctx context.Context, src Source, cfg SyncConfig) {
	log := s.logger.With("source", src.Describe())
	log.Info("sync scheduler started",
		"startup_delay", cfg.StartupDelay,
		"interval", cfg.Interval,
		"replace", cfg.ReplaceExisting,
	)

	if cfg.StartupDelay > 0 {
		timer := time.NewTimer(cfg.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("sync scheduler stopped")
			return
		case <-timer.C:
		}
	}

	s.runSyncJob(ctx, src, cfg)

	if cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sync scheduler stopped")
			return
		case <-ticker.C:
			s.runSyncJob(ctx, src, cfg)
		}
	}
}

// runSyncJob performs one import and logs its outcome.
func (s *Service) runSyncJob(ctx context.Context, src Source, cfg SyncConfig) {
	start := time.Now()

	summary, err := s.Import(ctx, src, ImportOptions{ReplaceExisting: cfg.ReplaceExisting})
	if err != nil {
		s.logger.Error("sync failed",
			"source", src.Describe(),
			"stage", StageOf(err),
			"code", MapError(err).Code,
			"error", err,
		)
		return
	}

	s.logger.Info("sync completed",
		"source", src.Describe(),
		"imported", summary.Imported,
		"errors", summary.Errors,
		"total_rows", summary.TotalRows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
