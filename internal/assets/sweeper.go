package assets

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Sweeper removes spool files left behind by uploads that never finished,
// e.g. after a crash. Only files older than maxAge are touched so uploads in
// flight keep their spool.
type Sweeper struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper sweeps dir, or os.TempDir when dir is empty.
func NewSweeper(dir string, interval, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		dir:      dir,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger.With(slog.String("worker", "spool-sweeper")),
		now:      time.Now,
	}
}

// Start sweeps once right away and then every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Spool sweeper started",
		slog.String("dir", s.dir),
		slog.String("interval", s.interval.String()),
		slog.String("max_age", s.maxAge.String()))

	s.run()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Spool sweeper shutting down")
			return
		case <-ticker.C:
			s.run()
		}
	}
}

func (s *Sweeper) run() {
	startTime := time.Now()

	count, err := s.Sweep()
	if err != nil {
		s.logger.Error("Failed to sweep spool files",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
		return
	}

	if count > 0 {
		s.logger.Info("Removed stale spool files",
			slog.Int("files_removed", count),
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	}
}

// Sweep removes stale spool files and returns how many it removed.
func (s *Sweeper) Sweep() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, SpoolPattern))
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	var errs []error
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
