package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"captioner/internal/logging"
)

// Sweeper periodically removes stale staged entries. Several processes may
// share one staging directory; a file lock ensures only one sweeps at a time.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	lock     *flock.Flock
	logger   *slog.Logger
}

// NewSweeper constructs a sweeper for dir.
func NewSweeper(dir string, interval, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		lock:     flock.New(filepath.Join(dir, lockFileName)),
		logger:   logging.NewComponentLogger(logger, "sweeper"),
	}
}

// SweepOnce performs one cleanup pass. Entries held by this process have
// their modification time refreshed first, so sweeps elsewhere skip them too.
// It reports ok=false without removing anything when another process holds
// the sweep lock.
func (s *Sweeper) SweepOnce() (CleanResult, bool, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return CleanResult{}, false, fmt.Errorf("ensure staging dir: %w", err)
	}
	if touched := refreshHeld(s.dir); len(touched) > 0 {
		s.logger.Debug("refreshed in-flight staged entries", logging.Int("count", len(touched)))
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return CleanResult{}, false, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		s.logger.Debug("sweep skipped; lock held elsewhere", logging.String("lock", s.lock.Path()))
		return CleanResult{}, false, nil
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release sweep lock", logging.Error(err))
		}
	}()
	return CleanStale(s.dir, s.maxAge, s.logger), true, nil
}

// Run sweeps immediately and then every interval until ctx is done. A
// non-positive interval or max age disables the sweeper.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 || s.maxAge <= 0 {
		s.logger.Info("staging sweeper disabled")
		return
	}
	s.logger.Info("staging sweeper started",
		logging.String("dir", s.dir),
		logging.Duration("interval", s.interval),
		logging.Duration("max_age", s.maxAge),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.sweep()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep() {
	result, ran, err := s.SweepOnce()
	if err != nil {
		logging.WarnWithContext(s.logger, "staging sweep failed", "staging_sweep_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check staging_dir exists and is writable"),
			logging.String(logging.FieldImpact, "stale uploads are not reclaimed"),
		)
		return
	}
	if ran && (len(result.Removed) > 0 || len(result.Errors) > 0) {
		s.logger.Info("staging sweep complete",
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Errors)),
		)
	}
}
