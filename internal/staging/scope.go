package staging

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"captioner/internal/logging"
)

// Scope owns the temporary files of one request. Tracked paths are held
// against the stale sweeper until Release, which removes every tracked path
// exactly once; removal failures are logged and never returned so they cannot
// mask the request's own outcome.
type Scope struct {
	logger *slog.Logger

	mu       sync.Mutex
	paths    []string
	holds    []func()
	released bool
	done     chan struct{}
}

// NewScope constructs an empty scope.
func NewScope(logger *slog.Logger) *Scope {
	return &Scope{
		logger: logging.NewComponentLogger(logger, "staging"),
		done:   make(chan struct{}),
	}
}

// Track registers paths for removal. Blank paths are ignored. Paths tracked
// after Release are removed immediately.
func (s *Scope) Track(paths ...string) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		s.remove(paths)
		return
	}
	var added []string
	for _, p := range paths {
		if p != "" {
			added = append(added, p)
		}
	}
	if len(added) > 0 {
		s.paths = append(s.paths, added...)
		s.holds = append(s.holds, Hold(added...))
	}
	s.mu.Unlock()
}

// Paths returns the currently tracked paths.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Release removes all tracked paths. It is idempotent.
func (s *Scope) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	paths, holds := s.paths, s.holds
	s.paths, s.holds = nil, nil
	s.mu.Unlock()

	s.remove(paths)
	for _, release := range holds {
		release()
	}
	close(s.done)
}

// ReleaseAfter schedules Release after delay. A non-positive delay releases
// synchronously.
func (s *Scope) ReleaseAfter(delay time.Duration) {
	if delay <= 0 {
		s.Release()
		return
	}
	time.AfterFunc(delay, s.Release)
}

// Done is closed once Release has finished removing files.
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

func (s *Scope) remove(paths []string) {
	for _, p := range paths {
		err := os.RemoveAll(p)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		logging.WarnWithContext(s.logger, "failed to remove staged file", "staging_cleanup_failed",
			logging.String("path", p),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed until the sweeper runs"),
		)
	}
}
