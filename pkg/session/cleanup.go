package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// unsupportedLogInterval throttles the warning for backends that cannot
// enumerate expired sessions.
const unsupportedLogInterval = time.Hour

// cleanupWorker periodically removes expired sessions until the service
// leaves the running state.
type cleanupWorker struct {
	svc      *Service
	interval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// only touched by the worker goroutine
	lastUnsupported time.Time
}

func newCleanupWorker(s *Service) *cleanupWorker {
	return &cleanupWorker{
		svc:      s,
		interval: s.cfg.CleanupInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *cleanupWorker) run() {
	defer close(w.done)

	log := w.svc.logger.With(logger.Component("session_cleanup"))
	log.Debug("cleanup worker started", logger.Duration(w.interval))

	for w.svc.State() == StateRunning {
		w.runOnce(log)

		timer := time.NewTimer(w.interval)
		select {
		case <-timer.C:
		case <-w.stop:
			timer.Stop()
			// Loop condition re-checks the state, so an interrupt alone never ends the worker.
			log.Debug("cleanup sleep interrupted")
		}
	}

	log.Debug("cleanup worker stopped")
}

func (w *cleanupWorker) runOnce(log *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("cleanup run panicked", slog.Any("panic", r))
		}
	}()

	ctx := w.svc.lifetime
	removed, err := w.svc.RemoveExpiredSessions(ctx)
	if len(removed) > 0 {
		w.svc.audit.InfoContext(ctx, "sessions deleted",
			logger.Sessions(removed),
			slog.Int("count", len(removed)))
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrServiceUnavailable):
		// shutdown raced the run
	case errors.Is(err, ErrCapabilityUnsupported):
		now := time.Now()
		if w.lastUnsupported.IsZero() || now.Sub(w.lastUnsupported) >= unsupportedLogInterval {
			w.lastUnsupported = now
			log.Warn("backend cannot list expired sessions, cleanup skipped", logger.Error(err))
		}
	default:
		log.Error("failed to remove expired sessions", logger.Error(err))
	}
}

func (w *cleanupWorker) signalStop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// wait blocks until the worker exits or timeout elapses.
func (w *cleanupWorker) wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}
