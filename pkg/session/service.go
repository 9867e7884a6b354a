package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/async"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Service owns the lifecycle shared by every backend: configuration, the
// cleanup worker, shutdown coordination and the persist/fetch/delete entry
// points wrapping the adapter with uniform error translation.
type Service struct {
	adapter Adapter
	codec   Codec
	logger  *slog.Logger
	audit   *slog.Logger
	now     func() time.Time

	// mu serializes configuration changes and lifecycle transitions.
	mu    sync.Mutex
	cfg   Config
	addr  Address
	state atomic.Int32

	// lifetime is canceled when shutdown begins so in-flight I/O unwinds.
	lifetime context.Context
	cancel   context.CancelFunc
	worker   *cleanupWorker
}

// Compile-time interface check
var _ BackendService = (*Service)(nil)

// New creates a Service around adapter with the given options.
// It panics when adapter is nil.
func New(adapter Adapter, opts ...Option) *Service {
	if adapter == nil {
		panic("session: adapter is required")
	}

	s := &Service{
		adapter: adapter,
		codec:   JSONCodec{},
		cfg:     DefaultConfig(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.logger = s.logger.With(logger.Component("session_backend"), logger.Backend(adapter.Name()))
	if s.audit == nil {
		s.audit = s.logger
	}

	return s
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Config returns a copy of the configuration.
func (s *Service) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Address returns the parsed backend endpoint. It is zero before Start.
func (s *Service) Address() Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start validates the configuration, opens the backend and launches the
// cleanup worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state := s.State(); state != StateUninitialized {
		return errors.Join(ErrAlreadyStarted, fmt.Errorf("session backend is %s", state))
	}

	if err := s.cfg.Validate(); err != nil {
		return err
	}

	addr, err := ParseAddress(s.cfg.BackendAddress, s.adapter.DefaultPort())
	if err != nil {
		return err
	}

	openCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	if err := s.adapter.Open(openCtx, addr); err != nil {
		return asBackendError(err)
	}

	s.addr = addr
	s.lifetime, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.worker = newCleanupWorker(s)
	s.state.Store(int32(StateRunning))

	go s.worker.run()

	s.logger.InfoContext(ctx, "session backend started",
		slog.String("address", addr.String()),
		slog.Duration("expiry_threshold", s.cfg.ExpiryThreshold),
		slog.Duration("cleanup_interval", s.cfg.CleanupInterval))

	return nil
}

// Shutdown rejects further I/O, stops the cleanup worker and releases the
// backend within ShutdownTimeout. Timeouts are logged; Shutdown always
// leaves the service stopped and is safe to call repeatedly.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateUninitialized:
		s.state.Store(int32(StateStopped))
		return nil
	case StateShuttingDown, StateStopped:
		return nil
	}

	s.state.Store(int32(StateShuttingDown))
	s.cancel()
	s.worker.signalStop()

	timeout := s.cfg.ShutdownTimeout
	released := async.Async(context.WithoutCancel(ctx), s.adapter, func(ctx context.Context, a Adapter) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return struct{}{}, a.Close(ctx)
	})
	if _, err := released.AwaitWithTimeout(timeout); err != nil {
		s.logger.WarnContext(ctx, "problem releasing session backend", logger.Error(err))
	}

	if !s.worker.wait(timeout) {
		s.logger.WarnContext(ctx, "cleanup worker did not stop in time", logger.Duration(timeout))
	}

	s.state.Store(int32(StateStopped))
	s.logger.InfoContext(ctx, "session backend stopped")

	return nil
}

// PersistSession writes a dirty session and clears its dirty flag on success.
// Clean sessions are not written.
func (s *Service) PersistSession(ctx context.Context, sess PersistableSession) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if sess == nil || sess.PersistenceKey() == "" {
		return ErrInvalidSession
	}
	if !sess.IsDirty() {
		return nil
	}

	data, err := s.codec.Marshal(sess)
	if err != nil {
		return err
	}

	key := sess.PersistenceKey()
	if err := s.end(s.adapter.Put(ctx, Namespace, key, data, sess.LastAccessedAt())); err != nil {
		return err
	}

	sess.SetDirty(false)
	s.logger.DebugContext(ctx, "session persisted", logger.SessionID(key), slog.Int("bytes", len(data)))

	return nil
}

// GetSession decodes the stored copy of id into shell.
// It returns nil without error when nothing is stored.
func (s *Service) GetSession(ctx context.Context, shell PersistableSession, id ID) (PersistableSession, error) {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if shell == nil {
		return nil, ErrInvalidSession
	}
	if id.IsZero() {
		return nil, ErrInvalidID
	}

	data, err := s.adapter.Get(ctx, Namespace, id.Base)
	if err := s.end(err); err != nil {
		return nil, err
	}
	if data == nil {
		s.logger.DebugContext(ctx, "session not found", logger.SessionID(id.Base))
		return nil, nil
	}

	if err := s.codec.Unmarshal(data, shell); err != nil {
		return nil, err
	}
	shell.SetDirty(false)

	return shell, nil
}

// DeleteSession removes the stored copy. Deleting a missing session is not an error.
func (s *Service) DeleteSession(ctx context.Context, sess PersistableSession) error {
	if sess == nil {
		if _, _, err := s.begin(ctx); err != nil {
			return err
		}
		return ErrInvalidSession
	}
	return s.deleteKey(ctx, sess.PersistenceKey())
}

// GetExpiredSessionIDs lists base ids idle longer than the expiry threshold.
// It is empty when sessions never expire.
func (s *Service) GetExpiredSessionIDs(ctx context.Context) ([]string, error) {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if s.cfg.ExpiryThreshold == NeverExpire {
		return []string{}, nil
	}

	keys, err := s.adapter.ExpiredKeys(ctx, Namespace, s.now().Add(-s.cfg.ExpiryThreshold))
	if err := s.end(err); err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}

	return keys, nil
}

// RemoveExpiredSessions deletes every expired session and returns the ids
// actually removed. Failures of individual deletes are joined into the error
// while the remaining ids are still attempted.
func (s *Service) RemoveExpiredSessions(ctx context.Context) ([]string, error) {
	ids, err := s.GetExpiredSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(ids))
	var errs []error
	for _, id := range ids {
		if err := s.deleteKey(ctx, id); err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrServiceUnavailable) {
				break
			}
			continue
		}
		removed = append(removed, id)
	}

	return removed, errors.Join(errs...)
}

// Ping checks backend reachability when the adapter supports it.
func (s *Service) Ping(ctx context.Context) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	p, ok := s.adapter.(Pinger)
	if !ok {
		return s.end(nil)
	}
	return s.end(p.Ping(ctx))
}

// SetBackendAddress sets the host[:port] endpoint. Only allowed before Start.
func (s *Service) SetBackendAddress(address string) error {
	return s.configure(func(cfg *Config) { cfg.BackendAddress = address })
}

// SetExpiryThreshold sets the inactivity threshold. Only allowed before Start.
func (s *Service) SetExpiryThreshold(d time.Duration) error {
	return s.configure(func(cfg *Config) { cfg.ExpiryThreshold = d })
}

// SetCleanupInterval sets the reaper interval. Only allowed before Start.
func (s *Service) SetCleanupInterval(d time.Duration) error {
	return s.configure(func(cfg *Config) { cfg.CleanupInterval = d })
}

// SetAuditLogger replaces the session-management audit log. Only allowed before Start.
func (s *Service) SetAuditLogger(l *slog.Logger) error {
	if l == nil {
		return errors.Join(ErrConfiguration, errors.New("audit logger must not be nil"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateUninitialized {
		return errors.Join(ErrConfiguration, ErrConfigurationLocked)
	}
	s.audit = l
	return nil
}

func (s *Service) configure(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateUninitialized {
		return errors.Join(ErrConfiguration, ErrConfigurationLocked)
	}
	fn(&s.cfg)
	return nil
}

func (s *Service) deleteKey(ctx context.Context, key string) error {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if key == "" {
		return ErrInvalidSession
	}

	if err := s.end(s.adapter.Delete(ctx, Namespace, key)); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "session deleted", logger.SessionID(key))
	return nil
}

// begin rejects the call unless the service is running and derives a context
// bounded by OperationTimeout and the service lifetime.
func (s *Service) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.State() != StateRunning {
		return nil, nil, s.unavailable()
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	stop := context.AfterFunc(s.lifetime, cancel)

	return ctx, func() {
		stop()
		cancel()
	}, nil
}

// end reports ErrServiceUnavailable for any call whose I/O finished after
// shutdown began, even a successful one.
func (s *Service) end(err error) error {
	if s.State() != StateRunning {
		return errors.Join(s.unavailable(), err)
	}
	if err != nil {
		return asBackendError(err)
	}
	return nil
}

func (s *Service) unavailable() error {
	return errors.Join(ErrServiceUnavailable, fmt.Errorf("session backend is %s", s.State()))
}

// asBackendError keeps adapter errors that already carry the taxonomy and
// wraps anything else as ErrBackendAccess.
func asBackendError(err error) error {
	if errors.Is(err, ErrBackendAccess) || errors.Is(err, ErrCapabilityUnsupported) {
		return err
	}
	return BackendError(err)
}
