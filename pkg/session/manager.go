package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cache"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// RouteProvider reports the route suffix of the local node.
type RouteProvider interface {
	LocalRoute() string
}

// StaticRoute is a RouteProvider with a fixed route.
type StaticRoute string

func (r StaticRoute) LocalRoute() string { return string(r) }

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCacheCapacity bounds the cache of sessions fetched for ids that are not
// routed to this node. Sessions owned by this node are never evicted for
// capacity. Zero keeps it unbounded.
func WithCacheCapacity(n int) ManagerOption {
	return func(m *Manager) {
		m.capacity = n
	}
}

// WithMaxInactive makes FindSession treat sessions idle longer than d as missing.
func WithMaxInactive(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.maxInactive = d
	}
}

// WithManagerLogger sets the manager logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager keeps the sessions this node owns in a local cache and resolves
// every other id through the shared backend.
type Manager struct {
	backend     SessionBackend
	routes      RouteProvider
	owned       *cache.Sharded[string, *Session]
	fetched     *cache.Sharded[string, *Session]
	capacity    int
	maxInactive time.Duration
	logger      *slog.Logger
}

// NewManager creates a Manager over backend. It panics when backend or
// routes is nil.
func NewManager(backend SessionBackend, routes RouteProvider, opts ...ManagerOption) *Manager {
	if backend == nil {
		panic("session: backend is required")
	}
	if routes == nil {
		panic("session: route provider is required")
	}

	m := &Manager{
		backend:     backend,
		routes:      routes,
		maxInactive: NeverExpire,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.owned = cache.NewSharded[string, *Session](cache.DefaultShards, 0)
	m.fetched = cache.NewSharded[string, *Session](cache.DefaultShards, m.capacity)
	m.logger = m.logger.With(logger.Component("session_manager"), logger.Route(routes.LocalRoute()))
	m.fetched.SetEvictCallback(func(key string, _ *Session, reason cache.EvictReason) {
		if reason == cache.ReasonCapacity {
			m.logger.Debug("session dropped from full cache", logger.SessionID(key))
		}
	})

	return m
}

// CreateSession creates and persists a new session. An empty id generates
// one routed to the local node; a non-empty id is used as given.
func (m *Manager) CreateSession(ctx context.Context, id string) (*Session, error) {
	sid := NewID(m.routes.LocalRoute())
	if id != "" {
		parsed, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		sid = parsed
	}

	sess := NewSession(sid)
	if err := m.backend.PersistSession(ctx, sess); err != nil {
		return nil, err
	}

	m.cacheFor(sid).Put(sid.String(), sess)
	m.logger.DebugContext(ctx, "session created", logger.SessionID(sid.String()))

	return sess, nil
}

// FindSession returns the session for id or nil when it does not exist.
//
// An id routed to this node is served from the local cache only. Any other id,
// including one without a route, may be stale: every lookup fetches it from
// the backend once and refreshes the cached copy under the full id.
func (m *Manager) FindSession(ctx context.Context, id string) (*Session, error) {
	sid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	key := sid.String()
	if m.isLocal(sid) {
		sess, ok := m.owned.Get(key)
		if !ok {
			return nil, nil
		}
		return m.live(ctx, m.owned, key, sess), nil
	}

	found, err := m.backend.GetSession(ctx, newShell(), sid)
	if err != nil {
		return nil, err
	}
	if found == nil {
		m.fetched.Remove(key)
		return nil, nil
	}

	sess, ok := found.(*Session)
	if !ok {
		return nil, errors.Join(ErrInvalidSession, errors.New("backend returned a foreign session type"))
	}
	// The stored copy may carry another node's route.
	sess.setID(sid)

	m.fetched.Put(key, sess)
	m.logger.DebugContext(ctx, "session loaded from backend", logger.SessionID(key))

	return m.live(ctx, m.fetched, key, sess), nil
}

// SessionEvent persists a session after any mutation, access or
// invalidation-related change.
func (m *Manager) SessionEvent(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrInvalidSession
	}
	sess.SetDirty(true)
	if err := m.backend.PersistSession(ctx, sess); err != nil {
		return err
	}
	m.logger.DebugContext(ctx, "session changed", logger.Event("session_event"), logger.SessionID(sess.ID().String()))
	return nil
}

// RemoveSession deletes a session from the backend and the local cache.
// The copy this node owns for the same base is dropped too. Copies fetched
// under other routes stay cached but are never served without a refetch.
func (m *Manager) RemoveSession(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrInvalidSession
	}
	if err := m.backend.DeleteSession(ctx, sess); err != nil {
		return err
	}
	sid := sess.ID()
	m.Evict(sid.String())
	if local := m.routes.LocalRoute(); local != "" {
		m.owned.Remove(sid.WithRoute(local).String())
	}
	return nil
}

// Evict drops a session from the local cache without touching the backend.
func (m *Manager) Evict(id string) {
	m.owned.Remove(id)
	m.fetched.Remove(id)
}

// Len reports how many sessions are cached locally.
func (m *Manager) Len() int {
	return m.owned.Len() + m.fetched.Len()
}

// isLocal reports whether sid is routed to this node. An id without a route
// never is, even on a node without one.
func (m *Manager) isLocal(sid ID) bool {
	return sid.HasRoute() && sid.Route == m.routes.LocalRoute()
}

func (m *Manager) cacheFor(sid ID) *cache.Sharded[string, *Session] {
	if m.isLocal(sid) {
		return m.owned
	}
	return m.fetched
}

func (m *Manager) live(ctx context.Context, c *cache.Sharded[string, *Session], key string, sess *Session) *Session {
	if !sess.IsExpired(m.maxInactive) {
		return sess
	}
	c.Remove(key)
	m.logger.DebugContext(ctx, "expired session evicted", logger.SessionID(key))
	return nil
}
