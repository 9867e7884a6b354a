package session_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// countingBackend stores encoded sessions and counts fetches.
type countingBackend struct {
	mu      sync.Mutex
	stored  map[string][]byte
	fetches int
	failGet error
}

func newCountingBackend() *countingBackend {
	return &countingBackend{stored: make(map[string][]byte)}
}

func (b *countingBackend) PersistSession(_ context.Context, s session.PersistableSession) error {
	data, err := session.JSONCodec{}.Marshal(s)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stored[s.PersistenceKey()] = data
	s.SetDirty(false)
	return nil
}

func (b *countingBackend) GetSession(_ context.Context, shell session.PersistableSession, id session.ID) (session.PersistableSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.failGet != nil {
		return nil, b.failGet
	}
	data, ok := b.stored[id.Base]
	if !ok {
		return nil, nil
	}
	if err := (session.JSONCodec{}).Unmarshal(data, shell); err != nil {
		return nil, err
	}
	return shell, nil
}

func (b *countingBackend) DeleteSession(_ context.Context, s session.PersistableSession) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.stored, s.PersistenceKey())
	return nil
}

func (b *countingBackend) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

// seed stores a session as another node would have written it.
func (b *countingBackend) seed(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, b.PersistSession(context.Background(), session.NewSession(session.MustParseID(id))))
}

func TestManager_FindSession_Routing(t *testing.T) {
	ctx := context.Background()

	t.Run("same route is served locally only", func(t *testing.T) {
		backend := newCountingBackend()
		backend.seed(t, "mySession.host")
		m := session.NewManager(backend, session.StaticRoute("host"))

		sess, err := m.FindSession(ctx, "mySession.host")
		require.NoError(t, err)
		assert.Nil(t, sess)
		assert.Equal(t, 0, backend.fetchCount())
	})

	t.Run("different route fetches on every lookup", func(t *testing.T) {
		backend := newCountingBackend()
		backend.seed(t, "mySession.host2")
		m := session.NewManager(backend, session.StaticRoute("host"))

		sess, err := m.FindSession(ctx, "mySession.host2")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, "mySession.host2", sess.ID().String())
		assert.Equal(t, 1, backend.fetchCount())

		// Another node writes a newer copy.
		updated := session.NewSession(session.MustParseID("mySession.host2"))
		updated.Set("user", "bob")
		require.NoError(t, backend.PersistSession(ctx, updated))

		again, err := m.FindSession(ctx, "mySession.host2")
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, 2, backend.fetchCount())
		user, _ := again.Get("user")
		assert.Equal(t, "bob", user)
	})

	t.Run("missing route fetches on every lookup", func(t *testing.T) {
		backend := newCountingBackend()
		backend.seed(t, "mySession.host2")
		m := session.NewManager(backend, session.StaticRoute("host"))

		for i := 1; i <= 2; i++ {
			sess, err := m.FindSession(ctx, "mySession")
			require.NoError(t, err)
			require.NotNil(t, sess)
			assert.Equal(t, "mySession", sess.ID().String())
			assert.Equal(t, i, backend.fetchCount())
		}
	})

	t.Run("node without route fetches routeless ids", func(t *testing.T) {
		backend := newCountingBackend()
		backend.seed(t, "plain")
		m := session.NewManager(backend, session.StaticRoute(""))

		sess, err := m.FindSession(ctx, "plain")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, "plain", sess.ID().String())
		assert.Equal(t, 1, backend.fetchCount())
	})

	t.Run("node without route sees sessions it created after restart", func(t *testing.T) {
		backend := newCountingBackend()
		created, err := session.NewManager(backend, session.StaticRoute("")).CreateSession(ctx, "")
		require.NoError(t, err)
		assert.False(t, created.ID().HasRoute())

		restarted := session.NewManager(backend, session.StaticRoute(""))
		found, err := restarted.FindSession(ctx, created.ID().String())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID(), found.ID())
		assert.Equal(t, 1, backend.fetchCount())
	})

	t.Run("deleted remote session is dropped from cache", func(t *testing.T) {
		backend := newCountingBackend()
		backend.seed(t, "gone.host2")
		m := session.NewManager(backend, session.StaticRoute("host"))

		sess, err := m.FindSession(ctx, "gone.host2")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, 1, m.Len())

		require.NoError(t, backend.DeleteSession(ctx, sess))

		sess, err = m.FindSession(ctx, "gone.host2")
		require.NoError(t, err)
		assert.Nil(t, sess)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("absent remote session", func(t *testing.T) {
		backend := newCountingBackend()
		m := session.NewManager(backend, session.StaticRoute("host"))

		sess, err := m.FindSession(ctx, "unknown.host2")
		require.NoError(t, err)
		assert.Nil(t, sess)
		assert.Equal(t, 1, backend.fetchCount())
		assert.Equal(t, 0, m.Len())
	})

	t.Run("invalid id", func(t *testing.T) {
		backend := newCountingBackend()
		m := session.NewManager(backend, session.StaticRoute("host"))

		_, err := m.FindSession(ctx, "")
		assert.ErrorIs(t, err, session.ErrInvalidID)
		assert.Equal(t, 0, backend.fetchCount())
	})

	t.Run("backend failure is returned", func(t *testing.T) {
		backend := newCountingBackend()
		backend.failGet = session.BackendError(errors.New("boom"))
		m := session.NewManager(backend, session.StaticRoute("host"))

		_, err := m.FindSession(ctx, "abc.host2")
		assert.ErrorIs(t, err, session.ErrBackendAccess)
	})
}

func TestManager_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("generated id carries local route", func(t *testing.T) {
		backend := newCountingBackend()
		m := session.NewManager(backend, session.StaticRoute("node1"))

		sess, err := m.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "node1", sess.ID().Route)
		assert.NotEmpty(t, sess.ID().Base)
		assert.False(t, sess.IsDirty())

		found, err := m.FindSession(ctx, sess.ID().String())
		require.NoError(t, err)
		assert.Same(t, sess, found)
		assert.Equal(t, 0, backend.fetchCount())
	})

	t.Run("explicit id is honored", func(t *testing.T) {
		backend := newCountingBackend()
		m := session.NewManager(backend, session.StaticRoute("node1"))

		sess, err := m.CreateSession(ctx, "custom.node9")
		require.NoError(t, err)
		assert.Equal(t, "custom.node9", sess.ID().String())
		assert.Contains(t, backend.stored, "custom")
	})

	t.Run("invalid explicit id", func(t *testing.T) {
		m := session.NewManager(newCountingBackend(), session.StaticRoute("node1"))

		_, err := m.CreateSession(ctx, ".node1")
		assert.ErrorIs(t, err, session.ErrInvalidID)
	})
}

func TestManager_SessionEventAndRemove(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	m := session.NewManager(backend, session.StaticRoute("node1"))

	sess, err := m.CreateSession(ctx, "")
	require.NoError(t, err)

	sess.Set("user", "alice")
	require.NoError(t, m.SessionEvent(ctx, sess))
	assert.False(t, sess.IsDirty())
	assert.Contains(t, string(backend.stored[sess.PersistenceKey()]), "alice")

	require.NoError(t, m.RemoveSession(ctx, sess))
	assert.NotContains(t, backend.stored, sess.PersistenceKey())
	assert.Equal(t, 0, m.Len())

	assert.ErrorIs(t, m.SessionEvent(ctx, nil), session.ErrInvalidSession)
	assert.ErrorIs(t, m.RemoveSession(ctx, nil), session.ErrInvalidSession)
}

func TestManager_CacheCapacity(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	m := session.NewManager(backend, session.StaticRoute("host"), session.WithCacheCapacity(16))

	created := make([]*session.Session, 0, 200)
	for range 200 {
		sess, err := m.CreateSession(ctx, "")
		require.NoError(t, err)
		created = append(created, sess)
	}

	for i := range 100 {
		backend.seed(t, fmt.Sprintf("remote%d.host2", i))
		sess, err := m.FindSession(ctx, fmt.Sprintf("remote%d.host2", i))
		require.NoError(t, err)
		require.NotNil(t, sess)
	}
	assert.LessOrEqual(t, m.Len(), 200+16)
	assert.GreaterOrEqual(t, m.Len(), 200)

	// Owned sessions are never dropped for capacity.
	for _, sess := range created {
		found, err := m.FindSession(ctx, sess.ID().String())
		require.NoError(t, err)
		assert.Same(t, sess, found)
	}
	assert.Equal(t, 100, backend.fetchCount())
}

func TestManager_RemoveSession_DropsOwnedCopy(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	m := session.NewManager(backend, session.StaticRoute("host"))

	owned, err := m.CreateSession(ctx, "x.host")
	require.NoError(t, err)

	routeless, err := m.FindSession(ctx, "x")
	require.NoError(t, err)
	require.NotNil(t, routeless)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.RemoveSession(ctx, routeless))
	assert.NotContains(t, backend.stored, "x")

	found, err := m.FindSession(ctx, owned.ID().String())
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Equal(t, 0, m.Len())
}

func TestManager_MaxInactive(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	m := session.NewManager(backend, session.StaticRoute("node1"), session.WithMaxInactive(time.Millisecond))

	sess, err := m.CreateSession(ctx, "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	found, err := m.FindSession(ctx, sess.ID().String())
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Equal(t, 0, m.Len())
}

func TestManager_Middleware(t *testing.T) {
	ctx := context.Background()
	backend := newCountingBackend()
	m := session.NewManager(backend, session.StaticRoute("node1"))

	sess, err := m.CreateSession(ctx, "")
	require.NoError(t, err)

	handler := m.Middleware(session.FromHeader("Authorization", "Bearer "))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := session.FromContext(r.Context()); ok {
				w.Header().Set("X-Session-ID", s.ID().String())
			}
			w.WriteHeader(http.StatusOK)
		}))

	t.Run("adds session to context", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+sess.ID().String())
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, sess.ID().String(), w.Header().Get("X-Session-ID"))
	})

	t.Run("missing header passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Session-ID"))
	})

	t.Run("require session", func(t *testing.T) {
		protected := m.Middleware(session.FromHeader("Authorization", "Bearer "))(
			session.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})))

		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+sess.ID().String())
		w = httptest.NewRecorder()
		protected.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("backend failure answers 503", func(t *testing.T) {
		failing := newCountingBackend()
		failing.failGet = session.BackendError(errors.New("down"))
		fm := session.NewManager(failing, session.StaticRoute("node1"))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer abc.node2")
		w := httptest.NewRecorder()
		fm.Middleware(session.FromHeader("Authorization", "Bearer "))(http.NotFoundHandler()).ServeHTTP(w, r)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	_, ok := session.FromContext(ctx)
	assert.False(t, ok)
	assert.Panics(t, func() { session.MustFromContext(ctx) })

	sess := session.NewSession(session.NewID(""))
	ctx = session.WithSession(ctx, sess)
	assert.Same(t, sess, session.MustFromContext(ctx))
}
