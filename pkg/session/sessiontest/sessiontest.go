// Package sessiontest holds a conformance suite every session.Adapter must pass.
package sessiontest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// AdapterFactory returns an opened adapter. The factory registers its own cleanup.
type AdapterFactory func(t *testing.T) session.Adapter

// RunAdapterTests runs the complete Adapter test suite against the provided
// factory. address is what a Service would be configured with to reach the
// same store.
func RunAdapterTests(t *testing.T, address string, factory AdapterFactory) {
	t.Run("PutThenGet", func(t *testing.T) { testPutThenGet(t, factory) })
	t.Run("PutOverwrites", func(t *testing.T) { testPutOverwrites(t, factory) })
	t.Run("GetMissingReturnsNil", func(t *testing.T) { testGetMissing(t, factory) })
	t.Run("DeleteIsIdempotent", func(t *testing.T) { testDeleteIdempotent(t, factory) })
	t.Run("NamespacesAreIsolated", func(t *testing.T) { testNamespaceIsolation(t, factory) })
	t.Run("ExpiredKeysByLastAccess", func(t *testing.T) { testExpiredKeys(t, factory) })
	t.Run("ServiceRoundTrip", func(t *testing.T) { testServiceRoundTrip(t, address, factory) })
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// uniqueKey keeps runs against shared stores from colliding.
func uniqueKey(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func testPutThenGet(t *testing.T, factory AdapterFactory) {
	a := factory(t)
	ctx := testContext(t)
	key := uniqueKey("put")

	require.NoError(t, a.Put(ctx, session.Namespace, key, []byte(`{"a":1}`), time.Now()))

	got, err := a.Get(ctx, session.Namespace, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	t.Cleanup(func() { _ = a.Delete(context.Background(), session.Namespace, key) })
}

func testPutOverwrites(t *testing.T, factory AdapterFactory) {
	a := factory(t)
	ctx := testContext(t)
	key := uniqueKey("overwrite")
	t.Cleanup(func() { _ = a.Delete(context.Background(), session.Namespace, key) })

	require.NoError(t, a.Put(ctx, session.Namespace, key, []byte("first"), time.Now()))
	require.NoError(t, a.Put(ctx, session.Namespace, key, []byte("second"), time.Now()))

	got, err := a.Get(ctx, session.Namespace, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func testGetMissing(t *testing.T, factory AdapterFactory) {
	a := factory(t)
	ctx := testContext(t)

	got, err := a.Get(ctx, session.Namespace, uniqueKey("missing"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testDeleteIdempotent(t *testing.T, factory AdapterFactory) {
	a := factory(t)
	ctx := testContext(t)
	key := uniqueKey("delete")

	require.NoError(t, a.Put(ctx, session.Namespace, key, []byte("v"), time.Now()))
	require.NoError(t, a.Delete(ctx, session.Namespace, key))
	require.NoError(t, a.Delete(ctx, session.Namespace, key))

	got, err := a.Get(ctx, session.Namespace, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testNamespaceIsolation(t *testing.T, factory AdapterFactory) {
	a := factory(t)
	ctx := testContext(t)
	key := uniqueKey("isolated")
	other := "SESSIONS_ISOLATION"
	t.Cleanup(func() {
		_ = a.Delete(context.Background(), session.Namespace, key)
		_ = a.Delete(context.Background(), other, key)
	})

	require.NoError(t, a.Put(ctx, session.Namespace, key, []byte("main"), time.Now()))

	got, err := a.Get(ctx, other, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, a.Put(ctx, other, key, []byte("other"), time.Now()))
	got, err = a.Get(ctx, session.Namespace, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("main"), got)
}

func testExpiredKeys(t *testing.T, factory AdapterFactory) {
	a := factory(t)
	ctx := testContext(t)

	// A far-past cutoff keeps entries from other runs out of the result.
	base := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	stale := uniqueKey("stale")
	fresh := uniqueKey("fresh")
	t.Cleanup(func() {
		_ = a.Delete(context.Background(), session.Namespace, stale)
		_ = a.Delete(context.Background(), session.Namespace, fresh)
	})

	require.NoError(t, a.Put(ctx, session.Namespace, stale, []byte("s"), base.Add(-time.Hour)))
	require.NoError(t, a.Put(ctx, session.Namespace, fresh, []byte("f"), base.Add(time.Hour)))

	keys, err := a.ExpiredKeys(ctx, session.Namespace, base)
	if errors.Is(err, session.ErrCapabilityUnsupported) {
		t.Skipf("%s cannot scan by last access", a.Name())
	}
	require.NoError(t, err)

	assert.Contains(t, keys, stale)
	assert.NotContains(t, keys, fresh)

	require.NoError(t, a.Delete(ctx, session.Namespace, stale))
	keys, err = a.ExpiredKeys(ctx, session.Namespace, base)
	require.NoError(t, err)
	assert.NotContains(t, keys, stale)
}

func testServiceRoundTrip(t *testing.T, address string, factory AdapterFactory) {
	a := factory(t)
	ctx := testContext(t)

	svc := session.New(a, session.WithBackendAddress(address))
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	sess := session.NewSession(session.NewID("node1"))
	sess.Set("user", "alice")
	require.NoError(t, svc.PersistSession(ctx, sess))
	assert.False(t, sess.IsDirty())

	var shell session.Session
	found, err := svc.GetSession(ctx, &shell, sess.ID())
	require.NoError(t, err)
	require.NotNil(t, found)

	user, ok := shell.GetString("user")
	assert.True(t, ok)
	assert.Equal(t, "alice", user)

	require.NoError(t, svc.DeleteSession(ctx, sess))
	found, err = svc.GetSession(ctx, &shell, sess.ID())
	require.NoError(t, err)
	assert.Nil(t, found)
}
