package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/sessiontest"
)

func TestMemoryAdapter_Conformance(t *testing.T) {
	sessiontest.RunAdapterTests(t, "localhost", func(t *testing.T) session.Adapter {
		a := session.NewMemoryAdapter()
		require.NoError(t, a.Open(context.Background(), session.Address{}))
		t.Cleanup(func() { _ = a.Close(context.Background()) })
		return a
	})
}

func TestMemoryAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("identity", func(t *testing.T) {
		a := session.NewMemoryAdapter()
		assert.Equal(t, "memory", a.Name())
		assert.Equal(t, 0, a.DefaultPort())
	})

	t.Run("closed adapter rejects calls", func(t *testing.T) {
		a := session.NewMemoryAdapter()

		err := a.Put(ctx, session.Namespace, "k", []byte("v"), time.Now())
		assert.ErrorIs(t, err, session.ErrBackendAccess)
		assert.ErrorIs(t, err, session.ErrMemoryAdapterClosed)

		_, err = a.Get(ctx, session.Namespace, "k")
		assert.ErrorIs(t, err, session.ErrBackendAccess)

		assert.ErrorIs(t, a.Delete(ctx, session.Namespace, "k"), session.ErrBackendAccess)

		_, err = a.ExpiredKeys(ctx, session.Namespace, time.Now())
		assert.ErrorIs(t, err, session.ErrBackendAccess)

		assert.ErrorIs(t, a.Ping(ctx), session.ErrBackendAccess)
	})

	t.Run("data survives reopen", func(t *testing.T) {
		a := session.NewMemoryAdapter()
		require.NoError(t, a.Open(ctx, session.Address{}))
		require.NoError(t, a.Put(ctx, session.Namespace, "k", []byte("v"), time.Now()))
		require.NoError(t, a.Close(ctx))

		require.NoError(t, a.Open(ctx, session.Address{}))
		got, err := a.Get(ctx, session.Namespace, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
		assert.Equal(t, 1, a.Len(session.Namespace))
	})

	t.Run("stored value is isolated from caller", func(t *testing.T) {
		a := session.NewMemoryAdapter()
		require.NoError(t, a.Open(ctx, session.Address{}))

		value := []byte("original")
		require.NoError(t, a.Put(ctx, session.Namespace, "k", value, time.Now()))
		value[0] = 'X'

		got, err := a.Get(ctx, session.Namespace, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), got)
	})

	t.Run("canceled context", func(t *testing.T) {
		a := session.NewMemoryAdapter()
		require.NoError(t, a.Open(ctx, session.Address{}))

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := a.Get(canceled, session.Namespace, "k")
		assert.ErrorIs(t, err, session.ErrBackendAccess)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
