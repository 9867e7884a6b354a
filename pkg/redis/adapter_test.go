package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/sessiontest"
)

func testAddress(t *testing.T) (string, session.Address) {
	t.Helper()

	raw := os.Getenv("REDIS_ADDR")
	if raw == "" {
		t.Skip("REDIS_ADDR not set, skipping redis integration tests")
	}

	addr, err := session.ParseAddress(raw, redis.DefaultPort)
	require.NoError(t, err)
	return raw, addr
}

func TestAdapter_Conformance(t *testing.T) {
	raw, addr := testAddress(t)

	sessiontest.RunAdapterTests(t, raw, func(t *testing.T) session.Adapter {
		a := redis.NewAdapter(redis.Config{RetryAttempts: 1})
		require.NoError(t, a.Open(context.Background(), addr))
		t.Cleanup(func() { _ = a.Close(context.Background()) })
		return a
	})
}

func TestAdapter_Ping(t *testing.T) {
	_, addr := testAddress(t)
	ctx := context.Background()

	a := redis.NewAdapter(redis.Config{})
	require.NoError(t, a.Open(ctx, addr))
	assert.NoError(t, a.Ping(ctx))

	require.NoError(t, a.Close(ctx))
	require.NoError(t, a.Close(ctx))
	assert.ErrorIs(t, a.Ping(ctx), session.ErrBackendAccess)
}

func TestAdapter_NotOpen(t *testing.T) {
	a := redis.NewAdapter(redis.Config{})
	ctx := context.Background()

	assert.Equal(t, "redis", a.Name())
	assert.Equal(t, 6379, a.DefaultPort())

	_, err := a.Get(ctx, session.Namespace, "k")
	assert.ErrorIs(t, err, session.ErrBackendAccess)
	assert.ErrorIs(t, err, redis.ErrNotOpen)

	assert.ErrorIs(t, a.Put(ctx, session.Namespace, "k", []byte("v"), time.Now()), session.ErrBackendAccess)
	assert.ErrorIs(t, a.Delete(ctx, session.Namespace, "k"), session.ErrBackendAccess)

	_, err = a.ExpiredKeys(ctx, session.Namespace, time.Now())
	assert.ErrorIs(t, err, session.ErrBackendAccess)
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := redis.Connect(ctx, "127.0.0.1:1", redis.Config{RetryAttempts: 2, RetryInterval: 10 * time.Millisecond})
	assert.ErrorIs(t, err, redis.ErrRedisNotReady)
}
