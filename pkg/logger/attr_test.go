package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestSessionAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{"session id", logger.SessionID("abc.node1"), "session_id", "abc.node1"},
		{"sessions", logger.Sessions([]string{"a", "b", "c"}), "sessions", "a, b, c"},
		{"no sessions", logger.Sessions(nil), "sessions", ""},
		{"route", logger.Route("node1"), "route", "node1"},
		{"backend", logger.Backend("redis"), "backend", "redis"},
		{"address", logger.Address("localhost:6379"), "address", "localhost:6379"},
		{"component", logger.Component("session_cleanup"), "component", "session_cleanup"},
		{"event", logger.Event("session_event"), "event", "session_event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	attr := logger.RequestID("abc")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "abc", attr.Value.Any())
	assert.True(t, logger.RequestID(nil).Equal(slog.Attr{}))
}

func TestNumericAttrs(t *testing.T) {
	assert.Equal(t, int64(3), logger.RetryCount(3).Value.Int64())
	assert.Equal(t, time.Second, logger.Duration(time.Second).Value.Any())
}
