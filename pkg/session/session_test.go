package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestNewSession(t *testing.T) {
	id := session.MustParseID("abc.node1")
	sess := session.NewSession(id)

	assert.Equal(t, id, sess.ID())
	assert.Equal(t, "abc", sess.PersistenceKey())
	assert.True(t, sess.IsDirty(), "new sessions must be written on first persist")
	assert.WithinDuration(t, time.Now(), sess.CreatedAt(), time.Second)
	assert.WithinDuration(t, time.Now(), sess.LastAccessedAt(), time.Second)
	assert.Empty(t, sess.Attributes())
}

func TestSession_Attributes(t *testing.T) {
	t.Run("set marks dirty", func(t *testing.T) {
		sess := session.NewSession(session.NewID(""))
		sess.SetDirty(false)

		sess.Set("user", "alice")

		assert.True(t, sess.IsDirty())
		val, ok := sess.GetString("user")
		assert.True(t, ok)
		assert.Equal(t, "alice", val)
	})

	t.Run("typed getters", func(t *testing.T) {
		sess := session.NewSession(session.NewID(""))
		sess.Set("count", 3)
		sess.Set("ratio", float64(7))
		sess.Set("admin", true)

		n, ok := sess.GetInt("count")
		assert.True(t, ok)
		assert.Equal(t, 3, n)

		n, ok = sess.GetInt("ratio")
		assert.True(t, ok)
		assert.Equal(t, 7, n)

		b, ok := sess.GetBool("admin")
		assert.True(t, ok)
		assert.True(t, b)

		_, ok = sess.GetString("count")
		assert.False(t, ok)

		_, ok = sess.GetInt("missing")
		assert.False(t, ok)
	})

	t.Run("delete missing key keeps clean", func(t *testing.T) {
		sess := session.NewSession(session.NewID(""))
		sess.SetDirty(false)

		sess.Delete("missing")
		assert.False(t, sess.IsDirty())

		sess.Set("a", 1)
		sess.SetDirty(false)
		sess.Delete("a")
		assert.True(t, sess.IsDirty())
		_, ok := sess.Get("a")
		assert.False(t, ok)
	})

	t.Run("clear", func(t *testing.T) {
		sess := session.NewSession(session.NewID(""))
		sess.Set("a", 1)
		sess.SetDirty(false)

		sess.Clear()

		assert.True(t, sess.IsDirty())
		assert.Empty(t, sess.Attributes())
	})

	t.Run("attributes returns a copy", func(t *testing.T) {
		sess := session.NewSession(session.NewID(""))
		sess.Set("a", 1)

		attrs := sess.Attributes()
		attrs["a"] = 2

		val, _ := sess.GetInt("a")
		assert.Equal(t, 1, val)
	})
}

func TestSession_Touch(t *testing.T) {
	sess := session.NewSession(session.NewID(""))
	before := sess.LastAccessedAt()
	sess.SetDirty(false)

	time.Sleep(2 * time.Millisecond)
	sess.Touch()

	assert.True(t, sess.IsDirty())
	assert.True(t, sess.LastAccessedAt().After(before))
}

func TestSession_IsExpired(t *testing.T) {
	sess := session.NewSession(session.NewID(""))

	assert.False(t, sess.IsExpired(session.NeverExpire))
	assert.False(t, sess.IsExpired(0))
	assert.False(t, sess.IsExpired(time.Hour))

	time.Sleep(5 * time.Millisecond)
	assert.True(t, sess.IsExpired(time.Millisecond))

	var nilSession *session.Session
	assert.False(t, nilSession.IsExpired(time.Millisecond))
}

func TestSession_JSON(t *testing.T) {
	sess := session.NewSession(session.MustParseID("abc.node1"))
	sess.Set("user", "alice")
	sess.Set("visits", 2)

	data, err := json.Marshal(sess)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dirty")

	var decoded session.Session
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, sess.ID(), decoded.ID())
	assert.False(t, decoded.IsDirty())
	assert.WithinDuration(t, sess.CreatedAt(), decoded.CreatedAt(), time.Millisecond)
	assert.WithinDuration(t, sess.LastAccessedAt(), decoded.LastAccessedAt(), time.Millisecond)

	user, _ := decoded.GetString("user")
	assert.Equal(t, "alice", user)
	visits, _ := decoded.GetInt("visits")
	assert.Equal(t, 2, visits)

	t.Run("rejects invalid id", func(t *testing.T) {
		var broken session.Session
		err := json.Unmarshal([]byte(`{"id":".route"}`), &broken)
		assert.ErrorIs(t, err, session.ErrInvalidID)
	})
}

func TestJSONCodec(t *testing.T) {
	codec := session.JSONCodec{}
	sess := session.NewSession(session.NewID("node1"))
	sess.Set("k", "v")

	data, err := codec.Marshal(sess)
	require.NoError(t, err)

	var into session.Session
	require.NoError(t, codec.Unmarshal(data, &into))
	assert.Equal(t, sess.ID(), into.ID())

	err = codec.Unmarshal([]byte("{not json"), &into)
	assert.ErrorIs(t, err, session.ErrSerialization)

	unencodable := session.NewSession(session.NewID(""))
	unencodable.Set("ch", make(chan int))
	_, err = codec.Marshal(unencodable)
	assert.ErrorIs(t, err, session.ErrSerialization)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", session.StateUninitialized.String())
	assert.Equal(t, "running", session.StateRunning.String())
	assert.Equal(t, "shutting_down", session.StateShuttingDown.String())
	assert.Equal(t, "stopped", session.StateStopped.String())
}
