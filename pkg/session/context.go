package session

import "context"

type ctxKey struct{}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored by WithSession. A stored nil
// session reports false.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess, sess != nil
}

// MustFromContext is like FromContext but panics when no session is stored.
// Use it behind RequireSession.
func MustFromContext(ctx context.Context) *Session {
	sess, ok := FromContext(ctx)
	if !ok {
		panic("session: no session in context")
	}
	return sess
}
