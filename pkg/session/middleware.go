package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// IDExtractor pulls a session id out of a request. An empty result means
// the request carries none.
type IDExtractor func(r *http.Request) string

// FromHeader reads the id from a request header, stripping an optional prefix.
func FromHeader(name, prefix string) IDExtractor {
	return func(r *http.Request) string {
		value := r.Header.Get(name)
		if prefix != "" {
			value = strings.TrimPrefix(value, prefix)
		}
		return strings.TrimSpace(value)
	}
}

// Middleware resolves the request's session through FindSession and stores
// it in the request context. Requests without a resolvable session pass
// through untouched; backend failures answer 503.
func (m *Manager) Middleware(extract IDExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := extract(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := m.FindSession(r.Context(), id)
			switch {
			case errors.Is(err, ErrInvalidID):
				next.ServeHTTP(w, r)
				return
			case err != nil:
				m.logger.ErrorContext(r.Context(), "failed to resolve session", logger.SessionID(id), logger.Error(err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			case sess == nil:
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession answers 401 unless a previous Middleware stored a session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
