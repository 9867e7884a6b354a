// Package api exposes a session Manager over HTTP for sessiond.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// SessionHeader carries the caller's session id for GET /session.
const SessionHeader = "X-Session-ID"

// Sessions is the part of session.Manager the handlers use.
type Sessions interface {
	CreateSession(ctx context.Context, id string) (*session.Session, error)
	FindSession(ctx context.Context, id string) (*session.Session, error)
	SessionEvent(ctx context.Context, sess *session.Session) error
	RemoveSession(ctx context.Context, sess *session.Session) error
	Middleware(extract session.IDExtractor) func(http.Handler) http.Handler
}

var _ Sessions = (*session.Manager)(nil)

// Option configures the router.
type Option func(*handlers)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *handlers) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithReadinessCheck adds a dependency probed by GET /readyz.
func WithReadinessCheck(name string, probe func(context.Context) error) Option {
	return func(h *handlers) {
		h.checks = append(h.checks, httpserver.Check{Name: name, Probe: probe})
	}
}

// WithReadinessTimeout bounds all readiness probes of one request.
func WithReadinessTimeout(d time.Duration) Option {
	return func(h *handlers) { h.readyTimeout = d }
}

type handlers struct {
	sessions     Sessions
	logger       *slog.Logger
	checks       []httpserver.Check
	readyTimeout time.Duration
}

// NewRouter builds the sessiond HTTP API.
func NewRouter(sessions Sessions, opts ...Option) http.Handler {
	h := &handlers{
		sessions:     sessions,
		logger:       slog.New(slog.DiscardHandler),
		readyTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("session_api"))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(h.logger, h.readyTimeout, h.checks...))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Delete("/", h.remove)
			r.Put("/attributes/{key}", h.setAttribute)
			r.Delete("/attributes/{key}", h.deleteAttribute)
		})
	})

	r.With(
		sessions.Middleware(session.FromHeader(SessionHeader, "")),
		session.RequireSession,
	).Get("/session", h.current)

	return r
}

type createRequest struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	if req.ID != "" {
		existing, err := h.sessions.FindSession(ctx, req.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if existing != nil {
			writeError(w, ErrConflict)
			return
		}
	}

	sess, err := h.sessions.CreateSession(ctx, req.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create session", logger.Error(err))
		writeError(w, err)
		return
	}

	if len(req.Attributes) > 0 {
		for k, v := range req.Attributes {
			sess.Set(k, v)
		}
		if err := h.sessions.SessionEvent(ctx, sess); err != nil {
			writeError(w, err)
			return
		}
	}

	w.Header().Set("Location", "/sessions/"+sess.ID().String())
	writeData(w, http.StatusCreated, "session_created", sess)
}

// get records an access, so a read keeps the session away from the reaper.
func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sess.Touch()
	if err := h.sessions.SessionEvent(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "session", sess)
}

func (h *handlers) current(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "session", session.MustFromContext(r.Context()))
}

func (h *handlers) setAttribute(w http.ResponseWriter, r *http.Request) {
	var value any
	if err := decodeJSON(r, &value, false); err != nil {
		writeError(w, err)
		return
	}

	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sess.Set(chi.URLParam(r, "key"), value)
	if err := h.sessions.SessionEvent(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "attribute_set", sess)
}

func (h *handlers) deleteAttribute(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sess.Delete(chi.URLParam(r, "key"))
	if err := h.sessions.SessionEvent(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "attribute_deleted", sess)
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.sessions.RemoveSession(r.Context(), sess); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to remove session", logger.SessionID(sess.ID().String()), logger.Error(err))
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves the {id} path parameter, writing the error response itself.
func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.FindSession(r.Context(), id)
	switch {
	case err != nil:
		if !errors.Is(err, session.ErrInvalidID) {
			h.logger.ErrorContext(r.Context(), "failed to find session", logger.SessionID(id), logger.Error(err))
		}
		writeError(w, err)
		return nil, false
	case sess == nil:
		writeError(w, ErrNotFound)
		return nil, false
	}
	return sess, true
}

func (h *handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.DebugContext(r.Context(), "request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
