package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

type config struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	onStart         []func(string)
	onShutdown      []func(context.Context) error
}

func defaultConfig() *config {
	return &config{
		addr:            ":8080",
		readTimeout:     10 * time.Second,
		writeTimeout:    10 * time.Second,
		idleTimeout:     120 * time.Second,
		shutdownTimeout: 10 * time.Second,
		logger:          slog.New(slog.DiscardHandler),
	}
}

// Server wraps http.Server with signal-driven graceful shutdown.
type Server struct {
	cfg *config

	mu   sync.Mutex
	srv  *http.Server
	addr net.Addr

	once        sync.Once
	shutdownErr error
}

// New returns a configured Server.
func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.logger = cfg.logger.With(logger.Component("http_server"))
	return &Server{cfg: cfg}
}

// Addr returns the bound address, or nil before Run has opened the listener.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens and serves handler until ctx is canceled, SIGINT/SIGTERM
// arrives or Shutdown is called. Bind failures return ErrStart immediately.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}

	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
		ErrorLog:     slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelWarn),
	}
	s.srv = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.cfg.logger.InfoContext(ctx, "http server listening", logger.Address(ln.Addr().String()))
	for _, h := range s.cfg.onStart {
		h(ln.Addr().String())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-ctx.Done():
		s.cfg.logger.InfoContext(ctx, "context canceled, shutting down")
	case sig := <-stop:
		s.cfg.logger.InfoContext(ctx, "signal received, shutting down", slog.String("signal", sig.String()))
	case runErr = <-errCh:
	}

	shutdownErr := s.Shutdown(context.WithoutCancel(ctx))
	if runErr == nil {
		runErr = <-errCh
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr, shutdownErr)
	}
	return shutdownErr
}

// Shutdown drains connections and then runs the shutdown hooks, all within
// the shutdown timeout. Repeated calls return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()

		var errs []error
		if srv != nil {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs = append(errs, err)
			}
		}
		for _, h := range s.cfg.onShutdown {
			if err := h(ctx); err != nil {
				errs = append(errs, err)
			}
		}

		if len(errs) > 0 {
			s.shutdownErr = errors.Join(append([]error{ErrShutdown}, errs...)...)
			s.cfg.logger.ErrorContext(ctx, "http server shutdown failed", logger.Errors(errs...))
			return
		}
		s.cfg.logger.InfoContext(ctx, "http server stopped")
	})
	return s.shutdownErr
}
