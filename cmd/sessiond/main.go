// Command sessiond serves a session store over HTTP. Several instances with
// distinct NODE_ROUTE values can share one backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/sessionkit/internal/api"
	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	logOpts, err := logger.FromConfig(cfg.Log)
	if err != nil {
		return err
	}
	log := logger.New(append(logOpts,
		logger.WithContextValue("request_id", middleware.RequestIDKey),
		logger.WithAttr(logger.Route(cfg.NodeRoute)),
	)...)
	logger.SetAsDefault(log)

	adapter, err := newAdapter(cfg, log)
	if err != nil {
		return err
	}

	svc := session.NewFromConfig(adapter, cfg.Session,
		session.WithLogger(log),
		session.WithAuditLogger(log.With(logger.Component("session_audit"))),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	manager := session.NewManager(svc, session.StaticRoute(cfg.NodeRoute),
		session.WithCacheCapacity(cfg.CacheCapacity),
		session.WithMaxInactive(cfg.MaxInactive),
		session.WithManagerLogger(log),
	)

	router := api.NewRouter(manager,
		api.WithLogger(log),
		api.WithReadinessCheck("session_backend", svc.Ping),
		api.WithReadinessTimeout(cfg.ReadyTimeout),
	)

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithOnShutdown(svc.Shutdown),
	)

	log.InfoContext(ctx, "sessiond starting",
		logger.Backend(adapter.Name()),
		logger.Address(svc.Address().String()),
		slog.String("http_addr", cfg.HTTP.Addr),
	)

	if err := srv.Run(ctx, router); err != nil {
		// The server may never have reached its shutdown hook.
		return errors.Join(err, svc.Shutdown(context.WithoutCancel(ctx)))
	}
	return nil
}
