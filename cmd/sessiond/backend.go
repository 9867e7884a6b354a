package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/sessionkit/pkg/mongo"
	"github.com/dmitrymomot/sessionkit/pkg/opensearch"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/s3"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// newAdapter returns the store adapter named by cfg.Backend.
func newAdapter(cfg appConfig, log *slog.Logger) (session.Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return session.NewMemoryAdapter(), nil
	case "redis":
		return redis.NewAdapter(cfg.Redis), nil
	case "postgres", "pg":
		return pg.NewAdapter(cfg.Postgres, pg.WithLogger(log)), nil
	case "mongodb", "mongo":
		return mongo.NewAdapter(cfg.Mongo), nil
	case "opensearch":
		return opensearch.NewAdapter(cfg.OpenSearch), nil
	case "s3":
		return s3.NewAdapter(cfg.S3), nil
	default:
		return nil, fmt.Errorf("%w: unknown session backend %q", session.ErrConfiguration, cfg.Backend)
	}
}
