package main

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/mongo"
	"github.com/dmitrymomot/sessionkit/pkg/opensearch"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/s3"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

type appConfig struct {
	// Backend selects the store: memory, redis, postgres, mongodb, opensearch or s3.
	Backend string `env:"SESSION_BACKEND" envDefault:"memory"`
	// NodeRoute is appended to ids created here and decides cache ownership.
	NodeRoute     string        `env:"NODE_ROUTE" envDefault:"node1"`
	CacheCapacity int           `env:"SESSION_CACHE_CAPACITY" envDefault:"0"`
	MaxInactive   time.Duration `env:"SESSION_MAX_INACTIVE" envDefault:"0s"`
	ReadyTimeout  time.Duration `env:"READY_TIMEOUT" envDefault:"2s"`

	Log     logger.Config
	HTTP    httpserver.Config
	Session session.Config

	Redis      redis.Config
	Postgres   pg.Config
	Mongo      mongo.Config
	OpenSearch opensearch.Config
	S3         s3.Config
}
