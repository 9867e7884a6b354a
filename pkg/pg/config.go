package pg

import (
	"net/url"
	"time"
)

// Config holds credentials, pool limits and migration settings. Host and port
// come from the session backend address.
type Config struct {
	User     string `env:"PG_USER" envDefault:"postgres"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE" envDefault:"sessions"`
	SSLMode  string `env:"PG_SSLMODE" envDefault:"disable"`

	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the maximum number of open connections to the database.
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`       // MaxIdleConns is the number of connections kept open while idle.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum amount of time a connection may be idle to be reused.
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum amount of time a connection may be reused.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"1s"`

	AutoMigrate     bool   `env:"PG_AUTO_MIGRATE" envDefault:"true"`
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"session_schema_migrations"`
}

// ConnectionString builds a postgres:// URL for hostport.
func (c Config) ConnectionString(hostport string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   hostport,
		Path:   "/" + c.Database,
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}
