package mongo

import "time"

// Config holds credentials and pool settings. Host and port come from the
// session backend address.
type Config struct {
	Username   string `env:"MONGODB_USERNAME"`
	Password   string `env:"MONGODB_PASSWORD"`
	AuthSource string `env:"MONGODB_AUTH_SOURCE" envDefault:"admin"`
	Database   string `env:"MONGODB_DATABASE" envDefault:"sessions"` // Database holds one collection per session namespace.

	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`       // MaxPoolSize is the maximum number of connections in the connection pool.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`         // MinPoolSize is the minimum number of connections in the connection pool.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime is the maximum time that a connection can remain idle in the connection pool.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of ping attempts before giving up.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"1s"` // RetryInterval is the pause between attempts.
}
