package redis

import "time"

// Config holds the connection settings that are not part of the session
// backend address.
type Config struct {
	Username      string        `env:"REDIS_USERNAME"`
	Password      string        `env:"REDIS_PASSWORD"`
	DB            int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize      int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DialTimeout   time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout   time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout  time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of ping attempts before giving up.
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"` // RetryInterval is the pause between attempts.
}
