package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect dials addr and pings until the server answers, retrying
// cfg.RetryAttempts times with cfg.RetryInterval between attempts.
// The deadline of ctx bounds the whole sequence.
func Connect(ctx context.Context, addr string, cfg Config) (*redis.Client, error) {
	opts := clientOptions(addr, cfg)

	attempts := max(cfg.RetryAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		client := redis.NewClient(opts)

		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		lastErr = err

		_ = client.Close()

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

func clientOptions(addr string, cfg Config) *redis.Options {
	return &redis.Options{
		Addr:     addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,

		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		// Per-call deadlines from the service context bound each command.
		ContextTimeoutEnabled: true,
	}
}
