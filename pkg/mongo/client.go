package mongo

import (
	"context"
	"errors"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// URI builds a mongodb:// connection string for hostport.
func (c Config) URI(hostport string) string {
	u := url.URL{Scheme: "mongodb", Host: hostport, Path: "/"}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	if c.AuthSource != "" && c.Username != "" {
		u.RawQuery = url.Values{"authSource": {c.AuthSource}}.Encode()
	}
	return u.String()
}

// New connects to uri and pings until the server answers or attempts run out.
func New(ctx context.Context, uri string, cfg Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetRetryWrites(cfg.RetryWrites).
		SetRetryReads(cfg.RetryReads)
	if cfg.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts.SetConnectTimeout(time.Until(deadline))
	}

	attempts := max(cfg.RetryAttempts, 1)

	var lastErr error
	for i := range attempts {
		client, err := mongo.Connect(opts)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client, nil
			}
			_ = client.Disconnect(context.WithoutCancel(ctx))
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return nil, errors.Join(ErrFailedToConnectToMongo, lastErr)
}
