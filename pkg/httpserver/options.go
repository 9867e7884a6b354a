package httpserver

import (
	"context"
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

// WithAddr sets the listen address. ":0" picks a free port; see Server.Addr.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("WithAddr: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithReadTimeout: duration must be > 0")
	}
	return func(c *config) { c.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithWriteTimeout: duration must be > 0")
	}
	return func(c *config) { c.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithIdleTimeout: duration must be > 0")
	}
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds connection draining plus every shutdown hook.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger sets the server logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnStart registers a callback run with the bound address once the
// listener is open.
func WithOnStart(h func(addr string)) Option {
	if h == nil {
		panic("WithOnStart: nil hook")
	}
	return func(c *config) { c.onStart = append(c.onStart, h) }
}

// WithOnShutdown registers a hook run after connections drain, in
// registration order. Typically it releases the session backend.
func WithOnShutdown(h func(context.Context) error) Option {
	if h == nil {
		panic("WithOnShutdown: nil hook")
	}
	return func(c *config) { c.onShutdown = append(c.onShutdown, h) }
}
