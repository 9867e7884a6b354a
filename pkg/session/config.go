package session

import (
	"errors"
	"fmt"
	"time"
)

// NeverExpire disables expiry: the reaper never removes anything.
const NeverExpire time.Duration = -1

// Config holds backend service configuration
type Config struct {
	// BackendAddress is the store endpoint in host[:port] form
	BackendAddress string `env:"SESSION_BACKEND_ADDRESS"`

	// ExpiryThreshold is the inactivity after which a session is removed (NeverExpire to disable)
	ExpiryThreshold time.Duration `env:"SESSION_EXPIRY_THRESHOLD" envDefault:"-1ns"`

	// CleanupInterval is how often the reaper polls the backend
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10s"`

	// ShutdownTimeout bounds the wait for connection release on shutdown
	ShutdownTimeout time.Duration `env:"SESSION_SHUTDOWN_TIMEOUT" envDefault:"3s"`

	// OperationTimeout bounds every persist, fetch, delete and scan call
	OperationTimeout time.Duration `env:"SESSION_OPERATION_TIMEOUT" envDefault:"5s"`

	// ConnectTimeout bounds Adapter.Open during start
	ConnectTimeout time.Duration `env:"SESSION_CONNECT_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns default backend service configuration
func DefaultConfig() Config {
	return Config{
		ExpiryThreshold:  NeverExpire,
		CleanupInterval:  10 * time.Second,
		ShutdownTimeout:  3 * time.Second,
		OperationTimeout: 5 * time.Second,
		ConnectTimeout:   30 * time.Second,
	}
}

// Validate checks everything except the address, which is parsed at start
// with the adapter's default port.
func (c Config) Validate() error {
	var errs []error
	if c.ExpiryThreshold != NeverExpire && c.ExpiryThreshold <= 0 {
		errs = append(errs, fmt.Errorf("expiry threshold must be positive or NeverExpire, got %s", c.ExpiryThreshold))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("cleanup interval must be positive, got %s", c.CleanupInterval))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if c.OperationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("operation timeout must be positive, got %s", c.OperationTimeout))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrConfiguration}, errs...)...)
}

// NewFromConfig creates a Service for adapter from cfg.
func NewFromConfig(adapter Adapter, cfg Config, opts ...Option) *Service {
	configOpts := []Option{
		WithConfig(cfg),
	}

	configOpts = append(configOpts, opts...)

	return New(adapter, configOpts...)
}
