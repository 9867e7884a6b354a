package session

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Service
type Option func(*Service)

// WithConfig replaces the whole configuration
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithBackendAddress sets the store endpoint
func WithBackendAddress(address string) Option {
	return func(s *Service) {
		s.cfg.BackendAddress = address
	}
}

// WithExpiryThreshold sets the inactivity threshold
func WithExpiryThreshold(d time.Duration) Option {
	return func(s *Service) {
		s.cfg.ExpiryThreshold = d
	}
}

// WithCleanupInterval sets how often the reaper runs
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Service) {
		s.cfg.CleanupInterval = d
	}
}

// WithShutdownTimeout bounds connection release on shutdown
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.cfg.ShutdownTimeout = d
	}
}

// WithOperationTimeout bounds each backend call
func WithOperationTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.cfg.OperationTimeout = d
	}
}

// WithCodec sets the session serializer
func WithCodec(codec Codec) Option {
	return func(s *Service) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithLogger sets the operational logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAuditLogger sets the session-management audit log receiving deletions
func WithAuditLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.audit = l
		}
	}
}
