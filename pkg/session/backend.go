package session

import (
	"context"
	"log/slog"
	"time"
)

// Namespace is the logical bucket every session key is stored under.
const Namespace = "SESSIONS"

// Adapter is implemented by each concrete store.
// Implementations must be safe for concurrent use and must translate store
// errors into ErrBackendAccess (see BackendError).
type Adapter interface {
	// Name identifies the backend in logs
	Name() string

	// DefaultPort is used when the backend address omits the port
	DefaultPort() int

	// Open establishes the connection handle
	Open(ctx context.Context, addr Address) error

	// Close releases the connection handle
	Close(ctx context.Context) error

	// Put stores value under key, recording accessedAt for expiry scans
	Put(ctx context.Context, namespace, key string, value []byte, accessedAt time.Time) error

	// Get returns nil without error when the key does not exist
	Get(ctx context.Context, namespace, key string) ([]byte, error)

	// Delete is idempotent
	Delete(ctx context.Context, namespace, key string) error

	// ExpiredKeys lists keys last accessed before the given time.
	// Backends that cannot scan return ErrCapabilityUnsupported.
	ExpiredKeys(ctx context.Context, namespace string, before time.Time) ([]string, error)
}

// Pinger is an optional Adapter capability used for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionBackend is the subset of BackendService request handlers depend on.
type SessionBackend interface {
	PersistSession(ctx context.Context, s PersistableSession) error
	// GetSession decodes the stored copy into shell, returning nil when absent
	GetSession(ctx context.Context, shell PersistableSession, id ID) (PersistableSession, error)
	DeleteSession(ctx context.Context, s PersistableSession) error
}

// BackendService is the full contract offered to the host container.
type BackendService interface {
	SessionBackend

	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error

	RemoveExpiredSessions(ctx context.Context) ([]string, error)
	GetExpiredSessionIDs(ctx context.Context) ([]string, error)

	SetBackendAddress(address string) error
	SetExpiryThreshold(d time.Duration) error
	SetCleanupInterval(d time.Duration) error
	SetAuditLogger(l *slog.Logger) error
}

// State is the service lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
