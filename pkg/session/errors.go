package session

import "errors"

var (
	// ErrConfiguration indicates a missing or invalid setting detected at start
	ErrConfiguration = errors.New("session.configuration")

	// ErrConfigurationLocked indicates a setter was called after the service left the uninitialized state
	ErrConfigurationLocked = errors.New("session.configuration_locked")

	// ErrServiceUnavailable indicates an operation on a service that is not running
	ErrServiceUnavailable = errors.New("session.service_unavailable")

	// ErrAlreadyStarted indicates Start was called on a service that is no longer fresh
	ErrAlreadyStarted = errors.New("session.already_started")

	// ErrBackendAccess wraps any failure of the underlying store
	ErrBackendAccess = errors.New("session.backend_access")

	// ErrCapabilityUnsupported indicates the backend cannot scan sessions by last access
	ErrCapabilityUnsupported = errors.New("session.capability_unsupported")

	// ErrSerialization indicates the codec failed to encode or decode a session
	ErrSerialization = errors.New("session.serialization")

	// ErrInvalidID indicates a session id that cannot be parsed
	ErrInvalidID = errors.New("session.invalid_id")

	// ErrInvalidSession indicates a nil session or one without a persistence key
	ErrInvalidSession = errors.New("session.invalid")
)

// BackendError joins ErrBackendAccess with the store specific causes.
// Adapters use it so callers only need errors.Is(err, ErrBackendAccess).
func BackendError(causes ...error) error {
	return errors.Join(append([]error{ErrBackendAccess}, causes...)...)
}
