package session

import (
	"encoding/json"
	"maps"
	"sync"
	"time"
)

// PersistableSession is what the backend service needs from the host's
// session object.
type PersistableSession interface {
	// PersistenceKey is the base identifier the session is stored under
	PersistenceKey() string

	// IsDirty reports whether in-memory state diverges from the last persisted copy
	IsDirty() bool

	// SetDirty is called by the service; adapters never touch it
	SetDirty(dirty bool)

	// LastAccessedAt is used by backends to index sessions for expiry
	LastAccessedAt() time.Time
}

// Session is a goroutine-safe reference implementation of PersistableSession
// holding arbitrary attributes.
type Session struct {
	mu             sync.RWMutex
	id             ID
	attributes     map[string]any
	createdAt      time.Time
	lastAccessedAt time.Time
	dirty          bool
}

// NewSession creates a dirty session so that its first persist writes it.
func NewSession(id ID) *Session {
	now := time.Now()
	return &Session{
		id:             id,
		attributes:     make(map[string]any),
		createdAt:      now,
		lastAccessedAt: now,
		dirty:          true,
	}
}

// newShell returns an empty session to decode a stored copy into.
func newShell() *Session {
	return &Session{attributes: make(map[string]any)}
}

// ID returns the full session identity.
func (s *Session) ID() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) setID(id ID) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

func (s *Session) PersistenceKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id.Base
}

func (s *Session) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Session) SetDirty(dirty bool) {
	s.mu.Lock()
	s.dirty = dirty
	s.mu.Unlock()
}

func (s *Session) LastAccessedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessedAt
}

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// IsExpired reports whether the session was idle longer than maxInactive.
// A NeverExpire threshold never expires.
func (s *Session) IsExpired(maxInactive time.Duration) bool {
	if s == nil || maxInactive == NeverExpire || maxInactive <= 0 {
		return false
	}
	return time.Since(s.LastAccessedAt()) > maxInactive
}

// Touch records an access.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessedAt = time.Now()
	s.dirty = true
	s.mu.Unlock()
}

// Get retrieves an attribute
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.attributes[key]
	return val, ok
}

// GetString retrieves a string attribute
func (s *Session) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt retrieves an int attribute, accepting the float64 a JSON round trip produces
func (s *Session) GetInt(key string) (int, bool) {
	val, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetBool retrieves a bool attribute
func (s *Session) GetBool(key string) (bool, bool) {
	val, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// Set stores an attribute and marks the session dirty
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	s.attributes[key] = value
	s.dirty = true
	s.mu.Unlock()
}

// Delete removes an attribute and marks the session dirty
func (s *Session) Delete(key string) {
	s.mu.Lock()
	if _, ok := s.attributes[key]; ok {
		delete(s.attributes, key)
		s.dirty = true
	}
	s.mu.Unlock()
}

// Clear removes all attributes
func (s *Session) Clear() {
	s.mu.Lock()
	s.attributes = make(map[string]any)
	s.dirty = true
	s.mu.Unlock()
}

// Attributes returns a copy of all attributes.
func (s *Session) Attributes() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.attributes)
}

// sessionJSON is the stored form. The dirty flag is process-local and never stored.
type sessionJSON struct {
	ID             string         `json:"id"`
	Attributes     map[string]any `json:"attributes,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
}

func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(sessionJSON{
		ID:             s.id.String(),
		Attributes:     s.attributes,
		CreatedAt:      s.createdAt,
		LastAccessedAt: s.lastAccessedAt,
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := ParseID(raw.ID)
	if err != nil {
		return err
	}
	if raw.Attributes == nil {
		raw.Attributes = make(map[string]any)
	}

	s.mu.Lock()
	s.id = id
	s.attributes = raw.Attributes
	s.createdAt = raw.CreatedAt
	s.lastAccessedAt = raw.LastAccessedAt
	s.mu.Unlock()
	return nil
}
