package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// routeSeparator splits the base identifier from the routing suffix.
const routeSeparator = "."

// ID is a parsed session identity: a globally unique base identifier and an
// optional route naming the cluster node that created the session.
type ID struct {
	Base  string
	Route string
}

// NewID generates a fresh identity owned by the given route.
// An empty route produces an identity without suffix.
func NewID(route string) ID {
	return ID{Base: uuid.NewString(), Route: route}
}

// ParseID splits "<base>" or "<base>.<route>" at the first separator.
func ParseID(s string) (ID, error) {
	if s == "" {
		return ID{}, errors.Join(ErrInvalidID, errors.New("empty session id"))
	}

	base, route, _ := strings.Cut(s, routeSeparator)
	if base == "" {
		return ID{}, errors.Join(ErrInvalidID, fmt.Errorf("session id %q has no base identifier", s))
	}

	return ID{Base: base, Route: route}, nil
}

// MakeID builds an identity from its parts. The base must be non-empty and
// must not contain the route separator, otherwise the text form would parse
// back into a different identity.
func MakeID(base, route string) (ID, error) {
	id := ID{Base: base, Route: route}
	if err := id.Validate(); err != nil {
		return ID{}, err
	}
	return id, nil
}

// Validate reports whether the identity survives a String/ParseID round trip.
func (id ID) Validate() error {
	if id.Base == "" {
		return errors.Join(ErrInvalidID, errors.New("session id has no base identifier"))
	}
	if strings.Contains(id.Base, routeSeparator) {
		return errors.Join(ErrInvalidID, fmt.Errorf("session id base %q contains %q", id.Base, routeSeparator))
	}
	return nil
}

// MustParseID is like ParseID but panics on malformed input.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String restores the text form of the identity. Only identities that pass
// Validate parse back to themselves.
func (id ID) String() string {
	if id.Route == "" {
		return id.Base
	}
	return id.Base + routeSeparator + id.Route
}

// HasRoute reports whether the identity carries a routing suffix.
func (id ID) HasRoute() bool {
	return id.Route != ""
}

// IsZero reports whether the identity was never assigned.
func (id ID) IsZero() bool {
	return id.Base == ""
}

// WithRoute returns a copy owned by another route. The base is kept.
func (id ID) WithRoute(route string) ID {
	return ID{Base: id.Base, Route: route}
}
