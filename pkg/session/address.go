package session

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

var addressPattern = regexp.MustCompile(`^(?P<host>[^:]+)(?::(?P<port>\d+))?$`)

// Address is the parsed backend endpoint.
type Address struct {
	Host string
	Port int
}

// ParseAddress reads a "host[:port]" connection string.
// defaultPort is used when the port is omitted.
func ParseAddress(s string, defaultPort int) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, errors.Join(ErrConfiguration, errors.New("backend address must not be empty"))
	}

	m := addressPattern.FindStringSubmatch(s)
	if m == nil {
		return Address{}, errors.Join(ErrConfiguration, fmt.Errorf("backend address %q cannot be read, expected host[:port]", s))
	}

	addr := Address{Host: m[addressPattern.SubexpIndex("host")], Port: defaultPort}
	if p := m[addressPattern.SubexpIndex("port")]; p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Address{}, errors.Join(ErrConfiguration, fmt.Errorf("backend address %q has invalid port", s))
		}
		addr.Port = port
	}

	return addr, nil
}

// String formats the address as host:port, or just host when no port is known.
func (a Address) String() string {
	if a.Port == 0 {
		return a.Host
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}
