package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// SessionID records a session identifier under the key "session_id".
func SessionID(id string) slog.Attr {
	return slog.String("session_id", id)
}

// Sessions records a list of session identifiers as one comma separated
// value under the key "sessions".
func Sessions(ids []string) slog.Attr {
	return slog.String("sessions", strings.Join(ids, ", "))
}

// Route records a node route under the key "route".
func Route(route string) slog.Attr {
	return slog.String("route", route)
}

// Backend records the store adapter name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Address records a network endpoint under the key "address".
func Address(addr string) slog.Attr {
	return slog.String("address", addr)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records a domain event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
