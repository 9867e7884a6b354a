package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Envelope is the body of every API response.
type Envelope struct {
	Code  string       `json:"code,omitempty"`
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// HTTPError pairs a status code with a stable machine-readable key.
type HTTPError struct {
	Status int
	Key    string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest           = HTTPError{Status: http.StatusBadRequest, Key: "bad_request"}
	ErrInvalidSessionID     = HTTPError{Status: http.StatusBadRequest, Key: "invalid_session_id"}
	ErrNotFound             = HTTPError{Status: http.StatusNotFound, Key: "session_not_found"}
	ErrUnsupportedMediaType = HTTPError{Status: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrConflict             = HTTPError{Status: http.StatusConflict, Key: "conflict"}
	ErrServiceUnavailable   = HTTPError{Status: http.StatusServiceUnavailable, Key: "service_unavailable"}
	ErrBadGateway           = HTTPError{Status: http.StatusBadGateway, Key: "backend_error"}
	ErrInternal             = HTTPError{Status: http.StatusInternalServerError, Key: "internal_error"}
)

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, code string, data any) {
	writeJSON(w, status, Envelope{Code: code, Data: data})
}

// writeError renders err as the closest HTTPError.
func writeError(w http.ResponseWriter, err error) {
	httpErr := classify(err)
	writeJSON(w, httpErr.Status, Envelope{
		Code: httpErr.Key,
		Error: &ErrorDetail{
			Code:    httpErr.Key,
			Message: http.StatusText(httpErr.Status),
		},
	})
}

func classify(err error) HTTPError {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, session.ErrInvalidID):
		return ErrInvalidSessionID
	case errors.Is(err, session.ErrServiceUnavailable):
		return ErrServiceUnavailable
	case errors.Is(err, session.ErrBackendAccess), errors.Is(err, session.ErrSerialization):
		return ErrBadGateway
	default:
		return ErrInternal
	}
}
