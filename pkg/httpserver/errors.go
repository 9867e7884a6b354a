package httpserver

import "errors"

var (
	// ErrStart indicates that the server failed to bind or serve.
	ErrStart = errors.New("httpserver.start")
	// ErrShutdown indicates that graceful shutdown or a shutdown hook failed.
	ErrShutdown = errors.New("httpserver.shutdown")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("httpserver.already_running")
)
