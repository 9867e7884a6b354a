// Package logger builds *slog.Logger instances from functional options and
// provides attribute helpers that keep key names consistent across the
// session packages.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment(os.Getenv("APP_ENV"), "sessiond"),
//		logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	log.InfoContext(ctx, "session persisted", logger.SessionID(id), logger.Backend("redis"))
//
// Binaries usually read a Config with pkg/config and turn it into options with
// FromConfig. Context extractors run per record, so request scoped values are
// picked up from whatever context is passed to the *Context logging methods.
package logger
