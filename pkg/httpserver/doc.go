// Package httpserver runs an http.Handler with signal-driven graceful
// shutdown and provides liveness and readiness handlers.
//
// Run binds the listener up front so address errors surface as ErrStart
// instead of from a background goroutine. It returns after the context is
// canceled, SIGINT or SIGTERM arrives, or Shutdown is called. Shutdown drains
// connections and then runs the WithOnShutdown hooks inside one
// WithShutdownTimeout budget; sessiond uses a hook to stop its session
// backend after the last request finished.
//
//	srv := httpserver.New(
//		httpserver.WithAddr(":8080"),
//		httpserver.WithOnShutdown(svc.Shutdown),
//	)
//	err := srv.Run(ctx, router)
package httpserver
