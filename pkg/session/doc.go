// Package session persists web sessions in a shared store so that any node
// of a cluster can serve any session.
//
// The package is split into three layers:
//
//   - Adapter is the small capability every store implements: open, close,
//     put, get, delete and an optional scan of entries idle since a cutoff.
//     Namespace "SESSIONS" scopes all keys. MemoryAdapter ships here; Redis,
//     PostgreSQL, MongoDB, OpenSearch and S3 adapters live in sibling packages.
//   - Service wraps an Adapter with lifecycle state, configuration, per-call
//     timeouts, uniform error translation and a background cleanup worker that
//     removes sessions idle longer than the expiry threshold.
//   - Manager is the routing-aware front used by request handlers. Session ids
//     have the form "<base>.<route>"; ids routed to the local node are served
//     from a local cache while all others are fetched from the Service once
//     and cached.
//
// # Lifecycle
//
// A Service starts uninitialized. Setters only work in that state. Start
// validates the configuration, parses the address with the adapter's default
// port and opens the store:
//
//	svc := session.New(redis.NewAdapter(redis.Config{}),
//		session.WithBackendAddress("cache.internal"),
//		session.WithExpiryThreshold(30*time.Minute),
//	)
//	if err := svc.Start(ctx); err != nil {
//		return err
//	}
//	defer svc.Shutdown(context.Background())
//
// Shutdown is idempotent. Once it begins every operation returns
// ErrServiceUnavailable, including calls whose I/O completes afterwards.
// Releasing the store is bounded by ShutdownTimeout; a timeout is logged and
// the service still ends up stopped.
//
// # Errors
//
// Store failures are joined with ErrBackendAccess. A store unable to scan by
// last access returns ErrCapabilityUnsupported; the cleanup worker logs that
// at most once per hour and keeps running. Fetching an unknown session is
// not an error: GetSession and FindSession return nil.
package session
