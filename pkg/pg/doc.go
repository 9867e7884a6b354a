// Package pg implements session.Adapter on PostgreSQL using pgx/v5.
//
// Sessions live in one table keyed by (namespace, key). The schema ships as
// embedded goose migrations and is applied on Open unless AutoMigrate is
// disabled, so a fresh database needs no manual setup:
//
//	a := pg.NewAdapter(pg.Config{User: "app", Password: pw, Database: "app", AutoMigrate: true},
//		pg.WithLogger(log))
//	svc := session.New(a, session.WithBackendAddress("db.internal"))
//
// Connect, Migrate and Healthcheck are exported for callers that manage the
// pool themselves.
package pg
