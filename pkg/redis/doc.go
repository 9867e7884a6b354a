// Package redis implements session.Adapter on top of github.com/redis/go-redis/v9.
//
// Every session is a string key "{NS}:data:<id>" and a member of the sorted
// set "{NS}:last_access" scored by last access time in milliseconds. Writes
// and deletes touch both in one MULTI/EXEC transaction, so an expiry scan is
// a single ZRANGEBYSCORE.
//
//	svc := session.New(redis.NewAdapter(redis.Config{Password: pw}),
//		session.WithBackendAddress("cache.internal"), // port 6379 is implied
//	)
//
// Connect can also be used on its own; it retries the initial ping and
// returns ErrRedisNotReady when the server never answers.
package redis
