package redis

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultPort is the standard Redis port.
const DefaultPort = 6379

// Adapter stores sessions as plain string keys plus one sorted set per
// namespace scored by last access in milliseconds. Both keys share a hash
// tag so the pair lives in one cluster slot.
type Adapter struct {
	cfg Config

	mu       sync.RWMutex
	client   redis.UniversalClient
	injected bool
}

// Compile-time interface checks
var (
	_ session.Adapter = (*Adapter)(nil)
	_ session.Pinger  = (*Adapter)(nil)
)

// NewAdapter creates an adapter that dials the service address on Open.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// NewAdapterWithClient uses an existing client. Open only pings it and
// Close leaves it open for the owner.
func NewAdapterWithClient(client redis.UniversalClient) *Adapter {
	return &Adapter{client: client, injected: true}
}

func (a *Adapter) Name() string     { return "redis" }
func (a *Adapter) DefaultPort() int { return DefaultPort }

func (a *Adapter) Open(ctx context.Context, addr session.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.injected {
		if err := a.client.Ping(ctx).Err(); err != nil {
			return session.BackendError(ErrRedisNotReady, err)
		}
		return nil
	}

	client, err := Connect(ctx, addr.String(), a.cfg)
	if err != nil {
		return session.BackendError(err)
	}

	if a.client != nil {
		_ = a.client.Close()
	}
	a.client = client
	return nil
}

func (a *Adapter) Close(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.injected || a.client == nil {
		return nil
	}

	err := a.client.Close()
	a.client = nil
	if err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	client, err := a.conn()
	if err != nil {
		return err
	}
	if err := Healthcheck(client)(ctx); err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) Put(ctx context.Context, namespace, key string, value []byte, accessedAt time.Time) error {
	client, err := a.conn()
	if err != nil {
		return err
	}

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dataKey(namespace, key), value, 0)
		pipe.ZAdd(ctx, indexKey(namespace), redis.Z{Score: score(accessedAt), Member: key})
		return nil
	})
	if err != nil {
		return session.BackendError(err)
	}
	return nil
}

// Get returns nil for missing keys.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	client, err := a.conn()
	if err != nil {
		return nil, err
	}

	val, err := client.Get(ctx, dataKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, session.BackendError(err)
	}
	return val, nil
}

func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	client, err := a.conn()
	if err != nil {
		return err
	}

	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, dataKey(namespace, key))
		pipe.ZRem(ctx, indexKey(namespace), key)
		return nil
	})
	if err != nil {
		return session.BackendError(err)
	}
	return nil
}

// ExpiredKeys lists members scored strictly below the cutoff.
func (a *Adapter) ExpiredKeys(ctx context.Context, namespace string, before time.Time) ([]string, error) {
	client, err := a.conn()
	if err != nil {
		return nil, err
	}

	keys, err := client.ZRangeByScore(ctx, indexKey(namespace), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, session.BackendError(err)
	}
	return keys, nil
}

// Client exposes the underlying client, nil before Open.
func (a *Adapter) Client() redis.UniversalClient {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client
}

func (a *Adapter) conn() (redis.UniversalClient, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.client == nil {
		return nil, session.BackendError(ErrNotOpen)
	}
	return a.client, nil
}

func dataKey(namespace, key string) string {
	return "{" + namespace + "}:data:" + key
}

func indexKey(namespace string) string {
	return "{" + namespace + "}:last_access"
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
