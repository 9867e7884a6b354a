package pg

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultPort is the standard PostgreSQL port.
const DefaultPort = 5432

const (
	upsertSession = `INSERT INTO sessions (namespace, key, data, last_access)
VALUES ($1, $2, $3, $4)
ON CONFLICT (namespace, key) DO UPDATE SET data = EXCLUDED.data, last_access = EXCLUDED.last_access`

	selectSession = `SELECT data FROM sessions WHERE namespace = $1 AND key = $2`

	deleteSession = `DELETE FROM sessions WHERE namespace = $1 AND key = $2`

	selectExpired = `SELECT key FROM sessions WHERE namespace = $1 AND last_access < $2 ORDER BY key`
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for migration output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// Adapter stores sessions in a single "sessions" table keyed by
// (namespace, key) with an index on (namespace, last_access).
type Adapter struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

// Compile-time interface checks
var (
	_ session.Adapter = (*Adapter)(nil)
	_ session.Pinger  = (*Adapter)(nil)
)

func NewAdapter(cfg Config, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() string     { return "postgres" }
func (a *Adapter) DefaultPort() int { return DefaultPort }

// Open connects and, unless AutoMigrate is off, applies the schema.
func (a *Adapter) Open(ctx context.Context, addr session.Address) error {
	pool, err := Connect(ctx, a.cfg.ConnectionString(addr.String()), a.cfg)
	if err != nil {
		return session.BackendError(err)
	}

	if a.cfg.AutoMigrate {
		if err := Migrate(ctx, pool, a.cfg, a.logger); err != nil {
			pool.Close()
			return session.BackendError(err)
		}
	}

	a.mu.Lock()
	old := a.pool
	a.pool = pool
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Close releases the pool. pgxpool.Close waits for acquired connections, so
// it runs under the context deadline in a goroutine of its own.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	pool := a.pool
	a.pool = nil
	a.mu.Unlock()

	if pool == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return session.BackendError(ctx.Err())
	}
}

func (a *Adapter) Ping(ctx context.Context) error {
	pool, err := a.conn()
	if err != nil {
		return err
	}
	if err := Healthcheck(pool)(ctx); err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) Put(ctx context.Context, namespace, key string, value []byte, accessedAt time.Time) error {
	pool, err := a.conn()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, upsertSession, namespace, key, value, accessedAt.UTC()); err != nil {
		return session.BackendError(err)
	}
	return nil
}

// Get returns nil for missing rows.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	pool, err := a.conn()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = pool.QueryRow(ctx, selectSession, namespace, key).Scan(&data)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, session.BackendError(err)
	}
	return data, nil
}

func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	pool, err := a.conn()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, deleteSession, namespace, key); err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) ExpiredKeys(ctx context.Context, namespace string, before time.Time) ([]string, error) {
	pool, err := a.conn()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, selectExpired, namespace, before.UTC())
	if err != nil {
		return nil, session.BackendError(err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, session.BackendError(err)
	}
	return keys, nil
}

func (a *Adapter) conn() (*pgxpool.Pool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.pool == nil {
		return nil, session.BackendError(ErrNotOpen)
	}
	return a.pool, nil
}
