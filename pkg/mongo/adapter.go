package mongo

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultPort is the standard MongoDB port.
const DefaultPort = 27017

// document is the stored form of one session.
type document struct {
	Key        string    `bson:"_id"`
	Data       []byte    `bson:"data"`
	LastAccess time.Time `bson:"last_access"`
}

// Adapter keeps each namespace in its own collection with an index on
// last_access for expiry scans.
type Adapter struct {
	cfg Config

	mu      sync.RWMutex
	client  *mongo.Client
	indexed sync.Map // namespace -> struct{}
}

// Compile-time interface checks
var (
	_ session.Adapter = (*Adapter)(nil)
	_ session.Pinger  = (*Adapter)(nil)
)

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

func (a *Adapter) Name() string     { return "mongodb" }
func (a *Adapter) DefaultPort() int { return DefaultPort }

func (a *Adapter) Open(ctx context.Context, addr session.Address) error {
	client, err := New(ctx, a.cfg.URI(addr.String()), a.cfg)
	if err != nil {
		return session.BackendError(err)
	}

	a.mu.Lock()
	old := a.client
	a.client = client
	a.mu.Unlock()

	if old != nil {
		_ = old.Disconnect(ctx)
	}
	return nil
}

func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.RLock()
	client := a.client
	a.mu.RUnlock()

	if client == nil {
		return session.BackendError(ErrNotOpen)
	}
	if err := Healthcheck(client)(ctx); err != nil {
		return session.BackendError(err)
	}
	return nil
}

// Put upserts the document and makes sure the namespace has its index.
func (a *Adapter) Put(ctx context.Context, namespace, key string, value []byte, accessedAt time.Time) error {
	coll, err := a.collection(namespace)
	if err != nil {
		return err
	}

	if err := a.ensureIndex(ctx, namespace, coll); err != nil {
		return session.BackendError(err)
	}

	doc := document{Key: key, Data: value, LastAccess: accessedAt.UTC()}
	_, err = coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return session.BackendError(err)
	}
	return nil
}

// Get returns nil when no document exists.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	coll, err := a.collection(namespace)
	if err != nil {
		return nil, err
	}

	var doc document
	err = coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, session.BackendError(err)
	}
	if doc.Data == nil {
		doc.Data = []byte{}
	}
	return doc.Data, nil
}

func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	coll, err := a.collection(namespace)
	if err != nil {
		return err
	}
	if _, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) ExpiredKeys(ctx context.Context, namespace string, before time.Time) ([]string, error) {
	coll, err := a.collection(namespace)
	if err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "last_access", Value: bson.D{{Key: "$lt", Value: before.UTC()}}}}
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, session.BackendError(err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, session.BackendError(err)
	}

	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		keys = append(keys, d.Key)
	}
	return keys, nil
}

func (a *Adapter) collection(namespace string) (*mongo.Collection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.client == nil {
		return nil, session.BackendError(ErrNotOpen)
	}
	return a.client.Database(a.cfg.Database).Collection(namespace), nil
}

func (a *Adapter) ensureIndex(ctx context.Context, namespace string, coll *mongo.Collection) error {
	if _, ok := a.indexed.Load(namespace); ok {
		return nil
	}

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "last_access", Value: 1}},
	})
	if err != nil {
		return err
	}

	a.indexed.Store(namespace, struct{}{})
	return nil
}
