package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultPort is the standard OpenSearch REST port.
const DefaultPort = 9200

const indexMapping = `{
  "mappings": {
    "properties": {
      "data":        {"type": "binary"},
      "last_access": {"type": "date", "format": "epoch_millis"}
    }
  }
}`

// document is the stored source. Data is base64 in JSON via []byte.
type document struct {
	Data       []byte `json:"data"`
	LastAccess int64  `json:"last_access"`
}

// Adapter stores one document per session in an index per namespace.
type Adapter struct {
	cfg Config

	mu        sync.RWMutex
	transport opensearchapi.Transport
	injected  bool
	indexed   sync.Map // index name -> struct{}
}

// Compile-time interface checks
var (
	_ session.Adapter = (*Adapter)(nil)
	_ session.Pinger  = (*Adapter)(nil)
)

// NewAdapter creates an adapter that builds a client on Open.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// NewAdapterWithTransport uses transport for every request, typically an
// existing *opensearch.Client.
func NewAdapterWithTransport(transport opensearchapi.Transport, cfg Config) *Adapter {
	return &Adapter{cfg: cfg, transport: transport, injected: true}
}

func (a *Adapter) Name() string     { return "opensearch" }
func (a *Adapter) DefaultPort() int { return DefaultPort }

func (a *Adapter) Open(ctx context.Context, addr session.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.injected {
		if err := Healthcheck(a.transport)(ctx); err != nil {
			return session.BackendError(err)
		}
		return nil
	}

	scheme := a.cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	client, err := New(ctx, []string{scheme + "://" + addr.String()}, a.cfg)
	if err != nil {
		return session.BackendError(err)
	}
	a.transport = client
	return nil
}

// Close drops the client. The HTTP transport keeps no session state.
func (a *Adapter) Close(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.injected {
		a.transport = nil
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	tr, err := a.conn()
	if err != nil {
		return err
	}
	if err := Healthcheck(tr)(ctx); err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) Put(ctx context.Context, namespace, key string, value []byte, accessedAt time.Time) error {
	tr, err := a.conn()
	if err != nil {
		return err
	}

	index := a.indexName(namespace)
	if err := a.ensureIndex(ctx, tr, index); err != nil {
		return session.BackendError(err)
	}

	body, err := json.Marshal(document{Data: value, LastAccess: accessedAt.UnixMilli()})
	if err != nil {
		return session.BackendError(err)
	}

	res, err := opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: key,
		Body:       bytes.NewReader(body),
		Refresh:    a.cfg.Refresh,
	}.Do(ctx, tr)
	if err != nil {
		return session.BackendError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return session.BackendError(responseError(res))
	}
	return nil
}

// Get returns nil when the document or the index does not exist.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	tr, err := a.conn()
	if err != nil {
		return nil, err
	}

	res, err := opensearchapi.GetRequest{
		Index:      a.indexName(namespace),
		DocumentID: key,
	}.Do(ctx, tr)
	if err != nil {
		return nil, session.BackendError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, session.BackendError(responseError(res))
	}

	var got struct {
		Found  bool     `json:"found"`
		Source document `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		return nil, session.BackendError(err)
	}
	if !got.Found {
		return nil, nil
	}
	if got.Source.Data == nil {
		got.Source.Data = []byte{}
	}
	return got.Source.Data, nil
}

func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	tr, err := a.conn()
	if err != nil {
		return err
	}

	res, err := opensearchapi.DeleteRequest{
		Index:      a.indexName(namespace),
		DocumentID: key,
		Refresh:    a.cfg.Refresh,
	}.Do(ctx, tr)
	if err != nil {
		return session.BackendError(err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return session.BackendError(responseError(res))
	}
	return nil
}

// ExpiredKeys runs a range query on last_access and returns at most
// ScanLimit ids, sorted.
func (a *Adapter) ExpiredKeys(ctx context.Context, namespace string, before time.Time) ([]string, error) {
	tr, err := a.conn()
	if err != nil {
		return nil, err
	}

	query, err := json.Marshal(map[string]any{
		"_source": false,
		"query": map[string]any{
			"range": map[string]any{
				"last_access": map[string]any{"lt": before.UnixMilli()},
			},
		},
	})
	if err != nil {
		return nil, session.BackendError(err)
	}

	size := a.cfg.ScanLimit
	if size <= 0 {
		size = 1000
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{a.indexName(namespace)},
		Body:  bytes.NewReader(query),
		Size:  &size,
	}.Do(ctx, tr)
	if err != nil {
		return nil, session.BackendError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return []string{}, nil
	}
	if res.IsError() {
		return nil, session.BackendError(responseError(res))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, session.BackendError(err)
	}

	keys := make([]string, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		keys = append(keys, hit.ID)
	}
	slices.Sort(keys)
	return keys, nil
}

func (a *Adapter) indexName(namespace string) string {
	return strings.ToLower(a.cfg.IndexPrefix + namespace)
}

func (a *Adapter) conn() (opensearchapi.Transport, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.transport == nil {
		return nil, session.BackendError(ErrNotOpen)
	}
	return a.transport, nil
}

// ensureIndex creates index with the session mapping once per process.
// An index created concurrently by another node is fine.
func (a *Adapter) ensureIndex(ctx context.Context, tr opensearchapi.Transport, index string) error {
	if _, ok := a.indexed.Load(index); ok {
		return nil
	}

	res, err := opensearchapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, tr)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if !bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return errors.Join(ErrRequestFailed, fmt.Errorf("create index %s: %s: %s", index, res.Status(), body))
		}
	}

	a.indexed.Store(index, struct{}{})
	return nil
}

func responseError(res *opensearchapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return errors.Join(ErrRequestFailed, fmt.Errorf("%s: %s", res.Status(), bytes.TrimSpace(body)))
}
