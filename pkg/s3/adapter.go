package s3

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultPort is the HTTPS port S3 endpoints listen on.
const DefaultPort = 443

const lastAccessMetadata = "last-access"

// Adapter keeps each session as the object <namespace>/<key>.
// S3 cannot be queried by access time, so ExpiredKeys is unsupported.
type Adapter struct {
	cfg Config

	mu       sync.RWMutex
	client   Client
	injected bool
}

// Compile-time interface checks
var (
	_ session.Adapter = (*Adapter)(nil)
	_ session.Pinger  = (*Adapter)(nil)
)

// NewAdapter creates an adapter that builds its client on Open.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{cfg: cfg}
}

// NewAdapterWithClient uses client for every call and only checks the bucket on Open.
func NewAdapterWithClient(client Client, cfg Config) *Adapter {
	return &Adapter{cfg: cfg, client: client, injected: true}
}

func (a *Adapter) Name() string     { return "s3" }
func (a *Adapter) DefaultPort() int { return DefaultPort }

func (a *Adapter) Open(ctx context.Context, addr session.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	client := a.client
	if !a.injected {
		scheme := a.cfg.Scheme
		if scheme == "" {
			scheme = "https"
		}
		c, err := NewClient(ctx, scheme+"://"+addr.String(), a.cfg)
		if err != nil {
			return session.BackendError(err)
		}
		client = c
	}

	if err := a.headBucket(ctx, client); err != nil {
		return session.BackendError(err)
	}

	a.client = client
	return nil
}

// Close drops the client; the SDK holds no long-lived connection state to release.
func (a *Adapter) Close(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.injected {
		a.client = nil
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	client, err := a.conn()
	if err != nil {
		return err
	}
	if err := a.headBucket(ctx, client); err != nil {
		return session.BackendError(err)
	}
	return nil
}

func (a *Adapter) Put(ctx context.Context, namespace, key string, value []byte, accessedAt time.Time) error {
	client, err := a.conn()
	if err != nil {
		return err
	}

	_, err = client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(objectKey(namespace, key)),
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
		ContentType:   aws.String("application/octet-stream"),
		Metadata: map[string]string{
			lastAccessMetadata: strconv.FormatInt(accessedAt.UnixMilli(), 10),
		},
	})
	if err != nil {
		return session.BackendError(classify(err, "put object"))
	}
	return nil
}

// Get returns nil when the object does not exist.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	client, err := a.conn()
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(objectKey(namespace, key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, session.BackendError(classify(err, "get object"))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, session.BackendError(err)
	}
	return data, nil
}

// Delete succeeds for missing objects, matching S3 semantics.
func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	client, err := a.conn()
	if err != nil {
		return err
	}

	_, err = client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(objectKey(namespace, key)),
	})
	if err != nil && !isNotFound(err) {
		return session.BackendError(classify(err, "delete object"))
	}
	return nil
}

func (a *Adapter) ExpiredKeys(context.Context, string, time.Time) ([]string, error) {
	return nil, session.ErrCapabilityUnsupported
}

func (a *Adapter) conn() (Client, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.client == nil {
		return nil, session.BackendError(ErrNotOpen)
	}
	return a.client, nil
}

func (a *Adapter) headBucket(ctx context.Context, client Client) error {
	if a.cfg.Bucket == "" {
		return ErrInvalidConfig
	}
	_, err := client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(a.cfg.Bucket)})
	if err != nil {
		return classify(err, "head bucket")
	}
	return nil
}

func objectKey(namespace, key string) string {
	return namespace + "/" + key
}
