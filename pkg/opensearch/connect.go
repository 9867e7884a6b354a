package opensearch

import (
	"context"
	"errors"

	"github.com/opensearch-project/opensearch-go/v2"
)

// New creates a client for addresses and verifies the cluster answers.
func New(ctx context.Context, addresses []string, cfg Config) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	if err := Healthcheck(client)(ctx); err != nil {
		return nil, err
	}

	return client, nil
}
