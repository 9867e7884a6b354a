package opensearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// Healthcheck returns a probe calling the cluster info endpoint.
func Healthcheck(transport opensearchapi.Transport) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := opensearchapi.InfoRequest{ErrorTrace: true}.Do(ctx, transport)
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		defer res.Body.Close()

		if res.IsError() {
			return errors.Join(ErrHealthcheckFailed, fmt.Errorf("cluster info returned %s", res.Status()))
		}
		return nil
	}
}
