package opensearch

import "errors"

var (
	// ErrConnectionFailed indicates the OpenSearch client could not be created.
	ErrConnectionFailed = errors.New("opensearch connection failed")

	// ErrHealthcheckFailed indicates the cluster is unreachable or unhealthy.
	ErrHealthcheckFailed = errors.New("opensearch healthcheck failed")

	// ErrRequestFailed wraps a non-2xx answer to a document or search request.
	ErrRequestFailed = errors.New("opensearch request failed")

	ErrNotOpen = errors.New("opensearch adapter is not open")
)
