package s3

import "errors"

var (
	ErrInvalidConfig      = errors.New("s3: invalid configuration")
	ErrFailedToLoadConfig = errors.New("s3: failed to load AWS config")
	ErrBucketNotFound     = errors.New("s3: bucket not found")
	ErrAccessDenied       = errors.New("s3: access denied")
	ErrServiceUnavailable = errors.New("s3: service temporarily unavailable")
	ErrNotOpen            = errors.New("s3: adapter is not open")
)
