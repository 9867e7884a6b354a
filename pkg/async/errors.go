package async

import "errors"

// ErrTimeout is returned by AwaitWithTimeout when the future did not complete in time.
var ErrTimeout = errors.New("async.timeout")
