package redis

import "errors"

var (
	ErrRedisNotReady     = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed = errors.New("redis healthcheck failed")
	ErrNotOpen           = errors.New("redis adapter is not open")
)
