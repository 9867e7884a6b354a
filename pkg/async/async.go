package async

import (
	"context"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Async runs fn in a new goroutine and returns its Future. A context that is
// already canceled completes the future with ctx.Err() without calling fn.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Await blocks until the computation completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout waits at most timeout and returns ErrTimeout when the
// computation is still running. The computation itself keeps going.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// AwaitContext waits until the computation completes or ctx is done.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// Done is closed once the computation completes.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports completion without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
