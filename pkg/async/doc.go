// Package async runs a function in the background and exposes its result as a
// typed Future.
//
//	f := async.Async(ctx, conn, func(ctx context.Context, c *Conn) (struct{}, error) {
//		return struct{}{}, c.Close(ctx)
//	})
//	if _, err := f.AwaitWithTimeout(3 * time.Second); errors.Is(err, async.ErrTimeout) {
//		log.Warn("close still running")
//	}
//
// Waiting with a timeout never cancels the computation; pass a cancelable
// context to fn when it must stop.
package async
