package httpapi

import "context"

// serverBaseCtx is canceled when the daemon begins shutting down. Streaming
// handlers join it with the request context so long-running pulls stop
// promptly on shutdown.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process lifetime context. Passing nil resets
// to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context canceled as soon as either parent is done.
// Callers must invoke the returned cancel to release the watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	joined, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
		case <-b.Done():
		case <-joined.Done():
		}
		cancel()
	}()
	return joined, cancel
}
