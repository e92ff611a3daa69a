package contextutil

import (
	"context"
	"time"
)

// DefaultTimeout bounds calls that have no timeout of their own.
var DefaultTimeout = 30 * time.Second

// WithTimeout returns ctx bounded by timeout, or by DefaultTimeout when none
// is given.
func WithTimeout(ctx context.Context, timeout ...time.Duration) (context.Context, context.CancelFunc) {
	t := DefaultTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		t = timeout[0]
	}
	return context.WithTimeout(ctx, t)
}

// WithPingTimeout bounds a liveness check (5 seconds).
func WithPingTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

// WithAdminTimeout bounds shutdown, kill and database create/drop calls
// (30 seconds).
func WithAdminTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 30*time.Second)
}
