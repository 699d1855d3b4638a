package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principalID"

// PrincipalIDFromContext returns the authenticated principal id, or 0 when absent.
func PrincipalIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if id, ok := ctx.Value(ContextPrincipalKey).(int64); ok {
		return id
	}
	return 0
}

func ContextWithPrincipalID(ctx context.Context, principalID int64) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, principalID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
