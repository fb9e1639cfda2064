package logger

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID stores the request correlation ID. The HTTP middleware and
// the queue subscriber both stamp it, so log lines from a resolution and any
// jobs it enqueued share one ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation ID, or an empty string when the context
// carries none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
