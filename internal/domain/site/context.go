package site

import "context"

type currentKey struct{}

// WithCurrent returns a context carrying s as the current tenant site.
// Callers that need a different tenant for a bounded operation derive a
// child context instead of mutating shared state.
func WithCurrent(ctx context.Context, s *Site) context.Context {
	return context.WithValue(ctx, currentKey{}, s)
}

// CurrentFromContext returns the current tenant site, if one is set.
func CurrentFromContext(ctx context.Context) (*Site, bool) {
	s, ok := ctx.Value(currentKey{}).(*Site)
	return s, ok && s != nil
}
