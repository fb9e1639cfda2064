// Package middleware provides HTTP middleware for sitetree.
package middleware

import (
	"context"
	"net/http"
	"strconv"
)

// DefaultGroupID is the hosting group assumed when no X-Group-ID header is set.
const DefaultGroupID int64 = 1

const headerGroupID = "X-Group-ID"

type groupCtxKey struct{}

// GroupID is middleware that extracts the hosting-group ID from the
// X-Group-ID header and stores it in the request context. Falls back to
// DefaultGroupID when the header is absent or malformed.
func GroupID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gid := DefaultGroupID
		if raw := r.Header.Get(headerGroupID); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
				gid = n
			}
		}
		ctx := context.WithValue(r.Context(), groupCtxKey{}, gid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GroupIDFromContext returns the group ID stored in ctx, or DefaultGroupID if absent.
func GroupIDFromContext(ctx context.Context) int64 {
	if gid, ok := ctx.Value(groupCtxKey{}).(int64); ok {
		return gid
	}
	return DefaultGroupID
}
