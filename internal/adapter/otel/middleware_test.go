package otel

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPMiddlewarePassesRequestsThrough(t *testing.T) {
	var gotPaths []string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	handler := HTTPMiddleware("sitetree")(next)

	for _, path := range []string{"/health", "/api/v1/resolve"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
	if len(gotPaths) != 2 {
		t.Fatalf("expected 2 requests to reach the handler, got %d", len(gotPaths))
	}
}
