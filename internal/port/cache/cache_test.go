package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ideai-platform/sitetree/internal/port/cache"
)

// memCache is a minimal in-memory Cache used to validate the suite itself.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var _ cache.Cache = (*memCache)(nil)

func TestComplianceSuite(t *testing.T) {
	RunComplianceTests(t, &memCache{data: map[string][]byte{}})
}

// RunComplianceTests runs the standard compliance test suite against any
// Cache implementation. Keys mirror the resolver's cache layout.
func RunComplianceTests(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "g1.resolve.3f2e9a", []byte(`{"site_id":3,"path":"/a/b/"}`), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "g1.resolve.3f2e9a")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != `{"site_id":3,"path":"/a/b/"}` {
			t.Fatalf("unexpected value %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "g1.resolve.missing")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "g1.site.9.path", []byte("/a/"), time.Minute)
		if err := c.Delete(ctx, "g1.site.9.path"); err != nil {
			t.Fatal(err)
		}
		_, found, err := c.Get(ctx, "g1.site.9.path")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "g1.site.404.path"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "g1.site.2.path", []byte("/old/"), time.Minute)
		_ = c.Set(ctx, "g1.site.2.path", []byte("/new/"), time.Minute)
		val, found, err := c.Get(ctx, "g1.site.2.path")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != "/new/" {
			t.Fatalf("expected /new/ after overwrite, got %s", val)
		}
	})
}
