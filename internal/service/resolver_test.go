package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ideai-platform/sitetree/internal/domain/site"
)

func newResolver(t *testing.T, f *fixture, subdirectory bool) *ResolverService {
	t.Helper()
	return NewResolverService(f.store, f.registry, testMetrics(t), testLogger(), subdirectory)
}

func TestResolverResolveSite(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.store.addSite(site.Site{ID: 2, GroupID: 1, InternalPath: "/child2/"})
		if _, err := f.registry.Upsert(ctx, 1, 2, "/parent1/child2/"); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		return f
	}
	guess := &site.Site{ID: 100, GroupID: 1}

	t.Run("registry match overrides the best guess", func(t *testing.T) {
		f := setup(t)
		got := newResolver(t, f, true).ResolveSite(ctx, guess, "example.com", "/parent1/child2/page")
		if got == nil || got.ID != 2 {
			t.Errorf("got %+v, want site 2", got)
		}
	})

	t.Run("no registry claim keeps the best guess", func(t *testing.T) {
		f := setup(t)
		got := newResolver(t, f, true).ResolveSite(ctx, guess, "example.com", "/unmapped")
		if got != guess {
			t.Errorf("got %+v, want the caller's guess", got)
		}
	})

	t.Run("subdomain mode is a pass-through", func(t *testing.T) {
		f := setup(t)
		got := newResolver(t, f, false).ResolveSite(ctx, guess, "example.com", "/parent1/child2/")
		if got != guess {
			t.Errorf("got %+v, want the caller's guess", got)
		}
	})

	t.Run("unknown host falls open", func(t *testing.T) {
		f := setup(t)
		got := newResolver(t, f, true).ResolveSite(ctx, guess, "other.test", "/parent1/child2/")
		if got != guess {
			t.Errorf("got %+v, want the caller's guess", got)
		}
	})

	t.Run("disabled group falls open", func(t *testing.T) {
		f := setup(t)
		f.store.flags[1] = site.Flags{Enabled: false, CollisionMode: site.CollisionModeStrict}
		got := newResolver(t, f, true).ResolveSite(ctx, guess, "example.com", "/parent1/child2/")
		if got != guess {
			t.Errorf("got %+v, want the caller's guess", got)
		}
	})

	t.Run("store failure falls open, never errors", func(t *testing.T) {
		f := setup(t)
		f.store.resolveErr = errors.New("connection refused")
		got := newResolver(t, f, true).ResolveSite(ctx, guess, "example.com", "/parent1/child2/")
		if got != guess {
			t.Errorf("got %+v, want the caller's guess", got)
		}
	})

	t.Run("nil guess stays nil on fail-open", func(t *testing.T) {
		f := setup(t)
		got := newResolver(t, f, true).ResolveSite(ctx, nil, "example.com", "/unmapped")
		if got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("mapping to a deleted site falls open", func(t *testing.T) {
		f := setup(t)
		if err := f.store.DeleteSite(ctx, 2); err != nil {
			t.Fatalf("DeleteSite: %v", err)
		}
		got := newResolver(t, f, true).ResolveSite(ctx, guess, "example.com", "/parent1/child2/")
		if got != guess {
			t.Errorf("got %+v, want the caller's guess", got)
		}
	})
}
