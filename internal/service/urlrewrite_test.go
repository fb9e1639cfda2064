package service

import (
	"context"
	"testing"

	"github.com/ideai-platform/sitetree/internal/domain/site"
)

func newRewriter(t *testing.T, f *fixture) *URLRewriter {
	t.Helper()
	return NewURLRewriter(f.store, f.registry, testMetrics(t), testLogger(), true)
}

func rewriteFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := newFixture(t)
	f.store.addSite(site.Site{ID: 2, GroupID: 1, Domain: "example.com", InternalPath: "/child2/"})
	if _, err := f.registry.Upsert(ctx, 1, 2, "/parent1/child2/"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return f
}

func TestURLRewriterRewrite(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"internal prefix is replaced",
			"https://example.com/child2/some/page/",
			"https://example.com/parent1/child2/some/page/",
		},
		{
			"bare internal path without trailing slash",
			"https://example.com/child2",
			"https://example.com/parent1/child2",
		},
		{
			"query and fragment survive",
			"https://example.com/child2/wp-admin/?page=settings#tab",
			"https://example.com/parent1/child2/wp-admin/?page=settings#tab",
		},
		{
			"relative URL",
			"/child2/feed/",
			"/parent1/child2/feed/",
		},
		{
			"last segment fallback",
			"https://example.com/extra/child2/login/",
			"https://example.com/extra/parent1/child2/login/",
		},
		{
			"foreign host passes through",
			"https://cdn.other.net/child2/asset.css",
			"https://cdn.other.net/child2/asset.css",
		},
		{
			"internal path absent passes through",
			"https://example.com/unrelated/page/",
			"https://example.com/unrelated/page/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := rewriteFixture(t)
			got := newRewriter(t, f).Rewrite(ctx, tt.in, 1, 2)
			if got != tt.want {
				t.Errorf("Rewrite(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("already nested is idempotent", func(t *testing.T) {
		f := rewriteFixture(t)
		w := newRewriter(t, f)
		once := w.Rewrite(ctx, "https://example.com/child2/page/", 1, 2)
		twice := w.Rewrite(ctx, once, 1, 2)
		if once != twice {
			t.Errorf("second rewrite changed the URL: %q -> %q", once, twice)
		}
	})

	t.Run("disabled group passes through", func(t *testing.T) {
		f := rewriteFixture(t)
		f.store.flags[1] = site.Flags{Enabled: false, CollisionMode: site.CollisionModeStrict}
		in := "https://example.com/child2/page/"
		if got := newRewriter(t, f).Rewrite(ctx, in, 1, 2); got != in {
			t.Errorf("got %q, want input unchanged", got)
		}
	})

	t.Run("unmapped site passes through", func(t *testing.T) {
		f := rewriteFixture(t)
		f.store.addSite(site.Site{ID: 9, GroupID: 1, InternalPath: "/nine/"})
		in := "https://example.com/nine/page/"
		if got := newRewriter(t, f).Rewrite(ctx, in, 1, 9); got != in {
			t.Errorf("got %q, want input unchanged", got)
		}
	})

	t.Run("mapping equals internal path passes through", func(t *testing.T) {
		f := rewriteFixture(t)
		f.store.addSite(site.Site{ID: 5, GroupID: 1, InternalPath: "/flat/"})
		if _, err := f.registry.Upsert(ctx, 1, 5, "/flat/"); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		in := "https://example.com/flat/page/"
		if got := newRewriter(t, f).Rewrite(ctx, in, 1, 5); got != in {
			t.Errorf("got %q, want input unchanged", got)
		}
	})
}

func TestCanonicalGuardRedirect(t *testing.T) {
	ctx := context.Background()

	newGuard := func(t *testing.T, f *fixture) *CanonicalGuard {
		return NewCanonicalGuard(newRewriter(t, f), testLogger())
	}

	t.Run("internal proposal is rewritten to the nested form", func(t *testing.T) {
		f := rewriteFixture(t)
		got := newGuard(t, f).Redirect(ctx,
			"https://example.com/child2/about/",
			"https://example.com/parent1/child2/about",
			1, 2)
		// The rewritten target matches what was requested, so no redirect.
		if got != "" {
			t.Errorf("got %q, want suppressed redirect", got)
		}
	})

	t.Run("rewritten target differing from request is kept", func(t *testing.T) {
		f := rewriteFixture(t)
		got := newGuard(t, f).Redirect(ctx,
			"https://example.com/child2/about/",
			"https://example.com/parent1/child2/other",
			1, 2)
		if got != "https://example.com/parent1/child2/about/" {
			t.Errorf("got %q, want nested about URL", got)
		}
	})

	t.Run("empty proposal stays empty", func(t *testing.T) {
		f := rewriteFixture(t)
		if got := newGuard(t, f).Redirect(ctx, "", "https://example.com/x", 1, 2); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})

	t.Run("cross host redirect passes through", func(t *testing.T) {
		f := rewriteFixture(t)
		in := "https://other.test/child2/about/"
		got := newGuard(t, f).Redirect(ctx, in, "https://example.com/parent1/child2/about", 1, 2)
		if got != in {
			t.Errorf("got %q, want %q", got, in)
		}
	})

	t.Run("proposal the rewriter cannot place passes through", func(t *testing.T) {
		f := rewriteFixture(t)
		in := "https://example.com/somewhere/else/"
		got := newGuard(t, f).Redirect(ctx, in, "https://example.com/parent1/child2/", 1, 2)
		if got != in {
			t.Errorf("got %q, want %q", got, in)
		}
	})
}
