package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/ideai-platform/sitetree/internal/domain/site"
)

func newRouterFixture(t *testing.T) (*fixture, *Router) {
	t.Helper()
	ctx := context.Background()
	f := newFixture(t)
	f.store.addSite(site.Site{ID: 2, GroupID: 1, Domain: "example.com", InternalPath: "/child2/"})
	if _, err := f.registry.Upsert(ctx, 1, 2, "/parent1/child2/"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	resolver := NewResolverService(f.store, f.registry, testMetrics(t), testLogger(), true)
	rewriter := NewURLRewriter(f.store, f.registry, testMetrics(t), testLogger(), true)
	guard := NewCanonicalGuard(rewriter, testLogger())
	front := NewFrontPageService(f.store, f.registry, testLogger())
	return f, NewRouter(resolver, rewriter, guard, front)
}

func TestRouterWiring(t *testing.T) {
	_, r := newRouterFixture(t)

	for chain, want := range map[string][]string{
		"inbound":   {"nested_path_resolution"},
		"outbound":  {"nested_url_rewrite"},
		"canonical": {"nested_canonical_guard"},
		"notfound":  {"front_page_correction"},
	} {
		var got []string
		switch chain {
		case "inbound":
			got = r.Inbound.Names()
		case "outbound":
			got = r.Outbound.Names()
		case "canonical":
			got = r.Canonical.Names()
		case "notfound":
			got = r.NotFound.Names()
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s chain = %v, want %v", chain, got, want)
		}
	}
}

func TestRouterEndToEnd(t *testing.T) {
	ctx := context.Background()
	f, r := newRouterFixture(t)

	guess, _ := f.store.GetSite(ctx, 100)
	resolved := r.ResolveSiteForRequest(ctx, guess, "example.com", "/parent1/child2/about")
	if resolved == nil || resolved.ID != 2 {
		t.Fatalf("resolved = %+v, want site 2", resolved)
	}

	home := r.HomeURL(ctx, "https://example.com/child2/", 1, resolved.ID)
	if home != "https://example.com/parent1/child2/" {
		t.Errorf("home = %q", home)
	}
	admin := r.AdminURL(ctx, "https://example.com/child2/wp-admin/", 1, resolved.ID)
	if admin != "https://example.com/parent1/child2/wp-admin/" {
		t.Errorf("admin = %q", admin)
	}

	redirect := r.CanonicalRedirect(ctx,
		"https://example.com/child2/about/",
		"https://example.com/parent1/child2/other",
		1, resolved.ID)
	if redirect != "https://example.com/parent1/child2/about/" {
		t.Errorf("redirect = %q", redirect)
	}

	state := r.HandleNotFound(ctx, &RequestState{
		GroupID: 1, Site: resolved, Path: "/parent1/child2/", NotFound: true,
	})
	if state.NotFound || !state.IsHome {
		t.Errorf("state = %+v, want front page", state)
	}
}

func TestRouterCurrentTenantFromContext(t *testing.T) {
	ctx := context.Background()
	f, r := newRouterFixture(t)
	cur, _ := f.store.GetSite(ctx, 2)

	t.Run("zero site id uses the context tenant", func(t *testing.T) {
		tctx := site.WithCurrent(ctx, cur)
		got := r.SiteURL(tctx, "https://example.com/child2/page/", 1, 0)
		if got != "https://example.com/parent1/child2/page/" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("no context tenant passes through", func(t *testing.T) {
		in := "https://example.com/child2/page/"
		if got := r.SiteURL(ctx, in, 1, 0); got != in {
			t.Errorf("got %q, want input unchanged", got)
		}
	})
}
