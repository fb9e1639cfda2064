package service

import (
	"context"

	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/hooks"
)

// ResolveEvent flows through the inbound chain: the caller's best-guess
// site plus the raw request coordinates.
type ResolveEvent struct {
	Site *site.Site
	Host string
	Path string
}

// URLEvent flows through the outbound chain. Kind names the entry point the
// URL was built by (home, site, admin, login, network). SubPath and Scheme
// are the hints the platform passed to its URL builder; the built-in rewrite
// ignores them but layered interceptors may not.
type URLEvent struct {
	URL     string
	Kind    string
	SubPath string
	Scheme  string
	GroupID int64
	SiteID  int64
}

// RedirectEvent flows through the canonical chain.
type RedirectEvent struct {
	Proposed  string
	Requested string
	GroupID   int64
	SiteID    int64
}

// Router bundles the request-path services behind the platform's extension
// points. Each concern registers as a named interceptor on a chain, so the
// wiring is inspectable and extra interceptors can be layered around the
// built-in ones.
type Router struct {
	Inbound   *hooks.Chain[*ResolveEvent]
	Outbound  *hooks.Chain[*URLEvent]
	Canonical *hooks.Chain[*RedirectEvent]
	NotFound  *hooks.Chain[*RequestState]
}

// Priorities mirror the order the host platform runs its own routing: tenant
// resolution early, URL and redirect fixups after the default builders.
const (
	priorityResolve = 10
	priorityRewrite = 20
)

func NewRouter(resolver *ResolverService, rewriter *URLRewriter, canonical *CanonicalGuard, frontPage *FrontPageService) *Router {
	r := &Router{
		Inbound:   hooks.NewChain[*ResolveEvent](),
		Outbound:  hooks.NewChain[*URLEvent](),
		Canonical: hooks.NewChain[*RedirectEvent](),
		NotFound:  hooks.NewChain[*RequestState](),
	}

	r.Inbound.Register("nested_path_resolution", priorityResolve, func(ctx context.Context, e *ResolveEvent) *ResolveEvent {
		e.Site = resolver.ResolveSite(ctx, e.Site, e.Host, e.Path)
		return e
	})
	r.Outbound.Register("nested_url_rewrite", priorityRewrite, func(ctx context.Context, e *URLEvent) *URLEvent {
		e.URL = rewriter.Rewrite(ctx, e.URL, e.GroupID, e.SiteID)
		return e
	})
	r.Canonical.Register("nested_canonical_guard", priorityRewrite, func(ctx context.Context, e *RedirectEvent) *RedirectEvent {
		e.Proposed = canonical.Redirect(ctx, e.Proposed, e.Requested, e.GroupID, e.SiteID)
		return e
	})
	r.NotFound.Register("front_page_correction", priorityResolve, func(ctx context.Context, st *RequestState) *RequestState {
		return frontPage.Correct(ctx, st)
	})

	return r
}

// ResolveSiteForRequest runs the inbound chain and returns the site the
// request belongs to. current may be nil when shallower routing had no
// candidate.
func (r *Router) ResolveSiteForRequest(ctx context.Context, current *site.Site, host, path string) *site.Site {
	e := r.Inbound.Apply(ctx, &ResolveEvent{Site: current, Host: host, Path: path})
	return e.Site
}

// RewriteURL runs the outbound chain over a platform-built URL. When siteID
// is zero the current tenant from the context is used.
func (r *Router) RewriteURL(ctx context.Context, rawURL, kind string, groupID, siteID int64) string {
	e := r.ApplyOutbound(ctx, &URLEvent{URL: rawURL, Kind: kind, GroupID: groupID, SiteID: siteID})
	return e.URL
}

// ApplyOutbound runs a fully populated URL event through the outbound chain.
// A zero SiteID is filled from the current tenant in the context; without
// one the event passes through untouched.
func (r *Router) ApplyOutbound(ctx context.Context, e *URLEvent) *URLEvent {
	if e.SiteID == 0 {
		cur, ok := site.CurrentFromContext(ctx)
		if !ok {
			return e
		}
		e.SiteID = cur.ID
	}
	return r.Outbound.Apply(ctx, e)
}

// HomeURL and friends are the named outbound entry points. They all run the
// same chain; the kind travels with the event for interceptors that care.
func (r *Router) HomeURL(ctx context.Context, rawURL string, groupID, siteID int64) string {
	return r.RewriteURL(ctx, rawURL, "home", groupID, siteID)
}

func (r *Router) SiteURL(ctx context.Context, rawURL string, groupID, siteID int64) string {
	return r.RewriteURL(ctx, rawURL, "site", groupID, siteID)
}

func (r *Router) AdminURL(ctx context.Context, rawURL string, groupID, siteID int64) string {
	return r.RewriteURL(ctx, rawURL, "admin", groupID, siteID)
}

func (r *Router) LoginURL(ctx context.Context, rawURL string, groupID, siteID int64) string {
	return r.RewriteURL(ctx, rawURL, "login", groupID, siteID)
}

func (r *Router) NetworkSiteURL(ctx context.Context, rawURL string, groupID, siteID int64) string {
	return r.RewriteURL(ctx, rawURL, "network", groupID, siteID)
}

// CanonicalRedirect runs the canonical chain over a proposed redirect.
func (r *Router) CanonicalRedirect(ctx context.Context, proposed, requested string, groupID, siteID int64) string {
	e := r.Canonical.Apply(ctx, &RedirectEvent{
		Proposed: proposed, Requested: requested, GroupID: groupID, SiteID: siteID,
	})
	return e.Proposed
}

// HandleNotFound runs the not-found chain over a parsed request state.
func (r *Router) HandleNotFound(ctx context.Context, st *RequestState) *RequestState {
	return r.NotFound.Apply(ctx, st)
}
