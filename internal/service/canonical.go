package service

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/ideai-platform/sitetree/internal/domain/site"
)

// CanonicalGuard intercepts proposed canonical redirects. The platform's
// canonicalizer only knows internal paths, so on a nested site it keeps
// proposing redirects back to the flat internal URL; the guard rewrites
// those proposals to the nested form instead of letting the visitor bounce
// off the mapped path.
type CanonicalGuard struct {
	rewriter *URLRewriter
	log      *slog.Logger
}

func NewCanonicalGuard(rewriter *URLRewriter, log *slog.Logger) *CanonicalGuard {
	return &CanonicalGuard{rewriter: rewriter, log: log}
}

// Redirect takes the proposed redirect target and the URL that was actually
// requested and returns the target to use. An empty proposal (no redirect)
// stays empty. A proposal that would move the visitor to a different host
// is not ours to second guess and passes through untouched.
func (g *CanonicalGuard) Redirect(ctx context.Context, proposed, requested string, groupID, siteID int64) string {
	if proposed == "" {
		return ""
	}

	pu, err := url.Parse(proposed)
	if err != nil {
		return proposed
	}
	ru, err := url.Parse(requested)
	if err == nil && pu.Host != "" && ru.Host != "" && pu.Hostname() != ru.Hostname() {
		return proposed
	}

	rewritten := g.rewriter.Rewrite(ctx, proposed, groupID, siteID)
	if rewritten == proposed {
		return proposed
	}

	// Redirecting to the URL that was requested is a loop, not a fix.
	if wu, err := url.Parse(rewritten); err == nil && ru != nil &&
		site.Normalize(wu.Path) == site.Normalize(ru.Path) {
		g.log.Debug("canonical redirect suppressed, already at target",
			"requested", requested, "proposed", proposed)
		return ""
	}

	g.log.Debug("canonical redirect rewritten",
		"proposed", proposed, "rewritten", rewritten)
	return rewritten
}
