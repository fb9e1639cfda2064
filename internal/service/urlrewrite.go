package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ideai-platform/sitetree/internal/adapter/otel"
	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/database"
)

// URLRewriter fixes outbound URLs. Sites keep a flat internal path while the
// registry maps them to a nested public path; every URL the platform builds
// from the internal path has to be rewritten before it reaches a visitor.
// The rewriter never invents a URL: when it cannot place the internal path
// inside the given URL it returns the input unchanged.
type URLRewriter struct {
	store        database.Store
	registry     *RegistryService
	metrics      *otel.Metrics
	log          *slog.Logger
	subdirectory bool
}

func NewURLRewriter(store database.Store, registry *RegistryService, m *otel.Metrics, log *slog.Logger, subdirectory bool) *URLRewriter {
	return &URLRewriter{
		store:        store,
		registry:     registry,
		metrics:      m,
		log:          log,
		subdirectory: subdirectory,
	}
}

// Rewrite replaces siteID's internal path with its mapped nested path inside
// rawURL. Prefix match on the URL path is authoritative. When the URL was
// built from only the last segment of the internal path, a single splice of
// that segment is attempted as a fallback. Anything else passes through.
func (w *URLRewriter) Rewrite(ctx context.Context, rawURL string, groupID, siteID int64) string {
	if !w.subdirectory || rawURL == "" {
		return rawURL
	}

	flags, err := w.store.GetFlags(ctx, groupID)
	if err != nil || !flags.Enabled {
		return rawURL
	}

	mapped, err := w.registry.Path(ctx, groupID, siteID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			w.log.Debug("rewrite skipped, mapping lookup failed", "site_id", siteID, "error", err)
		}
		return rawURL
	}

	st, err := w.store.GetSite(ctx, siteID)
	if err != nil {
		return rawURL
	}
	internal := site.Normalize(st.InternalPath)
	if internal == "/" || internal == mapped {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Host != "" {
		group, gerr := w.store.GetGroup(ctx, groupID)
		if gerr == nil && group.Domain != "" && u.Hostname() != group.Domain {
			return rawURL
		}
	}

	// Already nested. Rewriting again would nest the path twice.
	if strings.Contains(u.Path+"/", mapped) {
		return rawURL
	}

	newPath, ok := splicePath(u.Path, internal, mapped)
	if !ok {
		seg := "/" + site.LastSegment(internal) + "/"
		idx := strings.Index(u.Path, seg)
		if idx < 0 {
			return rawURL
		}
		newPath = u.Path[:idx] + mapped + u.Path[idx+len(seg):]
		w.metrics.RewriteFallbacks.Add(ctx, 1)
		w.log.Debug("rewrite used segment fallback",
			"site_id", siteID, "url", rawURL, "segment", seg)
	}

	u.Path = newPath
	w.metrics.URLRewrites.Add(ctx, 1)
	return u.String()
}

// splicePath swaps the internal prefix of p for mapped. Both internal and
// mapped carry a trailing slash, so a bare "/internal" path (no trailing
// slash, no sub path) is handled as its own case.
func splicePath(p, internal, mapped string) (string, bool) {
	if strings.HasPrefix(p, internal) {
		return mapped + p[len(internal):], true
	}
	if p == strings.TrimSuffix(internal, "/") {
		return strings.TrimSuffix(mapped, "/"), true
	}
	return "", false
}
