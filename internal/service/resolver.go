package service

import (
	"context"
	"log/slog"

	"github.com/ideai-platform/sitetree/internal/adapter/otel"
	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/database"
)

// ResolverService sits on the inbound request path and decides which tenant
// site should serve a request. It never returns an error: routing a request
// to the platform's current best guess beats failing the request, so every
// failure mode falls open to the candidate the caller already has.
type ResolverService struct {
	store        database.Store
	registry     *RegistryService
	metrics      *otel.Metrics
	log          *slog.Logger
	subdirectory bool
}

func NewResolverService(store database.Store, registry *RegistryService, m *otel.Metrics, log *slog.Logger, subdirectory bool) *ResolverService {
	return &ResolverService{
		store:        store,
		registry:     registry,
		metrics:      m,
		log:          log,
		subdirectory: subdirectory,
	}
}

// ResolveSite maps (host, requestPath) to the owning site. current is the
// caller's best guess from shallower routing; it is returned unchanged when
// the group is unknown, nested resolution is disabled for it, the registry
// has no claim on the path, or any lookup fails. When the registry does
// claim the path its answer wins even if current disagrees.
func (s *ResolverService) ResolveSite(ctx context.Context, current *site.Site, host, requestPath string) *site.Site {
	if !s.subdirectory {
		return current
	}

	group, err := s.store.GetGroupByDomain(ctx, host)
	if err != nil {
		s.failOpen(ctx, "unknown group domain", host, requestPath, err)
		return current
	}

	flags, err := s.store.GetFlags(ctx, group.ID)
	if err != nil {
		s.failOpen(ctx, "flags lookup failed", host, requestPath, err)
		return current
	}
	if !flags.Enabled {
		return current
	}

	res, err := s.registry.Resolve(ctx, group.ID, requestPath)
	if err != nil {
		s.failOpen(ctx, "registry resolve failed", host, requestPath, err)
		return current
	}
	if res == nil {
		return current
	}

	resolved, err := s.store.GetSite(ctx, res.SiteID)
	if err != nil {
		s.failOpen(ctx, "resolved site missing", host, requestPath, err)
		return current
	}

	if current != nil && current.ID != resolved.ID {
		s.log.Debug("registry overrides platform routing",
			"host", host, "path", requestPath,
			"platform_site_id", current.ID, "registry_site_id", resolved.ID)
	}
	s.log.Debug("request routed", "host", host, "path", requestPath,
		"site_id", resolved.ID, "mapped_path", res.Path)
	return resolved
}

func (s *ResolverService) failOpen(ctx context.Context, reason, host, path string, err error) {
	s.metrics.ResolveFailOpens.Add(ctx, 1)
	s.log.Debug("resolution fell open", "reason", reason, "host", host, "path", path, "error", err)
}
