package service

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ideai-platform/sitetree/internal/adapter/otel"
	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/cache"
	"github.com/ideai-platform/sitetree/internal/port/database"
)

// RegistryService owns the path registry: the mapping between tenant sites
// and their nested public paths. All writes go through Upsert so the
// per-group uniqueness invariants and the collision guard hold everywhere.
type RegistryService struct {
	store      database.Store
	cache      cache.Cache
	metrics    *otel.Metrics
	log        *slog.Logger
	resolveTTL time.Duration
	pathTTL    time.Duration
}

func NewRegistryService(store database.Store, c cache.Cache, m *otel.Metrics, log *slog.Logger, resolveTTL, pathTTL time.Duration) *RegistryService {
	return &RegistryService{
		store:      store,
		cache:      c,
		metrics:    m,
		log:        log,
		resolveTTL: resolveTTL,
		pathTTL:    pathTTL,
	}
}

// Cache keys are dot separated because NATS KV subjects reject colons.
// Request paths are hashed so arbitrary user input never leaks into a key.
func pathKey(groupID, siteID int64) string {
	return fmt.Sprintf("g%d.site.%d.path", groupID, siteID)
}

func resolveKey(groupID int64, requestPath string) string {
	return fmt.Sprintf("g%d.resolve.%x", groupID, md5.Sum([]byte(requestPath)))
}

// Upsert registers path as the nested path of siteID inside groupID. It is
// last-writer-wins on both sides of the uniqueness constraint: an existing
// mapping for the site and an existing mapping at the path are both replaced
// in the same transaction. The root path stays reserved for the group's
// primary site, and in strict collision mode a published content page at the
// same relative path blocks the write.
func (s *RegistryService) Upsert(ctx context.Context, groupID, siteID int64, rawPath string) (*site.PathMapping, error) {
	path := site.Normalize(rawPath)
	ctx, span := otel.StartUpsertSpan(ctx, groupID, siteID, path)
	defer span.End()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group %d: %w", groupID, err)
	}
	if path == "/" && siteID != group.PrimarySiteID {
		return nil, fmt.Errorf("%w: root path is reserved for the primary site", domain.ErrValidation)
	}

	if path != "/" {
		flags, err := s.store.GetFlags(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("load flags for group %d: %w", groupID, err)
		}
		if flags.CollisionMode == site.CollisionModeStrict {
			exists, err := s.store.PageExistsAtPath(ctx, groupID, strings.Trim(path, "/"))
			if err != nil {
				return nil, fmt.Errorf("collision check for %q: %w", path, err)
			}
			if exists {
				s.metrics.UpsertsBlocked.Add(ctx, 1)
				s.log.Warn("mapping blocked by content page",
					"group_id", groupID, "site_id", siteID, "path", path)
				return nil, fmt.Errorf("%w: %q", domain.ErrCollision, path)
			}
		}
	}

	m, err := s.store.ReplaceMapping(ctx, site.PathMapping{
		GroupID: groupID,
		SiteID:  siteID,
		Path:    path,
	})
	if err != nil {
		return nil, fmt.Errorf("replace mapping: %w", err)
	}

	s.invalidate(ctx, groupID, siteID, path)
	s.log.Info("path mapping upserted", "group_id", groupID, "site_id", siteID, "path", path)
	return m, nil
}

// invalidate drops the cache entries an upsert can make stale. Resolution
// entries for other request paths age out on their short TTL instead of
// being enumerated.
func (s *RegistryService) invalidate(ctx context.Context, groupID, siteID int64, path string) {
	for _, key := range []string{pathKey(groupID, siteID), resolveKey(groupID, path)} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.Warn("cache invalidation failed", "key", key, "error", err)
		}
	}
}

// Path returns the nested path mapped to siteID, or domain.ErrNotFound when
// the site has no mapping. Positive results are cached; misses are not, a
// miss is a management-path lookup and stays cheap in the store.
func (s *RegistryService) Path(ctx context.Context, groupID, siteID int64) (string, error) {
	key := pathKey(groupID, siteID)
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return string(data), nil
	}

	m, err := s.store.GetMappingBySite(ctx, groupID, siteID)
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, key, []byte(m.Path), s.pathTTL); err != nil {
		s.log.Warn("cache set failed", "key", key, "error", err)
	}
	return m.Path, nil
}

// Resolve answers "which site owns this request path" with deepest-prefix
// semantics. A nil resolution with a nil error means no mapping claims the
// path; that outcome is cached too, since most request paths on a busy
// group miss the registry.
func (s *RegistryService) Resolve(ctx context.Context, groupID int64, requestPath string) (*site.Resolution, error) {
	ctx, span := otel.StartResolveSpan(ctx, groupID, requestPath)
	defer span.End()

	path := site.Normalize(requestPath)
	key := resolveKey(groupID, path)

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var res *site.Resolution
		if err := json.Unmarshal(data, &res); err == nil {
			if res == nil {
				s.metrics.ResolveMisses.Add(ctx, 1)
			} else {
				s.metrics.ResolveHits.Add(ctx, 1)
			}
			return res, nil
		}
	}

	start := time.Now()
	res, err := s.store.ResolvePath(ctx, groupID, path)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	s.metrics.ResolveDuration.Record(ctx, time.Since(start).Seconds())

	if errors.Is(err, domain.ErrNotFound) {
		res = nil
	}
	if data, err := json.Marshal(res); err == nil {
		if err := s.cache.Set(ctx, key, data, s.resolveTTL); err != nil {
			s.log.Warn("cache set failed", "key", key, "error", err)
		}
	}

	if res == nil {
		s.metrics.ResolveMisses.Add(ctx, 1)
		return nil, nil
	}
	s.metrics.ResolveHits.Add(ctx, 1)
	return res, nil
}

// List returns every mapping in the group ordered shallow to deep.
func (s *RegistryService) List(ctx context.Context, groupID int64) ([]site.PathMapping, error) {
	return s.store.ListMappings(ctx, groupID)
}

// Delete removes a site's mapping. The root mapping is never deleted; the
// primary site must stay reachable.
func (s *RegistryService) Delete(ctx context.Context, groupID, siteID int64) error {
	m, err := s.store.GetMappingBySite(ctx, groupID, siteID)
	if err != nil {
		return err
	}
	if m.Path == "/" {
		return fmt.Errorf("%w: root mapping cannot be deleted", domain.ErrValidation)
	}
	if err := s.store.DeleteMapping(ctx, groupID, siteID); err != nil {
		return err
	}
	s.invalidate(ctx, groupID, siteID, m.Path)
	s.log.Info("path mapping deleted", "group_id", groupID, "site_id", siteID, "path", m.Path)
	return nil
}

// PagePublishBlocked reports whether publishing a content page at
// permalinkPath would shadow an existing site mapping. Only an exact match
// blocks; a page deeper than a mapped site is still that site's content.
func (s *RegistryService) PagePublishBlocked(ctx context.Context, groupID int64, permalinkPath string) (bool, error) {
	path := site.Normalize(permalinkPath)
	if path == "/" {
		return false, nil
	}
	res, err := s.Resolve(ctx, groupID, path)
	if err != nil {
		return false, err
	}
	return res != nil && res.Path == path, nil
}

// Sync walks every mapping in the group and rewrites the owning site's
// internal path to match the registry. Divergence between the two is legal
// at runtime; Sync is the explicit reconciliation step for operators who
// want them aligned. Returns the number of sites updated.
func (s *RegistryService) Sync(ctx context.Context, groupID int64) (int, error) {
	mappings, err := s.store.ListMappings(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("list mappings: %w", err)
	}

	updated := 0
	for _, m := range mappings {
		st, err := s.store.GetSite(ctx, m.SiteID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.log.Warn("mapping points at missing site", "group_id", groupID, "site_id", m.SiteID)
				continue
			}
			return updated, fmt.Errorf("load site %d: %w", m.SiteID, err)
		}
		if site.Normalize(st.InternalPath) == m.Path {
			continue
		}
		if err := s.store.UpdateSiteInternalPath(ctx, m.SiteID, m.Path); err != nil {
			return updated, fmt.Errorf("update site %d: %w", m.SiteID, err)
		}
		updated++
		s.log.Info("internal path synced", "group_id", groupID, "site_id", m.SiteID, "path", m.Path)
	}
	return updated, nil
}
