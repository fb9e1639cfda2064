package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/database"
	"github.com/ideai-platform/sitetree/internal/port/queue"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ProvisionService creates new sites under a parent path: site record with a
// flat internal path, registry mapping at the nested path, and a deferred
// homepage setup job. The mapping write is the gate; if it fails the site
// record is rolled back so no site exists without a mapping.
type ProvisionService struct {
	store    database.Store
	registry *RegistryService
	queue    queue.Queue
	log      *slog.Logger
	maxDepth int
}

func NewProvisionService(store database.Store, registry *RegistryService, q queue.Queue, log *slog.Logger, maxDepth int) *ProvisionService {
	return &ProvisionService{
		store:    store,
		registry: registry,
		queue:    q,
		log:      log,
		maxDepth: maxDepth,
	}
}

func (p *ProvisionService) Create(ctx context.Context, req site.CreateRequest) (*site.Site, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("%w: slug must be lowercase letters, digits and hyphens", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	group, err := p.store.GetGroup(ctx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("load group %d: %w", req.GroupID, err)
	}

	nested := site.Normalize(req.ParentPath + "/" + slug)
	if depth := site.Depth(nested); depth > p.maxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds maximum %d", domain.ErrValidation, depth, p.maxDepth)
	}

	// Exact-match check only. A parent owning the prefix is the normal case,
	// not a conflict.
	if res, err := p.registry.Resolve(ctx, req.GroupID, nested); err != nil {
		return nil, fmt.Errorf("check path %q: %w", nested, err)
	} else if res != nil && res.Path == nested {
		return nil, fmt.Errorf("%w: a site already exists at %q", domain.ErrValidation, nested)
	}

	st, err := p.store.CreateSite(ctx, &site.Site{
		GroupID:      req.GroupID,
		Domain:       group.Domain,
		InternalPath: "/" + slug + "/",
		Title:        req.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}

	if _, err := p.registry.Upsert(ctx, req.GroupID, st.ID, nested); err != nil {
		if derr := p.store.DeleteSite(ctx, st.ID); derr != nil {
			p.log.Error("rollback of orphaned site failed", "site_id", st.ID, "error", derr)
		}
		return nil, fmt.Errorf("map site %d to %q: %w", st.ID, nested, err)
	}

	p.publish(ctx, queue.SubjectHomepageSetup, queue.HomepageSetupPayload{
		JobID:   uuid.NewString(),
		GroupID: req.GroupID,
		SiteID:  st.ID,
		Path:    nested,
	})
	p.publish(ctx, queue.SubjectSiteProvisioned, queue.SiteProvisionedPayload{
		GroupID: req.GroupID,
		SiteID:  st.ID,
		Path:    nested,
	})

	p.log.Info("site provisioned",
		"group_id", req.GroupID, "site_id", st.ID, "path", nested, "slug", slug)
	return st, nil
}

// publish failures do not fail provisioning; the homepage job is cosmetic
// and Sync can repair titles later.
func (p *ProvisionService) publish(ctx context.Context, subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Warn("payload marshal failed", "subject", subject, "error", err)
		return
	}
	if err := p.queue.Publish(ctx, subject, data); err != nil {
		p.log.Warn("publish failed", "subject", subject, "error", err)
	}
}
