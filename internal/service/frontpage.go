package service

import (
	"context"
	"log/slog"

	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/port/database"
)

// RequestState is the parsed shape of a request after platform routing:
// which site it landed on, what the router made of the path, and whether it
// came up empty. The front-page correction mutates a copy of this.
type RequestState struct {
	GroupID  int64
	Site     *site.Site
	Path     string
	PageName string
	NotFound bool
	IsHome   bool
}

// FrontPageService repairs a routing artifact on nested sites: a request for
// the root of a mapped subtree reaches the right site, but the platform's
// parser has already consumed the nested segments as a page name and flagged
// the request as not found. The correction rewrites the state to the site's
// front page. Running it on an already corrected state changes nothing.
type FrontPageService struct {
	store    database.Store
	registry *RegistryService
	log      *slog.Logger
}

func NewFrontPageService(store database.Store, registry *RegistryService, log *slog.Logger) *FrontPageService {
	return &FrontPageService{store: store, registry: registry, log: log}
}

// Correct returns the adjusted request state. The input is not modified.
func (f *FrontPageService) Correct(ctx context.Context, in *RequestState) *RequestState {
	if in == nil || in.Site == nil {
		return in
	}

	flags, err := f.store.GetFlags(ctx, in.GroupID)
	if err != nil || !flags.Enabled {
		return in
	}

	mapped, err := f.registry.Path(ctx, in.GroupID, in.Site.ID)
	if err != nil {
		return in
	}
	if site.Normalize(in.Path) != mapped {
		return in
	}

	out := *in
	out.NotFound = false
	out.IsHome = true
	out.PageName = ""
	if out.IsHome == in.IsHome && out.NotFound == in.NotFound && out.PageName == in.PageName {
		return in
	}
	f.log.Debug("front page corrected",
		"site_id", in.Site.ID, "path", in.Path, "mapped_path", mapped)
	return &out
}
