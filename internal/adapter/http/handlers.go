package http

import (
	"errors"
	"net/http"

	"github.com/ideai-platform/sitetree/internal/domain"
	"github.com/ideai-platform/sitetree/internal/domain/site"
	"github.com/ideai-platform/sitetree/internal/middleware"
	"github.com/ideai-platform/sitetree/internal/port/database"
	"github.com/ideai-platform/sitetree/internal/service"
)

// Handlers bundles the services exposed over the admin API.
type Handlers struct {
	Store     database.Store
	Registry  *service.RegistryService
	Provision *service.ProvisionService
	Tree      *service.TreeService
	Sitemap   *service.SitemapService
	Router    *service.Router
}

// --- Mappings ---

func (h *Handlers) ListMappings(w http.ResponseWriter, r *http.Request) {
	groupID := middleware.GroupIDFromContext(r.Context())
	mappings, err := h.Registry.List(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	if mappings == nil {
		mappings = []site.PathMapping{}
	}
	writeJSON(w, http.StatusOK, mappings)
}

type upsertMappingRequest struct {
	Path string `json:"path"`
}

func (h *Handlers) UpsertMapping(w http.ResponseWriter, r *http.Request) {
	siteID, ok := int64Param(w, r, "siteID")
	if !ok {
		return
	}
	req, ok := readJSON[upsertMappingRequest](w, r)
	if !ok {
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	groupID := middleware.GroupIDFromContext(r.Context())
	m, err := h.Registry.Upsert(r.Context(), groupID, siteID, req.Path)
	if err != nil {
		writeDomainError(w, err, "site or group not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handlers) GetMapping(w http.ResponseWriter, r *http.Request) {
	siteID, ok := int64Param(w, r, "siteID")
	if !ok {
		return
	}
	groupID := middleware.GroupIDFromContext(r.Context())
	path, err := h.Registry.Path(r.Context(), groupID, siteID)
	if err != nil {
		writeDomainError(w, err, "site has no mapping")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"site_id": siteID, "path": path})
}

func (h *Handlers) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	siteID, ok := int64Param(w, r, "siteID")
	if !ok {
		return
	}
	groupID := middleware.GroupIDFromContext(r.Context())
	if err := h.Registry.Delete(r.Context(), groupID, siteID); err != nil {
		writeDomainError(w, err, "site has no mapping")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Resolution ---

func (h *Handlers) ResolvePath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	groupID := middleware.GroupIDFromContext(r.Context())
	res, err := h.Registry.Resolve(r.Context(), groupID, path)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "no site claims this path")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CheckCollision reports whether publishing a content page at the given path
// would shadow a mapped site.
func (h *Handlers) CheckCollision(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	groupID := middleware.GroupIDFromContext(r.Context())
	blocked, err := h.Registry.PagePublishBlocked(r.Context(), groupID, path)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "blocked": blocked})
}

// --- Sites ---

func (h *Handlers) CreateSite(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[site.CreateRequest](w, r)
	if !ok {
		return
	}
	req.GroupID = middleware.GroupIDFromContext(r.Context())
	st, err := h.Provision.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handlers) GetSite(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	st, err := h.Store.GetSite(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "site not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- Maintenance ---

func (h *Handlers) SyncInternalPaths(w http.ResponseWriter, r *http.Request) {
	groupID := middleware.GroupIDFromContext(r.Context())
	updated, err := h.Registry.Sync(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

func (h *Handlers) GetFlags(w http.ResponseWriter, r *http.Request) {
	groupID := middleware.GroupIDFromContext(r.Context())
	flags, err := h.Store.GetFlags(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

func (h *Handlers) SetFlags(w http.ResponseWriter, r *http.Request) {
	flags, ok := readJSON[site.Flags](w, r)
	if !ok {
		return
	}
	if flags.CollisionMode == "" {
		flags.CollisionMode = site.CollisionModeStrict
	}
	if flags.CollisionMode != site.CollisionModeStrict {
		writeError(w, http.StatusBadRequest, "unsupported collision mode")
		return
	}
	groupID := middleware.GroupIDFromContext(r.Context())
	if err := h.Store.SetFlags(r.Context(), groupID, flags); err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, flags)
}

// --- Views ---

func (h *Handlers) GetTree(w http.ResponseWriter, r *http.Request) {
	groupID := middleware.GroupIDFromContext(r.Context())
	root, err := h.Tree.Tree(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, err, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (h *Handlers) GetSitemap(w http.ResponseWriter, r *http.Request) {
	groupID := middleware.GroupIDFromContext(r.Context())
	out, err := h.Sitemap.XML(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeDomainError(w, err, "group not found")
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
