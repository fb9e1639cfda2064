package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ideai-platform/sitetree/internal/middleware"
)

// MountRoutes registers the admin API and the sitemap on the given router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.With(middleware.GroupID).Get("/sitemap.xml", h.GetSitemap)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.GroupID)

		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Path registry
		r.Get("/mappings", h.ListMappings)
		r.Get("/mappings/{siteID}", h.GetMapping)
		r.Put("/mappings/{siteID}", h.UpsertMapping)
		r.Delete("/mappings/{siteID}", h.DeleteMapping)

		// Resolution and collision checks
		r.Get("/resolve", h.ResolvePath)
		r.Get("/collisions", h.CheckCollision)

		// Site provisioning
		r.Post("/sites", h.CreateSite)
		r.Get("/sites/{id}", h.GetSite)

		// Maintenance
		r.Post("/sync", h.SyncInternalPaths)
		r.Get("/flags", h.GetFlags)
		r.Put("/flags", h.SetFlags)

		// Views
		r.Get("/tree", h.GetTree)
	})
}
