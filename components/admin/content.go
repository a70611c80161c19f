package admin

import (
	"github.com/go-chi/chi/v5"

	"github.com/izonedevs/izonehub-api/components/content"
	"github.com/izonedevs/izonehub-api/internal/component"
	"github.com/izonedevs/izonehub-api/internal/resource"
)

// contentRoutes exposes moderation views: list and delete regardless of
// ownership.
func contentRoutes(d component.Deps, r chi.Router) {
	for path, t := range map[string]resource.Table{
		"/blog":     content.BlogPostTable,
		"/events":   content.EventTable,
		"/gallery":  content.GalleryTable,
		"/projects": content.ProjectTable,
	} {
		h := resource.New(d.DB, t, resource.Options{})
		r.Route(path, func(r chi.Router) {
			r.Get("/", h.List)
			r.Delete("/{id}", h.Delete)
		})
	}
}
