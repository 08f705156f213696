// AngelaMos | 2026
// handler.go

package artwork

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public catalog. optionalAuth attaches the caller
// when a token is sent so favorites can be flagged. download, when non-nil,
// is mounted under the artwork id.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	optionalAuth func(http.Handler) http.Handler,
	download http.Handler,
) {
	r.Route("/artwork", func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/", h.List)
		r.Get("/featured", h.Featured)
		r.Get("/filters", h.Filters)
		r.Get("/{artworkID}", h.Get)

		if download != nil {
			r.Method(http.MethodGet, "/{artworkID}/download", download)
		}
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := ListParams{
		Page:     core.QueryInt(r, "page", 1),
		PerPage:  core.QueryInt(r, "per_page", 0),
		Category: q.Get("category"),
		Style:    q.Get("style"),
		Sort:     q.Get("sort"),
	}

	page, err := h.service.List(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
		params,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ListResponse{
		Success:     true,
		Artwork:     ToResponseList(page.Items),
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		PerPage:     page.PerPage,
	})
}

func (h *Handler) Featured(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Featured(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, FeaturedResponse{Success: true, Artwork: ToResponseList(items)})
}

func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Filters(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, FiltersResponse{Success: true, Facets: *facets})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := core.PathID(r, "artworkID")
	if !ok {
		core.BadRequest(w, "Valid artwork ID is required")
		return
	}

	art, err := h.service.Get(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
		id,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "Artwork")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, DetailResponse{Success: true, Artwork: ToResponse(art)})
}
