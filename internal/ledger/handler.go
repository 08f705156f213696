// AngelaMos | 2026
// handler.go

package ledger

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/artistry/internal/artwork"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/entitlement"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me/favorites", h.ListFavorites)
		r.Post("/me/favorites/toggle", h.ToggleFavorite)
		r.Put("/me/favorites/{artworkID}", h.AddFavorite)
		r.Delete("/me/favorites/{artworkID}", h.RemoveFavorite)
		r.Get("/me/downloads", h.ListDownloads)
	})
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req ToggleFavoriteRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, core.InvalidBodyMessage)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, "Valid artwork ID is required")
		return
	}

	isFavorite, err := h.service.ToggleFavorite(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
		req.ArtworkID,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, FavoriteResponse{
		Success:    true,
		Message:    favoriteMessage(isFavorite),
		IsFavorite: isFavorite,
	})
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

func (h *Handler) setFavorite(w http.ResponseWriter, r *http.Request, want bool) {
	artworkID, ok := core.PathID(r, "artworkID")
	if !ok {
		core.BadRequest(w, "Valid artwork ID is required")
		return
	}

	err := h.service.SetFavorite(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
		artworkID,
		want,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, FavoriteResponse{
		Success:    true,
		Message:    favoriteMessage(want),
		IsFavorite: want,
	})
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Favorites(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, FavoritesResponse{
		Success:   true,
		Favorites: artwork.ToResponseList(items),
	})
}

func (h *Handler) ListDownloads(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Downloads(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, DownloadsResponse{
		Success:   true,
		Downloads: ToDownloadResponseList(entries),
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "Authentication required")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "Valid artwork ID is required")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "Artwork")
	default:
		core.InternalServerError(w, err)
	}
}
