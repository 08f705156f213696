// AngelaMos | 2026
// handler.go

package entitlement

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type Response struct {
	Success      bool  `json:"success"`
	Entitlements Grant `json:"entitlements"`
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Get("/me/entitlements", h.Get)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	grant, err := h.service.Resolve(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, Response{Success: true, Entitlements: grant})
}

// CallerFromContext lifts the authenticated user id, if any, out of the
// request context.
func CallerFromContext(ctx context.Context) Caller {
	return Caller{UserID: middleware.GetUserID(ctx)}
}
