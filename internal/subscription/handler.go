// AngelaMos | 2026
// handler.go

package subscription

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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
	r.Route("/me/subscription", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Get)
		r.Post("/", h.Subscribe)
		r.Post("/cancel", h.Cancel)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller := entitlement.CallerFromContext(r.Context())

	active, err := h.service.Active(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	history, err := h.service.History(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := OverviewResponse{
		Success: true,
		History: ToResponseList(history),
	}
	if active != nil {
		a := ToResponse(active)
		resp.Active = &a
	}

	core.OK(w, resp)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, core.InvalidBodyMessage)
		return
	}

	sub, err := h.service.Subscribe(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, SubscribeResponse{
		Success:      true,
		Message:      "Payment processed successfully",
		Subscription: ToResponse(sub),
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, core.InvalidBodyMessage)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, "Valid subscription ID is required")
		return
	}

	err := h.service.Cancel(
		r.Context(),
		entitlement.CallerFromContext(r.Context()),
		req.SubscriptionID,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Message(w, "Subscription cancelled successfully. Premium access has ended.")
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingFields):
		core.BadRequest(w, "Payment method and plan are required")
	case errors.Is(err, ErrInvalidPaymentMethod):
		core.BadRequest(w, "Invalid payment method")
	case errors.Is(err, ErrInvalidPlan):
		core.BadRequest(w, "Invalid subscription plan")
	case errors.Is(err, ErrInvalidSubscriptionID):
		core.BadRequest(w, "Valid subscription ID is required")
	case errors.Is(err, ErrAlreadySubscribed):
		core.Conflict(w, "You already have an active subscription")
	case errors.Is(err, ErrNotActive):
		core.Conflict(w, "Subscription is not active")
	case errors.Is(err, ErrBusy):
		core.Conflict(w, "Another subscription change is in progress, try again")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "Authentication required")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "Subscription")
	default:
		core.InternalServerError(w, err)
	}
}
