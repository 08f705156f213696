// AngelaMos | 2026
// handler.go

package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/middleware"
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

		r.Get("/me", h.GetAccount)
		r.Put("/me", h.UpdateAccount)
	})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, AccountResponse{Success: true, User: ToUserResponse(user)})
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UpdateAccountRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, core.InvalidBodyMessage)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, accountValidationMessage(err))
		return
	}

	user, err := h.service.UpdateAccount(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, AccountResponse{
		Success: true,
		Message: "Account information updated successfully",
		User:    ToUserResponse(user),
	})
}

func accountValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return "Name and email are required"
		case "email":
			return "Valid email is required"
		}
	}
	return core.FormatValidationError(err)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmailInUse):
		core.Conflict(w, "Email address is already in use")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "Name and email are required")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "Authentication required")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "User")
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/role", h.UpdateUserRole)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Tier:     r.URL.Query().Get("tier"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := core.PathID(r, "userID")
	if !ok {
		core.BadRequest(w, "Valid user ID is required")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, AccountResponse{Success: true, User: ToUserResponse(user)})
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := core.PathID(r, "userID")
	if !ok {
		core.BadRequest(w, "Valid user ID is required")
		return
	}

	var req UpdateUserRoleRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.BadRequest(w, core.InvalidBodyMessage)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUserRole(r.Context(), userID, req.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}

	core.OK(w, AccountResponse{
		Success: true,
		Message: "Role updated",
		User:    ToUserResponse(user),
	})
}
