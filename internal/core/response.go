// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Success     bool `json:"success"`
	Data        any  `json:"data"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"total_pages"`
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Message writes the {success, message} shape used by state-changing routes.
func Message(w http.ResponseWriter, message string) {
	OK(w, MessageResponse{Success: true, Message: message})
}

func Paginated(
	w http.ResponseWriter,
	data any,
	page, perPage, total int,
) {
	OK(w, PaginatedResponse{
		Success:     true,
		Data:        data,
		Total:       total,
		TotalPages:  TotalPages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	})
}

// TotalPages is ceil(total/perPage), zero when there is nothing to page.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

func JSONError(w http.ResponseWriter, err error) {
	if appErr, ok := IsAppError(err); ok {
		JSON(w, appErr.StatusCode, ErrorResponse{
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	InternalServerError(w, err)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, ValidationError(message))
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSONError(w, UnauthorizedError(message))
}

func Forbidden(w http.ResponseWriter, message string) {
	JSONError(w, ForbiddenError(message))
}

func NotFound(w http.ResponseWriter, resource string) {
	JSONError(w, NotFoundError(resource))
}

func Conflict(w http.ResponseWriter, message string) {
	JSONError(w, ConflictError(message))
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Message: "Method not allowed",
		Code:    "METHOD_NOT_ALLOWED",
	})
}

func RouteNotFound(w http.ResponseWriter, _ *http.Request) {
	NotFound(w, "Route")
}

// InternalServerError logs the cause and answers with a generic message.
func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)

	JSON(w, http.StatusInternalServerError, ErrorResponse{
		Message: "An error occurred. Please try again later.",
		Code:    "INTERNAL_ERROR",
	})
}
