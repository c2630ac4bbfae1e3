// Package response centralizes the JSON shapes the SPA frontend expects.
// Error bodies follow the {"message": ..., "errors": {field: [msgs]}} form
// the frontend's interceptors already parse.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func Error(w http.ResponseWriter, r *http.Request, status int, message string, fields map[string][]string) {
	JSON(w, r, status, errorBody{Message: message, Errors: fields})
}

// ValidationFailed renders a 422 with per-field messages.
func ValidationFailed(w http.ResponseWriter, r *http.Request, fields map[string][]string) {
	Error(w, r, http.StatusUnprocessableEntity, "The given data was invalid.", fields)
}

// Unauthorized renders the login failure body the frontend surfaces under
// the email field.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusUnauthorized, "Unauthorized", map[string][]string{
		"email": {"Invalid email or password"},
	})
}

// Paginator mirrors the page envelope the user table component consumes.
type Paginator[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

func NewPaginator[T any](items []T, page, pageSize int, total int64, lastPage int) Paginator[T] {
	if items == nil {
		items = []T{}
	}
	return Paginator[T]{
		Data:        items,
		CurrentPage: page,
		PerPage:     pageSize,
		Total:       total,
		LastPage:    lastPage,
	}
}
