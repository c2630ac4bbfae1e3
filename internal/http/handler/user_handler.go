package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/http/middleware"
	"vue-dashboard-api/internal/http/response"
	"vue-dashboard-api/internal/observability"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/service"
)

type UserHandler struct {
	userSvc *service.UserService
}

func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// List returns a page of users, optionally filtered by a name/email search.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := repository.UserListQuery{
		PageRequest: repository.PageRequest{
			Page:     queryInt(r, "page", repository.DefaultPage),
			PageSize: queryInt(r, "per_page", repository.DefaultPageSize),
		},
		Search: r.URL.Query().Get("search"),
	}
	page, err := h.userSvc.List(q)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "failed to list users", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, response.NewPaginator(page.Items, page.Page, page.PageSize, page.Total, page.TotalPages))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := h.userSvc.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "User not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "failed to load user", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": userDetail(user)})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string   `json:"name"`
		Email    string   `json:"email"`
		Password string   `json:"password"`
		Roles    []string `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	user, err := h.userSvc.Create(service.CreateUserInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Roles:    body.Roles,
	})
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			observability.RecordAdminMutation(r.Context(), "user", "create", "validation_failed")
			response.ValidationFailed(w, r, ve.Fields)
			return
		}
		observability.RecordAdminMutation(r.Context(), "user", "create", "error")
		response.Error(w, r, http.StatusInternalServerError, "failed to create user", nil)
		return
	}

	observability.RecordAdminMutation(r.Context(), "user", "create", "success")
	observability.Audit(r, "admin.user_created", "user_id", user.ID, "email", user.Email)
	response.JSON(w, r, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    userDetail(user),
	})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Name  string    `json:"name"`
		Email string    `json:"email"`
		Roles *[]string `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	user, err := h.userSvc.Update(id, service.UpdateUserInput{
		Name:  body.Name,
		Email: body.Email,
		Roles: body.Roles,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Error(w, r, http.StatusNotFound, "User not found", nil)
		default:
			if ve, ok := service.AsValidationError(err); ok {
				observability.RecordAdminMutation(r.Context(), "user", "update", "validation_failed")
				response.ValidationFailed(w, r, ve.Fields)
				return
			}
			observability.RecordAdminMutation(r.Context(), "user", "update", "error")
			response.Error(w, r, http.StatusInternalServerError, "failed to update user", nil)
		}
		return
	}

	observability.RecordAdminMutation(r.Context(), "user", "update", "success")
	observability.Audit(r, "admin.user_updated", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    userDetail(user),
	})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	if err := h.userSvc.Delete(id, caller.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDelete):
			observability.RecordAdminMutation(r.Context(), "user", "delete", "self_delete_rejected")
			response.Error(w, r, http.StatusForbidden, "You cannot delete your own account.", nil)
		case errors.Is(err, service.ErrNotFound):
			response.Error(w, r, http.StatusNotFound, "User not found", nil)
		default:
			observability.RecordAdminMutation(r.Context(), "user", "delete", "error")
			response.Error(w, r, http.StatusInternalServerError, "failed to delete user", nil)
		}
		return
	}

	observability.RecordAdminMutation(r.Context(), "user", "delete", "success")
	observability.Audit(r, "admin.user_deleted", "user_id", id, "deleted_by", caller.ID)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// userDetail flattens role names next to the user row for the edit form.
type userView struct {
	domain.User
	RoleNames []string `json:"role_names"`
	Role      string   `json:"role"`
}

func userDetail(u *domain.User) userView {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return userView{User: *u, RoleNames: names, Role: u.PrimaryRole()}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.Error(w, r, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
