package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"vue-dashboard-api/internal/http/response"
	"vue-dashboard-api/internal/observability"
	"vue-dashboard-api/internal/service"
)

type RoleHandler struct {
	roleSvc *service.RoleService
}

func NewRoleHandler(roleSvc *service.RoleService) *RoleHandler {
	return &RoleHandler{roleSvc: roleSvc}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleSvc.List()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "failed to list roles", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"data": roles})
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	role, err := h.roleSvc.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Error(w, r, http.StatusNotFound, "Role not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "failed to load role", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, role)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	role, err := h.roleSvc.Create(body.Name, body.Permissions)
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			observability.RecordAdminMutation(r.Context(), "role", "create", "validation_failed")
			response.ValidationFailed(w, r, ve.Fields)
			return
		}
		observability.RecordAdminMutation(r.Context(), "role", "create", "error")
		response.Error(w, r, http.StatusInternalServerError, "failed to create role", nil)
		return
	}

	observability.RecordAdminMutation(r.Context(), "role", "create", "success")
	observability.Audit(r, "admin.role_created", "role_id", role.ID, "name", role.Name)
	response.JSON(w, r, http.StatusCreated, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Name        string    `json:"name"`
		Permissions *[]string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	role, err := h.roleSvc.Update(id, body.Name, body.Permissions)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.Error(w, r, http.StatusNotFound, "Role not found", nil)
		default:
			if ve, ok := service.AsValidationError(err); ok {
				observability.RecordAdminMutation(r.Context(), "role", "update", "validation_failed")
				response.ValidationFailed(w, r, ve.Fields)
				return
			}
			observability.RecordAdminMutation(r.Context(), "role", "update", "error")
			response.Error(w, r, http.StatusInternalServerError, "failed to update role", nil)
		}
		return
	}

	observability.RecordAdminMutation(r.Context(), "role", "update", "success")
	observability.Audit(r, "admin.role_updated", "role_id", role.ID)
	response.JSON(w, r, http.StatusOK, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.roleSvc.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrProtectedRole):
			observability.RecordAdminMutation(r.Context(), "role", "delete", "protected_rejected")
			response.Error(w, r, http.StatusForbidden, "Default roles cannot be deleted.", nil)
		case errors.Is(err, service.ErrNotFound):
			response.Error(w, r, http.StatusNotFound, "Role not found", nil)
		default:
			observability.RecordAdminMutation(r.Context(), "role", "delete", "error")
			response.Error(w, r, http.StatusInternalServerError, "failed to delete role", nil)
		}
		return
	}

	observability.RecordAdminMutation(r.Context(), "role", "delete", "success")
	observability.Audit(r, "admin.role_deleted", "role_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Role deleted"})
}

// Permissions lists every known permission for the role editor's picker.
func (h *RoleHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.roleSvc.Permissions()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "failed to list permissions", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"data": perms})
}
