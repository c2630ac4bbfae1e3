package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/http/middleware"
	"vue-dashboard-api/internal/http/response"
	"vue-dashboard-api/internal/observability"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
	"vue-dashboard-api/internal/service"
)

// userData is the user shape the SPA stores after login.
type userData struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

type authPayload struct {
	AccessToken      string           `json:"accessToken,omitempty"`
	TokenType        string           `json:"token_type,omitempty"`
	UserData         userData         `json:"userData"`
	UserAbilityRules []domain.Ability `json:"userAbilityRules"`
}

func newUserData(u *domain.User) userData {
	return userData{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
		Role:   u.PrimaryRole(),
	}
}

func newAuthPayload(res *service.AuthResult) authPayload {
	p := authPayload{
		UserData:         newUserData(res.User),
		UserAbilityRules: res.Abilities,
	}
	if res.Token != "" {
		p.AccessToken = res.Token
		p.TokenType = "Bearer"
	}
	return p
}

type AuthHandler struct {
	authSvc  *service.AuthService
	userRepo repository.UserRepository
	avatars  service.AvatarStorage
	sessions *security.SessionManager
}

func NewAuthHandler(authSvc *service.AuthService, userRepo repository.UserRepository, avatars service.AvatarStorage, sessions *security.SessionManager) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userRepo: userRepo, avatars: avatars, sessions: sessions}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Remember bool   `json:"remember_me"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		observability.RecordAuthLogin(r.Context(), "password", "bad_request")
		response.Error(w, r, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	res, err := h.authSvc.Login(body.Email, body.Password)
	observability.RecordAuthRequestDuration(r.Context(), "login", statusLabel(err), time.Since(start))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			observability.RecordAuthLogin(r.Context(), "password", "invalid_credentials")
			response.Unauthorized(w, r)
			return
		}
		observability.RecordAuthLogin(r.Context(), "password", "error")
		response.Error(w, r, http.StatusInternalServerError, "login failed", nil)
		return
	}

	observability.RecordAuthLogin(r.Context(), "password", "success")
	observability.RecordTokenEvent(r.Context(), "issued")
	observability.Audit(r, "auth.login", "user_id", res.User.ID, "email", res.User.Email)
	response.JSON(w, r, http.StatusOK, newAuthPayload(res))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"c_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		observability.RecordAuthRegister(r.Context(), "bad_request")
		response.Error(w, r, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	res, err := h.authSvc.Register(body.Name, body.Email, body.Password, body.PasswordConfirmation)
	observability.RecordAuthRequestDuration(r.Context(), "register", statusLabel(err), time.Since(start))
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			observability.RecordAuthRegister(r.Context(), "validation_failed")
			response.ValidationFailed(w, r, ve.Fields)
			return
		}
		observability.RecordAuthRegister(r.Context(), "error")
		response.Error(w, r, http.StatusInternalServerError, "registration failed", nil)
		return
	}

	observability.RecordAuthRegister(r.Context(), "success")
	observability.RecordTokenEvent(r.Context(), "issued")
	observability.Audit(r, "auth.register", "user_id", res.User.ID, "email", res.User.Email)
	response.JSON(w, r, http.StatusCreated, newAuthPayload(res))
}

// Me returns the authenticated user with freshly resolved abilities.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, newAuthPayload(h.authSvc.Profile(user)))
}

// Logout revokes every token the user holds, not just the presented one, and
// ends any social-login browser session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}
	if h.sessions != nil {
		h.sessions.ClearSessionCookie(w)
	}
	if err := h.authSvc.Logout(user.ID); err != nil {
		observability.RecordAuthLogout(r.Context(), "error")
		response.Error(w, r, http.StatusInternalServerError, "logout failed", nil)
		return
	}
	observability.RecordAuthLogout(r.Context(), "success")
	observability.RecordTokenEvent(r.Context(), "revoked_all")
	observability.Audit(r, "auth.logout", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Logged out"})
}

// UploadAvatar stores a new avatar image and persists its URL on the user.
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.ValidationFailed(w, r, map[string][]string{"avatar": {"The avatar field is required."}})
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.avatars.UploadAvatar(r.Context(), user.ID, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooBig):
			observability.RecordAvatarStorageEvent(r.Context(), "upload", "rejected_too_big")
			response.ValidationFailed(w, r, map[string][]string{"avatar": {"The avatar may not be greater than 5 megabytes."}})
		case errors.Is(err, service.ErrInvalidFileType):
			observability.RecordAvatarStorageEvent(r.Context(), "upload", "rejected_type")
			response.ValidationFailed(w, r, map[string][]string{"avatar": {"The avatar must be a JPEG or PNG image."}})
		case errors.Is(err, service.ErrStorageDisabled):
			observability.RecordAvatarStorageEvent(r.Context(), "upload", "disabled")
			response.Error(w, r, http.StatusServiceUnavailable, "avatar storage is not available", nil)
		default:
			observability.RecordAvatarStorageEvent(r.Context(), "upload", "error")
			response.Error(w, r, http.StatusInternalServerError, "avatar upload failed", nil)
		}
		return
	}

	previous := user.Avatar
	user.Avatar = url
	if err := h.userRepo.Update(user); err != nil {
		observability.RecordAvatarStorageEvent(r.Context(), "upload", "error")
		response.Error(w, r, http.StatusInternalServerError, "avatar upload failed", nil)
		return
	}

	// Best effort: the replaced object is unreachable either way once the
	// user row points at the new URL.
	if previous != "" && previous != url {
		if err := h.avatars.DeleteAvatar(r.Context(), previous); err != nil {
			observability.RecordAvatarStorageEvent(r.Context(), "delete", "error")
		} else {
			observability.RecordAvatarStorageEvent(r.Context(), "delete", "deleted")
		}
	}

	observability.RecordAvatarStorageEvent(r.Context(), "upload", "uploaded")
	observability.Audit(r, "auth.avatar_uploaded", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, map[string]string{"avatar": url})
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
