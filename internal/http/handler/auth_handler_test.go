package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vue-dashboard-api/internal/config"
	"vue-dashboard-api/internal/security"
	"vue-dashboard-api/internal/service"
)

func newAuthHandler(t *testing.T, env *handlerEnv) *AuthHandler {
	t.Helper()
	avatars, err := service.NewAvatarStorage(&config.Config{AvatarStorageEnabled: false})
	if err != nil {
		t.Fatalf("avatar storage: %v", err)
	}
	sessions := security.NewSessionManager("0123456789abcdef0123456789abcdef", time.Hour, "", false, "lax")
	return NewAuthHandler(env.authSvc, env.users, avatars, sessions)
}

func TestLoginReturnsTokenAndAbilities(t *testing.T) {
	env := newHandlerEnv(t)
	env.createUser(t, "Admin", "admin@example.com", "secret123", "admin")
	h := newAuthHandler(t, env)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"secret123"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		AccessToken string `json:"accessToken"`
		TokenType   string `json:"token_type"`
		UserData    struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"userData"`
		UserAbilityRules []struct {
			Action  string `json:"action"`
			Subject string `json:"subject"`
		} `json:"userAbilityRules"`
	}
	decodeBody(t, rr, &body)

	if body.AccessToken == "" || !strings.Contains(body.AccessToken, "|") {
		t.Fatalf("expected opaque token, got %q", body.AccessToken)
	}
	if body.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", body.TokenType)
	}
	if body.UserData.Email != "admin@example.com" || body.UserData.Role != "admin" {
		t.Fatalf("unexpected user data: %+v", body.UserData)
	}
	var hasManageAll bool
	for _, rule := range body.UserAbilityRules {
		if rule.Action == "manage" && rule.Subject == "all" {
			hasManageAll = true
		}
	}
	if !hasManageAll {
		t.Fatalf("expected manage/all rule for admin, got %+v", body.UserAbilityRules)
	}
}

func TestLoginFailureBodyShape(t *testing.T) {
	env := newHandlerEnv(t)
	env.createUser(t, "Admin", "admin@example.com", "secret123", "admin")
	h := newAuthHandler(t, env)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	decodeBody(t, rr, &body)
	if body.Message != "Unauthorized" {
		t.Fatalf("expected Unauthorized message, got %q", body.Message)
	}
	if got := body.Errors["email"]; len(got) != 1 || got[0] != "Invalid email or password" {
		t.Fatalf("unexpected email errors: %v", got)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	env := newHandlerEnv(t)
	h := newAuthHandler(t, env)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("not-json"))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRegisterCreatesUserWithDefaultRole(t *testing.T) {
	env := newHandlerEnv(t)
	h := newAuthHandler(t, env)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"New User","email":"new@example.com","password":"secret123","c_password":"secret123"}`))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		AccessToken string `json:"accessToken"`
		UserData    struct {
			Role string `json:"role"`
		} `json:"userData"`
	}
	decodeBody(t, rr, &body)
	if body.AccessToken == "" {
		t.Fatal("expected access token on registration")
	}
	if body.UserData.Role != "user" {
		t.Fatalf("expected default user role, got %q", body.UserData.Role)
	}
}

func TestRegisterValidationFailure(t *testing.T) {
	env := newHandlerEnv(t)
	h := newAuthHandler(t, env)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"","email":"not-an-email","password":"secret123","c_password":"different"}`))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	decodeBody(t, rr, &body)
	if body.Message != "The given data was invalid." {
		t.Fatalf("unexpected message: %q", body.Message)
	}
	for _, field := range []string{"name", "email", "c_password"} {
		if len(body.Errors[field]) == 0 {
			t.Fatalf("expected error for %s, got %v", field, body.Errors)
		}
	}
}

func TestMeOmitsAccessToken(t *testing.T) {
	env := newHandlerEnv(t)
	user := env.createUser(t, "Viewer", "viewer@example.com", "secret123", "user")
	h := newAuthHandler(t, env)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/user", nil), user)
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	decodeBody(t, rr, &body)
	if _, present := body["accessToken"]; present {
		t.Fatal("profile response must not mint a token")
	}
	userData, ok := body["userData"].(map[string]any)
	if !ok || userData["email"] != "viewer@example.com" {
		t.Fatalf("unexpected userData: %v", body["userData"])
	}
}

func TestLogoutRevokesAllTokens(t *testing.T) {
	env := newHandlerEnv(t)
	user := env.createUser(t, "Admin", "admin@example.com", "secret123", "admin")
	h := newAuthHandler(t, env)

	res, err := env.authSvc.Login("admin@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil), user)
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if _, err := env.tokenSvc.Authenticate(res.Token); err == nil {
		t.Fatal("expected token to be revoked after logout")
	}
	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared on logout")
	}
}

func TestUploadAvatarRequiresFile(t *testing.T) {
	env := newHandlerEnv(t)
	user := env.createUser(t, "Viewer", "viewer@example.com", "secret123", "user")
	h := newAuthHandler(t, env)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.Close()

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/auth/avatar", &buf), user)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.UploadAvatar(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

// recordingAvatarStorage accepts every upload and tracks which URLs were
// deleted.
type recordingAvatarStorage struct {
	url     string
	deleted []string
}

func (s *recordingAvatarStorage) UploadAvatar(context.Context, uint, io.Reader, int64) (string, error) {
	return s.url, nil
}

func (s *recordingAvatarStorage) DeleteAvatar(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

func TestUploadAvatarRemovesReplacedObject(t *testing.T) {
	env := newHandlerEnv(t)
	user := env.createUser(t, "Viewer", "viewer@example.com", "secret123", "user")
	oldURL := "http://cdn.example/avatars/user-1/old.png"
	user.Avatar = oldURL
	if err := env.users.Update(user); err != nil {
		t.Fatalf("seed avatar: %v", err)
	}

	store := &recordingAvatarStorage{url: "http://cdn.example/avatars/user-1/new.png"}
	sessions := security.NewSessionManager("0123456789abcdef0123456789abcdef", time.Hour, "", false, "lax")
	h := NewAuthHandler(env.authSvc, env.users, store, sessions)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("\x89PNG\r\n\x1a\nfakeimagedata")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.Close()

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/auth/avatar", &buf), user)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.UploadAvatar(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Avatar string `json:"avatar"`
	}
	decodeBody(t, rr, &body)
	if body.Avatar != store.url {
		t.Fatalf("expected new avatar URL, got %q", body.Avatar)
	}
	if len(store.deleted) != 1 || store.deleted[0] != oldURL {
		t.Fatalf("expected replaced avatar to be deleted, got %v", store.deleted)
	}
}

func TestUploadAvatarStorageDisabled(t *testing.T) {
	env := newHandlerEnv(t)
	user := env.createUser(t, "Viewer", "viewer@example.com", "secret123", "user")
	h := newAuthHandler(t, env)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("\x89PNG\r\n\x1a\nfakeimagedata")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.Close()

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/auth/avatar", &buf), user)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.UploadAvatar(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with storage disabled, got %d", rr.Code)
	}
}
