package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vue-dashboard-api/internal/config"
	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/http/handler"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
	"vue-dashboard-api/internal/service"
)

// newTestRouter wires the full HTTP surface against an in-memory database so
// route protection can be exercised end to end.
func newTestRouter(t *testing.T) (http.Handler, *service.AuthService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Role{},
		&domain.Permission{},
		&domain.PersonalAccessToken{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	roles := repository.NewRoleRepository(db)
	perms := repository.NewPermissionRepository(db)
	tokens := repository.NewTokenRepository(db)
	for _, name := range []string{"admin", "user"} {
		if err := roles.Create(&domain.Role{Name: name}); err != nil {
			t.Fatalf("seed role %s: %v", name, err)
		}
	}

	tokenSvc := service.NewTokenService(tokens, users, "router-test-pepper")
	abilitySvc := service.NewAbilityService()
	authSvc := service.NewAuthService(users, roles, tokenSvc, abilitySvc)
	userSvc := service.NewUserService(users, roles)
	roleSvc := service.NewRoleService(roles, perms, []string{"admin", "user"})
	dashSvc := service.NewDashboardService(users, roles, perms)
	sessions := security.NewSessionManager("0123456789abcdef0123456789abcdef", 0, "", false, "lax")
	avatars, err := service.NewAvatarStorage(&config.Config{AvatarStorageEnabled: false})
	if err != nil {
		t.Fatalf("avatar storage: %v", err)
	}

	for _, seed := range []struct{ name, email, role string }{
		{"Admin", "admin@example.com", "admin"},
		{"Viewer", "viewer@example.com", "user"},
	} {
		hash, err := security.HashPassword("secret123")
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		u := &domain.User{Name: seed.name, Email: seed.email, PasswordHash: hash}
		if err := users.Create(u); err != nil {
			t.Fatalf("create %s: %v", seed.email, err)
		}
		role, err := roles.FindByName(seed.role)
		if err != nil {
			t.Fatalf("find role: %v", err)
		}
		if err := users.AddRole(u.ID, role.ID); err != nil {
			t.Fatalf("add role: %v", err)
		}
	}

	h := NewRouter(Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, users, avatars, sessions),
		UserHandler:      handler.NewUserHandler(userSvc),
		RoleHandler:      handler.NewRoleHandler(roleSvc),
		DashboardHandler: handler.NewDashboardHandler(dashSvc),
		Tokens:           tokenSvc,
		Sessions:         sessions,
		Users:            userSvc,
		Abilities:        abilitySvc,
		CORSOrigins:      []string{"http://localhost:5173"},
		AuthRateLimitRPM: 100,
		APIRateLimitRPM:  1000,
	})
	return h, authSvc
}

func loginToken(t *testing.T, authSvc *service.AuthService, email string) string {
	t.Helper()
	res, err := authSvc.Login(email, "secret123")
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return res.Token
}

func TestHealthLive(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestHealthReadyWithoutProbe(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestLoginOverHTTP(t *testing.T) {
	h, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"admin@example.com","password":"secret123"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUserRoutesRequireAuthentication(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestUserRoutesEnforceAbilities(t *testing.T) {
	h, authSvc := newTestRouter(t)
	adminToken := loginToken(t, authSvc, "admin@example.com")
	viewerToken := loginToken(t, authSvc, "viewer@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin list: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+viewerToken)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer list: expected 403, got %d", rr.Code)
	}
}

func TestRoleRoutesRequireManageAll(t *testing.T) {
	h, authSvc := newTestRouter(t)
	adminToken := loginToken(t, authSvc, "admin@example.com")
	viewerToken := loginToken(t, authSvc, "viewer@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin roles: expected 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.Header.Set("Authorization", "Bearer "+viewerToken)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer roles: expected 403, got %d", rr.Code)
	}
}

func TestDashboardRoutesArePublic(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestSocialRoutesAbsentWhenDisabled(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with social login disabled, got %d", rr.Code)
	}
}
