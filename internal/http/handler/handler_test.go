package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/http/middleware"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
	"vue-dashboard-api/internal/service"
)

const testTokenPepper = "handler-test-pepper"

type handlerEnv struct {
	users repository.UserRepository
	roles repository.RoleRepository
	perms repository.PermissionRepository

	tokenSvc   *service.TokenService
	abilitySvc *service.AbilityService
	authSvc    *service.AuthService
	userSvc    *service.UserService
	roleSvc    *service.RoleService
	dashSvc    *service.DashboardService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
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

	env := &handlerEnv{
		users: repository.NewUserRepository(db),
		roles: repository.NewRoleRepository(db),
		perms: repository.NewPermissionRepository(db),
	}
	for _, name := range []string{"admin", "manager", "user"} {
		if err := env.roles.Create(&domain.Role{Name: name}); err != nil {
			t.Fatalf("seed role %s: %v", name, err)
		}
	}

	tokens := repository.NewTokenRepository(db)
	env.tokenSvc = service.NewTokenService(tokens, env.users, testTokenPepper)
	env.abilitySvc = service.NewAbilityService()
	env.authSvc = service.NewAuthService(env.users, env.roles, env.tokenSvc, env.abilitySvc)
	env.userSvc = service.NewUserService(env.users, env.roles)
	env.roleSvc = service.NewRoleService(env.roles, env.perms, []string{"admin", "user"})
	env.dashSvc = service.NewDashboardService(env.users, env.roles, env.perms)
	return env
}

func (e *handlerEnv) createUser(t *testing.T, name, email, password string, roleNames ...string) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: email}
	if password != "" {
		hash, err := security.HashPassword(password)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		u.PasswordHash = hash
	}
	if err := e.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	for _, rn := range roleNames {
		role, err := e.roles.FindByName(rn)
		if err != nil {
			t.Fatalf("find role %s: %v", rn, err)
		}
		if err := e.users.AddRole(u.ID, role.ID); err != nil {
			t.Fatalf("add role: %v", err)
		}
	}
	fresh, err := e.users.FindByID(u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return fresh
}

func withRouteParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asUser(r *http.Request, u *domain.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, u))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
