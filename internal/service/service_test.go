package service

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
)

type testEnv struct {
	db     *gorm.DB
	users  repository.UserRepository
	roles  repository.RoleRepository
	perms  repository.PermissionRepository
	tokens repository.TokenRepository
}

func newTestEnv(t *testing.T) *testEnv {
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

	env := &testEnv{
		db:     db,
		users:  repository.NewUserRepository(db),
		roles:  repository.NewRoleRepository(db),
		perms:  repository.NewPermissionRepository(db),
		tokens: repository.NewTokenRepository(db),
	}
	for _, name := range []string{"admin", "user"} {
		if err := env.roles.Create(&domain.Role{Name: name}); err != nil {
			t.Fatalf("seed role %s: %v", name, err)
		}
	}
	return env
}

func (e *testEnv) createUser(t *testing.T, name, email, password string, roleNames ...string) *domain.User {
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
