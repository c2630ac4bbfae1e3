package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/security"

	"gorm.io/gorm"
)

var defaultPermissions = []string{
	"dashboard.view",
	"users.view",
	"users.create",
	"users.edit",
	"users.delete",
	"roles.view",
	"roles.create",
	"roles.edit",
	"roles.delete",
	"permissions.view",
}

// Seed is idempotent: permissions and the protected admin/user roles are
// created once, the admin role keeps every permission, and an optional
// bootstrap admin account is created with a throwaway password.
func Seed(db *gorm.DB, bootstrapAdminEmail string) error {
	for _, name := range defaultPermissions {
		p := domain.Permission{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&p).Error; err != nil {
			return fmt.Errorf("seed permission %q: %w", name, err)
		}
	}

	adminRole := domain.Role{Name: "admin"}
	if err := db.Where("name = ?", adminRole.Name).FirstOrCreate(&adminRole).Error; err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}
	userRole := domain.Role{Name: "user"}
	if err := db.Where("name = ?", userRole.Name).FirstOrCreate(&userRole).Error; err != nil {
		return fmt.Errorf("seed user role: %w", err)
	}

	var allPerms []domain.Permission
	if err := db.Find(&allPerms).Error; err != nil {
		return err
	}
	if err := db.Model(&adminRole).Association("Permissions").Replace(&allPerms); err != nil {
		return fmt.Errorf("bind admin permissions: %w", err)
	}
	var dashboardView domain.Permission
	if err := db.Where("name = ?", "dashboard.view").First(&dashboardView).Error; err != nil {
		return err
	}
	if err := db.Model(&userRole).Association("Permissions").Replace(&dashboardView); err != nil {
		return fmt.Errorf("bind user permissions: %w", err)
	}

	email := strings.TrimSpace(strings.ToLower(bootstrapAdminEmail))
	if email == "" {
		return nil
	}
	var admin domain.User
	err := db.Where("email = ?", email).First(&admin).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		secret, err := security.NewRandomString(24)
		if err != nil {
			return err
		}
		hash, err := security.HashPassword(secret)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		admin = domain.User{
			Name:            "Administrator",
			Email:           email,
			PasswordHash:    hash,
			EmailVerifiedAt: &now,
		}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("seed bootstrap admin: %w", err)
		}
	default:
		return err
	}

	var count int64
	if err := db.Table("user_roles").Where("user_id = ? AND role_id = ?", admin.ID, adminRole.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Model(&admin).Association("Roles").Append(&adminRole); err != nil {
			return fmt.Errorf("assign bootstrap admin role: %w", err)
		}
	}
	return nil
}
