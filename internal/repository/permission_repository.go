package repository

import (
	"vue-dashboard-api/internal/domain"

	"gorm.io/gorm"
)

type PermissionRepository interface {
	List() ([]domain.Permission, error)
	// FindOrCreateByNames resolves permission names to rows, creating any that
	// do not exist yet. Mirrors how role permission syncing treats free-form
	// permission names.
	FindOrCreateByNames(names []string) ([]domain.Permission, error)
	Count() (int64, error)
}

type GormPermissionRepository struct{ db *gorm.DB }

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &GormPermissionRepository{db: db}
}

func (r *GormPermissionRepository) List() ([]domain.Permission, error) {
	var perms []domain.Permission
	err := r.db.Order("id").Find(&perms).Error
	return perms, err
}

func (r *GormPermissionRepository) FindOrCreateByNames(names []string) ([]domain.Permission, error) {
	perms := make([]domain.Permission, 0, len(names))
	for _, name := range names {
		p := domain.Permission{Name: name}
		if err := r.db.Where("name = ?", name).FirstOrCreate(&p).Error; err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

func (r *GormPermissionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Permission{}).Count(&count).Error
	return count, err
}
