package repository

import (
	"vue-dashboard-api/internal/domain"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByID(id uint) (*domain.Role, error)
	FindByName(name string) (*domain.Role, error)
	FindByNames(names []string) ([]domain.Role, error)
	NameTaken(name string, excludeID uint) (bool, error)
	List() ([]domain.Role, error)
	Create(role *domain.Role) error
	Update(role *domain.Role) error
	Delete(id uint) error
	SyncPermissions(role *domain.Role, perms []domain.Permission) error
	Count() (int64, error)
}

type GormRoleRepository struct{ db *gorm.DB }

func NewRoleRepository(db *gorm.DB) RoleRepository { return &GormRoleRepository{db: db} }

func (r *GormRoleRepository) FindByID(id uint) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.Preload("Permissions").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *GormRoleRepository) FindByName(name string) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.Preload("Permissions").Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *GormRoleRepository) FindByNames(names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var roles []domain.Role
	if err := r.db.Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *GormRoleRepository) NameTaken(name string, excludeID uint) (bool, error) {
	q := r.db.Model(&domain.Role{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRoleRepository) List() ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.Preload("Permissions").Order("id").Find(&roles).Error
	return roles, err
}

func (r *GormRoleRepository) Create(role *domain.Role) error { return r.db.Create(role).Error }
func (r *GormRoleRepository) Update(role *domain.Role) error { return r.db.Save(role).Error }

func (r *GormRoleRepository) Delete(id uint) error {
	role := domain.Role{ID: id}
	if err := r.db.Model(&role).Association("Permissions").Clear(); err != nil {
		return err
	}
	res := r.db.Delete(&role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRoleRepository) SyncPermissions(role *domain.Role, perms []domain.Permission) error {
	return r.db.Model(role).Association("Permissions").Replace(perms)
}

func (r *GormRoleRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Role{}).Count(&count).Error
	return count, err
}
