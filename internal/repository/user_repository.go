package repository

import (
	"errors"

	"vue-dashboard-api/internal/domain"

	"gorm.io/gorm"
)

type UserListQuery struct {
	PageRequest
	// Search matches a substring of name or email.
	Search string
}

type UserRepository interface {
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	EmailTaken(email string, excludeID uint) (bool, error)
	Create(user *domain.User) error
	Update(user *domain.User) error
	Delete(id uint) error
	ListPaged(q UserListQuery) (*PageResult[domain.User], error)
	SetRoles(userID uint, roles []domain.Role) error
	AddRole(userID, roleID uint) error
	Count() (int64, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.Preload("Roles.Permissions").First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Preload("Roles.Permissions").Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) EmailTaken(email string, excludeID uint) (bool, error) {
	q := r.db.Model(&domain.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormUserRepository) Create(user *domain.User) error { return r.db.Create(user).Error }
func (r *GormUserRepository) Update(user *domain.User) error { return r.db.Save(user).Error }

func (r *GormUserRepository) Delete(id uint) error {
	u := domain.User{ID: id}
	if err := r.db.Model(&u).Association("Roles").Clear(); err != nil {
		return err
	}
	res := r.db.Delete(&u)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormUserRepository) ListPaged(q UserListQuery) (*PageResult[domain.User], error) {
	req := normalizePageRequest(q.PageRequest)
	base := r.db.Model(&domain.User{})
	if q.Search != "" {
		like := "%" + q.Search + "%"
		base = base.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []domain.User
	err := base.Preload("Roles").
		Order("id").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return &PageResult[domain.User]{
		Items:      users,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: calcTotalPages(total, req.PageSize),
	}, nil
}

func (r *GormUserRepository) SetRoles(userID uint, roles []domain.Role) error {
	u := domain.User{ID: userID}
	return r.db.Model(&u).Association("Roles").Replace(roles)
}

func (r *GormUserRepository) AddRole(userID, roleID uint) error {
	u := domain.User{ID: userID}
	role := domain.Role{ID: roleID}
	return r.db.Model(&u).Association("Roles").Append(&role)
}

func (r *GormUserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Count(&count).Error
	return count, err
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
