package repository

import (
	"time"

	"vue-dashboard-api/internal/domain"

	"gorm.io/gorm"
)

type TokenRepository interface {
	Create(t *domain.PersonalAccessToken) error
	FindByID(id uint) (*domain.PersonalAccessToken, error)
	TouchLastUsed(id uint, at time.Time) error
	DeleteByUserID(userID uint) (int64, error)
}

type GormTokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) TokenRepository { return &GormTokenRepository{db: db} }

func (r *GormTokenRepository) Create(t *domain.PersonalAccessToken) error {
	return r.db.Create(t).Error
}

func (r *GormTokenRepository) FindByID(id uint) (*domain.PersonalAccessToken, error) {
	var t domain.PersonalAccessToken
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTokenRepository) TouchLastUsed(id uint, at time.Time) error {
	return r.db.Model(&domain.PersonalAccessToken{}).Where("id = ?", id).Update("last_used_at", at).Error
}

func (r *GormTokenRepository) DeleteByUserID(userID uint) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&domain.PersonalAccessToken{})
	return res.RowsAffected, res.Error
}
