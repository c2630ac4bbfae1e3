package service

import (
	"time"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
)

const tokenSecretLen = 32

// TokenService mints and validates opaque personal access tokens. Tokens do
// not expire; they stay valid until the owner's tokens are revoked together
// at logout.
type TokenService struct {
	tokenRepo repository.TokenRepository
	userRepo  repository.UserRepository
	pepper    string
}

func NewTokenService(tokenRepo repository.TokenRepository, userRepo repository.UserRepository, pepper string) *TokenService {
	return &TokenService{tokenRepo: tokenRepo, userRepo: userRepo, pepper: pepper}
}

func (s *TokenService) Issue(user *domain.User) (string, error) {
	secret, err := security.NewRandomString(tokenSecretLen)
	if err != nil {
		return "", err
	}
	record := &domain.PersonalAccessToken{
		UserID:    user.ID,
		Name:      "Personal Access Token",
		TokenHash: security.HashTokenSecret(secret, s.pepper),
	}
	if err := s.tokenRepo.Create(record); err != nil {
		return "", err
	}
	return security.FormatAccessToken(record.ID, secret), nil
}

func (s *TokenService) Authenticate(plaintext string) (*domain.User, error) {
	id, secret, err := security.SplitAccessToken(plaintext)
	if err != nil {
		return nil, ErrInvalidToken
	}
	record, err := s.tokenRepo.FindByID(id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !security.TokenHashEqual(record.TokenHash, security.HashTokenSecret(secret, s.pepper)) {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(record.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	// Best effort; token validity does not depend on the timestamp write.
	_ = s.tokenRepo.TouchLastUsed(record.ID, time.Now().UTC())
	return user, nil
}

func (s *TokenService) RevokeAll(userID uint) error {
	_, err := s.tokenRepo.DeleteByUserID(userID)
	return err
}
