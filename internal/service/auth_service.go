package service

import (
	"net/mail"
	"strings"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
)

type AuthService struct {
	userRepo   repository.UserRepository
	roleRepo   repository.RoleRepository
	tokenSvc   *TokenService
	abilitySvc *AbilityService
}

// AuthResult bundles everything a successful login or registration hands to
// the SPA: the plaintext bearer token, the user, and the resolved abilities.
type AuthResult struct {
	Token     string
	User      *domain.User
	Abilities []domain.Ability
}

func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, tokenSvc *TokenService, abilitySvc *AbilityService) *AuthService {
	return &AuthService{userRepo: userRepo, roleRepo: roleRepo, tokenSvc: tokenSvc, abilitySvc: abilitySvc}
}

func (s *AuthService) Register(name, email, password, passwordConfirmation string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))

	ve := &ValidationError{}
	if name == "" {
		ve.Add("name", "The name field is required.")
	}
	if err := validateEmail(email); err != nil {
		ve.Add("email", err.Error())
	}
	if password == "" {
		ve.Add("password", "The password field is required.")
	}
	if password != passwordConfirmation {
		ve.Add("c_password", "The password confirmation does not match.")
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}
	taken, err := s.userRepo.EmailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewValidationError("email", "The email has already been taken.")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	if userRole, err := s.roleRepo.FindByName("user"); err == nil {
		_ = s.userRepo.AddRole(user.ID, userRole.ID)
	}

	fresh, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return nil, err
	}
	return s.issue(fresh)
}

func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		// Unknown email and wrong password are indistinguishable to the
		// caller so accounts cannot be enumerated.
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// Profile resolves the current user payload without issuing a new token.
func (s *AuthService) Profile(user *domain.User) *AuthResult {
	return &AuthResult{User: user, Abilities: s.abilitySvc.Resolve(user)}
}

func (s *AuthService) Logout(userID uint) error {
	return s.tokenSvc.RevokeAll(userID)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokenSvc.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user, Abilities: s.abilitySvc.Resolve(user)}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errEmailInvalid
	}
	return nil
}

var (
	errEmailRequired = validationMsg("The email field is required.")
	errEmailInvalid  = validationMsg("The email must be a valid email address.")
)

type validationMsg string

func (m validationMsg) Error() string { return string(m) }
