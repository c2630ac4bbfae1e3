package service

import (
	"strings"
	"time"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
)

type UserService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *UserService {
	return &UserService{userRepo: userRepo, roleRepo: roleRepo}
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	// Roles holds role names to assign; unknown names are ignored.
	Roles []string
}

type UpdateUserInput struct {
	Name  string
	Email string
	// Roles re-syncs role assignments when non-nil.
	Roles *[]string
}

func (s *UserService) List(q repository.UserListQuery) (*repository.PageResult[domain.User], error) {
	return s.userRepo.ListPaged(q)
}

func (s *UserService) Get(id uint) (*domain.User, error) {
	u, err := s.userRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Create(in CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	ve := &ValidationError{}
	if in.Name == "" {
		ve.Add("name", "The name field is required.")
	}
	if err := validateEmail(in.Email); err != nil {
		ve.Add("email", err.Error())
	}
	if len(in.Password) < 8 {
		ve.Add("password", "The password must be at least 8 characters.")
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}
	taken, err := s.userRepo.EmailTaken(in.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewValidationError("email", "The email has already been taken.")
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		Name:            in.Name,
		Email:           in.Email,
		PasswordHash:    hash,
		EmailVerifiedAt: &now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	if len(in.Roles) > 0 {
		roles, err := s.roleRepo.FindByNames(in.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.SetRoles(user.ID, roles); err != nil {
			return nil, err
		}
	}
	return s.userRepo.FindByID(user.ID)
}

func (s *UserService) Update(id uint, in UpdateUserInput) (*domain.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	ve := &ValidationError{}
	if in.Name == "" {
		ve.Add("name", "The name field is required.")
	}
	if err := validateEmail(in.Email); err != nil {
		ve.Add("email", err.Error())
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}
	taken, err := s.userRepo.EmailTaken(in.Email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewValidationError("email", "The email has already been taken.")
	}

	user.Name = in.Name
	user.Email = in.Email
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	if in.Roles != nil {
		roles, err := s.roleRepo.FindByNames(*in.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.SetRoles(id, roles); err != nil {
			return nil, err
		}
	}
	return s.userRepo.FindByID(id)
}

// Delete removes a user. Callers cannot delete themselves.
func (s *UserService) Delete(id, callerID uint) error {
	if id == callerID {
		return ErrSelfDelete
	}
	if err := s.userRepo.Delete(id); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
