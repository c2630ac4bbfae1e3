package service

import (
	"strings"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/repository"
)

type RoleService struct {
	roleRepo  repository.RoleRepository
	permRepo  repository.PermissionRepository
	protected map[string]struct{}
}

func NewRoleService(roleRepo repository.RoleRepository, permRepo repository.PermissionRepository, protectedRoles []string) *RoleService {
	protected := make(map[string]struct{}, len(protectedRoles))
	for _, name := range protectedRoles {
		trimmed := strings.ToLower(strings.TrimSpace(name))
		if trimmed != "" {
			protected[trimmed] = struct{}{}
		}
	}
	return &RoleService{roleRepo: roleRepo, permRepo: permRepo, protected: protected}
}

func (s *RoleService) List() ([]domain.Role, error) {
	return s.roleRepo.List()
}

func (s *RoleService) Get(id uint) (*domain.Role, error) {
	role, err := s.roleRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

func (s *RoleService) Create(name string, permissions []string) (*domain.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "The name field is required.")
	}
	taken, err := s.roleRepo.NameTaken(name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewValidationError("name", "The name has already been taken.")
	}

	role := &domain.Role{Name: name}
	if err := s.roleRepo.Create(role); err != nil {
		return nil, err
	}
	if len(permissions) > 0 {
		if err := s.syncPermissions(role, permissions); err != nil {
			return nil, err
		}
	}
	return s.roleRepo.FindByID(role.ID)
}

func (s *RoleService) Update(id uint, name string, permissions *[]string) (*domain.Role, error) {
	role, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "The name field is required.")
	}
	taken, err := s.roleRepo.NameTaken(name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, NewValidationError("name", "The name has already been taken.")
	}

	role.Name = name
	if err := s.roleRepo.Update(role); err != nil {
		return nil, err
	}
	if permissions != nil {
		if err := s.syncPermissions(role, *permissions); err != nil {
			return nil, err
		}
	}
	return s.roleRepo.FindByID(id)
}

// Delete refuses the protected default roles regardless of caller.
func (s *RoleService) Delete(id uint) error {
	role, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, ok := s.protected[strings.ToLower(role.Name)]; ok {
		return ErrProtectedRole
	}
	return s.roleRepo.Delete(id)
}

func (s *RoleService) Permissions() ([]domain.Permission, error) {
	return s.permRepo.List()
}

// syncPermissions replaces the role's permission set, creating any names not
// seen before. Permission names are free-form strings.
func (s *RoleService) syncPermissions(role *domain.Role, names []string) error {
	cleaned := make([]string, 0, len(names))
	for _, n := range names {
		if trimmed := strings.TrimSpace(n); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	perms, err := s.permRepo.FindOrCreateByNames(cleaned)
	if err != nil {
		return err
	}
	return s.roleRepo.SyncPermissions(role, perms)
}
