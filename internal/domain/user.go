package domain

import "time"

type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:255;not null" json:"name"`
	Email           string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash    string     `gorm:"size:1024" json:"-"`
	Avatar          string     `gorm:"size:1024" json:"avatar"`
	Provider        string     `gorm:"size:64" json:"provider,omitempty"`
	ProviderID      string     `gorm:"size:255;index:idx_users_provider_id" json:"provider_id,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Roles           []Role     `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

// PrimaryRole is the single role name the frontend keys its layout on.
func (u *User) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return "user"
	}
	return u.Roles[0].Name
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
