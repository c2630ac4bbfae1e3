package domain

import "time"

// PersonalAccessToken backs an opaque bearer token. Only the SHA-256 hash of
// the secret half is stored; the plaintext is shown to the client once.
type PersonalAccessToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index:idx_personal_access_tokens_user_id" json:"user_id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	TokenHash  string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Ability is an {action, subject} capability hint consumed by the SPA's
// authorization layer. Derived from the user's role, never stored.
type Ability struct {
	Action  string `json:"action"`
	Subject string `json:"subject"`
}
