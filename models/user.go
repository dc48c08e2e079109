package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a storefront account. Passwords are stored as bcrypt hashes
// only, and RefreshToken holds the single currently-valid refresh token for
// the account (nil when the user is logged out everywhere).
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	IsAdmin      bool           `gorm:"default:false" json:"is_admin"`
	RefreshToken *string        `gorm:"size:512" json:"-"`
	Provider     string         `gorm:"size:32" json:"provider,omitempty"`
	ProviderID   string         `gorm:"size:255" json:"-"`
	AvatarURL    string         `gorm:"size:512" json:"avatar_url"`
	RegisterIP   string         `gorm:"size:45" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
