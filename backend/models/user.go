package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Password     string    `json:"-"` // bcrypt hash, never serialize
	TwoFAEnabled bool      `json:"is2FAEnabled" gorm:"column:is_2fa_enabled;default:false"`
	TwoFASecret  *string   `json:"-" gorm:"column:twofa_secret"` // base32 TOTP secret, never serialize
}

// BeforeCreate assigns an opaque id when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// TwoFAConsistent reports whether a secret is present exactly when 2FA is enabled.
func (u *User) TwoFAConsistent() bool {
	return u.TwoFAEnabled == (u.TwoFASecret != nil)
}
