// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account. The email is the login key and is
// immutable after creation. VerificationToken and TokenExpiry mirror the
// currently outstanding verification token and are cleared once the account
// is verified.
type User struct {
	ID                string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	FirstName         string        `gorm:"size:80;not null" json:"first_name"`
	LastName          string        `gorm:"size:80;not null" json:"last_name"`
	Email             string        `gorm:"size:80;uniqueIndex;not null" json:"email"`
	PasswordHash      string        `gorm:"size:255;not null" json:"-"`
	IsVerified        bool          `gorm:"not null;default:false" json:"is_verified"`
	VerificationToken *string       `gorm:"size:64;index" json:"-"`
	TokenExpiry       *time.Time    `json:"-"`
	AccountCreated    time.Time     `gorm:"autoCreateTime" json:"account_created"`
	AccountUpdated    time.Time     `gorm:"autoUpdateTime" json:"account_updated"`
	Image             *ProfileImage `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate assigns a UUID primary key when one is not already set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
