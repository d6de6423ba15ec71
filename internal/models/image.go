package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileImage is the metadata row for a user's profile picture. A user owns
// at most one ProfileImage at a time; the service layer enforces that, not
// the schema.
type ProfileImage struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	UploadDate time.Time `gorm:"autoCreateTime" json:"upload_date"`
	UserID     string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
}

// BeforeCreate assigns a UUID primary key when one is not already set.
func (i *ProfileImage) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// VerificationToken is one issued email-verification token. Rows are kept
// after consumption so a second consume attempt can be told apart from a
// token that never existed.
type VerificationToken struct {
	Token      string     `gorm:"size:64;primaryKey" json:"-"`
	UserID     string     `gorm:"type:varchar(36);index;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"-"`
	ConsumedAt *time.Time `json:"-"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"-"`
}
