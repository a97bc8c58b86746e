package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SocialToken is a connected social account. Tokens are stored encrypted.
type SocialToken struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_social_tokens_user_platform" json:"user_id"`
	Platform     string            `gorm:"type:varchar(20);not null;uniqueIndex:idx_social_tokens_user_platform" json:"platform"`
	AccessToken  string            `gorm:"type:text;not null" json:"-"`
	RefreshToken string            `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	UserProfile  datatypes.JSONMap `gorm:"column:user_profile" json:"user_profile,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SocialToken) TableName() string {
	return "social_tokens"
}

func (t *SocialToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
