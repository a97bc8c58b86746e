package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GMBDetails are the Google Business Profile fields used on generated posts
type GMBDetails struct {
	BusinessName string `json:"business_name"`
	Address      string `json:"address"`
}

// PostSettings are the brand's defaults for new posts
type PostSettings struct {
	DefaultTheme  string `json:"default_theme"`
	AutoSchedule  bool   `json:"auto_schedule"`
	PostFrequency string `json:"post_frequency"` // daily, weekly, custom
	Watermark     bool   `json:"watermark"`
}

// DefaultPostSettings mirrors what a brand starts with
func DefaultPostSettings() PostSettings {
	return PostSettings{
		DefaultTheme:  ThemeMinimalist,
		AutoSchedule:  true,
		PostFrequency: "daily",
		Watermark:     false,
	}
}

// PostFrequencies are the accepted post_frequency values
var PostFrequencies = []string{"daily", "weekly", "custom"}

// Brand is a user's brand identity. One per user.
type Brand struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name            string    `gorm:"type:text" json:"name"`
	LogoURL         string    `gorm:"type:text" json:"logo_url"`
	LogoPublicID    string    `gorm:"type:text" json:"-"`
	InstagramHandle string    `gorm:"type:text" json:"instagram_handle"`

	GMBDetails   datatypes.JSONType[GMBDetails]   `gorm:"column:gmb_details" json:"gmb_details"`
	PostSettings datatypes.JSONType[PostSettings] `gorm:"column:post_settings" json:"post_settings"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Brand) TableName() string {
	return "brands"
}

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
