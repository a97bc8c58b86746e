package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post status constants
const (
	PostStatusPending    = "pending"
	PostStatusScheduled  = "scheduled"
	PostStatusPaused     = "paused"
	PostStatusPublishing = "publishing"
	PostStatusPosted     = "posted"
	PostStatusFailed     = "failed"
)

// Visual themes offered by the generator
const (
	ThemeMinimalist = "Minimalist"
	ThemeBold       = "Bold"
	ThemeFestive    = "Festive"
)

// Themes in display order
var Themes = []string{ThemeMinimalist, ThemeBold, ThemeFestive}

// AspectRatios supported by the generator
var AspectRatios = []string{"1:1", "4:5", "9:16"}

// Platforms posts can be published to
var Platforms = []string{"instagram", "facebook", "linkedin"}

// ScheduledPost is a generated or manually created post queued for publishing
type ScheduledPost struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Caption     string    `gorm:"type:text" json:"caption"`
	ImageURL    string    `gorm:"type:text" json:"image_url"`
	Platform    string    `gorm:"type:varchar(20);not null" json:"platform"`
	ScheduledAt time.Time `gorm:"not null;index" json:"scheduled_at"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Theme       string    `gorm:"type:varchar(20)" json:"theme,omitempty"`
	AspectRatio string    `gorm:"type:varchar(10)" json:"aspect_ratio,omitempty"`

	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ScheduledPost) TableName() string {
	return "scheduled_posts"
}

func (p *ScheduledPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Contains reports whether v is one of list
func Contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
