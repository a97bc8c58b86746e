package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Preferences are the account-level settings shown on the settings page
type Preferences struct {
	Notifications bool   `json:"notifications"`
	PublicProfile bool   `json:"public_profile"`
	Language      string `json:"language"`
	Timezone      string `json:"timezone"`
}

// DefaultPreferences returns the settings a new profile starts with
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: true,
		PublicProfile: false,
		Language:      "en",
		Timezone:      "UTC",
	}
}

// Profile is a signed-in user and their credit balance
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"type:text;uniqueIndex" json:"email"`
	Name      string    `gorm:"type:text" json:"name"`
	AvatarURL string    `gorm:"type:text" json:"avatar_url,omitempty"`
	GoogleID  string    `gorm:"type:text;uniqueIndex;column:google_id" json:"-"`

	Credits     int                             `gorm:"not null;default:0" json:"credits"`
	Preferences datatypes.JSONType[Preferences] `json:"preferences"`

	// JWT Refresh Token
	RefreshToken          *string    `gorm:"type:text" json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// GoogleLoginRequest carries the ID token from Google Identity Services
type GoogleLoginRequest struct {
	GoogleIDToken string `json:"google_id_token" validate:"required"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	User         *UserInfo `json:"user"`
	NewUser      bool      `json:"new_user"`
}

// UserInfo represents user information in auth response
type UserInfo struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	Credits   int         `json:"credits"`
	Settings  Preferences `json:"preferences"`
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func newUserInfo(p *Profile) *UserInfo {
	return &UserInfo{
		ID:        p.ID.String(),
		Email:     p.Email,
		Name:      p.Name,
		AvatarURL: p.AvatarURL,
		Credits:   p.Credits,
		Settings:  p.Preferences.Data(),
	}
}
