package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new auth repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, profile *Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// CreateWithSignupGrant inserts a new profile and the ledger row for its
// starting credits in one transaction.
func (r *Repository) CreateWithSignupGrant(ctx context.Context, profile *Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		if profile.Credits == 0 {
			return nil
		}
		return tx.Create(&models.CreditTransaction{
			UserID:       profile.ID,
			Delta:        profile.Credits,
			BalanceAfter: profile.Credits,
			Reason:       models.CreditReasonSignup,
		}).Error
	})
}

func (r *Repository) Save(ctx context.Context, profile *Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	var profile Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	var profile Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) GetByGoogleID(ctx context.Context, googleID string) (*Profile, error) {
	var profile Profile
	if err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByRefreshToken retrieves a profile holding an unexpired refresh token
func (r *Repository) GetByRefreshToken(ctx context.Context, refreshToken string) (*Profile, error) {
	var profile Profile
	err := r.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&profile).Error
	if err != nil {
		return nil, err
	}

	if profile.RefreshTokenExpiresAt != nil && profile.RefreshTokenExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("refresh token expired")
	}

	return &profile, nil
}

func (r *Repository) UpdateRefreshToken(ctx context.Context, userID string, refreshToken string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            refreshToken,
			"refresh_token_expires_at": expiresAt,
		}).Error
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}

// RevokeRefreshToken clears the stored refresh token
func (r *Repository) RevokeRefreshToken(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            nil,
			"refresh_token_expires_at": nil,
		}).Error
}
