package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrProfileNotFound = errors.New("profile not found")

type Service struct {
	repo          *Repository
	jwtService    *JWTService
	signupCredits int
}

// NewService creates a new auth service
func NewService(db *gorm.DB, jwtSecret string, signupCredits int) *Service {
	return &Service{
		repo:          NewRepository(db),
		jwtService:    NewJWTService(jwtSecret),
		signupCredits: signupCredits,
	}
}

// LoginWithGoogle signs in a verified Google user.
// Existing profiles are matched by Google ID, then by email; otherwise a new
// profile is created with the signup credit grant.
func (s *Service) LoginWithGoogle(ctx context.Context, info *GoogleUserInfo) (*AuthResponse, error) {
	profile, err := s.repo.GetByGoogleID(ctx, info.GoogleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	isNew := false
	if profile == nil {
		profile, err = s.repo.GetByEmail(ctx, info.Email)
		switch {
		case err == nil:
			profile.GoogleID = info.GoogleID
			if profile.AvatarURL == "" {
				profile.AvatarURL = info.AvatarURL
			}
			if err := s.repo.Save(ctx, profile); err != nil {
				return nil, fmt.Errorf("failed to link Google account: %w", err)
			}
			log.Printf("🔗 Linked Google account to profile: %s", profile.Email)
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile = &Profile{
				Email:       info.Email,
				Name:        info.Name,
				AvatarURL:   info.AvatarURL,
				GoogleID:    info.GoogleID,
				Credits:     s.signupCredits,
				Preferences: datatypes.NewJSONType(DefaultPreferences()),
			}
			if err := s.repo.CreateWithSignupGrant(ctx, profile); err != nil {
				// A concurrent first sign-in may have created it already.
				existing, lookupErr := s.repo.GetByGoogleID(ctx, info.GoogleID)
				if lookupErr != nil {
					return nil, fmt.Errorf("failed to create profile: %w", err)
				}
				profile = existing
				log.Printf("🔁 Profile for %s created concurrently, reusing it", profile.Email)
				break
			}
			isNew = true
			log.Printf("✅ New profile registered: %s (%s) with %d credits", profile.Email, profile.ID, profile.Credits)
		default:
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
	}

	if err := s.repo.UpdateLastLogin(ctx, profile.ID.String()); err != nil {
		log.Printf("⚠️ Failed to update last login for %s: %v", profile.ID, err)
	}

	resp, err := s.generateAuthResponse(ctx, profile)
	if err != nil {
		return nil, err
	}
	resp.NewUser = isNew
	return resp, nil
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	profile, err := s.repo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token not found or expired")
	}

	if profile.ID.String() != userID {
		return nil, fmt.Errorf("refresh token user mismatch")
	}

	return s.generateAuthResponse(ctx, profile)
}

// Logout revokes user's refresh token
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.repo.RevokeRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	log.Printf("👋 User logged out: %s", userID)
	return nil
}

// ValidateToken validates an access token and returns its claims
func (s *Service) ValidateToken(accessToken string) (*TokenClaims, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	return claims, nil
}

// Profile loads the current profile
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdatePreferences replaces the account preferences
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs Preferences) (*Profile, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs.Language == "" {
		prefs.Language = "en"
	}
	if prefs.Timezone == "" {
		prefs.Timezone = "UTC"
	}
	profile.Preferences = datatypes.NewJSONType(prefs)
	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return profile, nil
}

func (s *Service) generateAuthResponse(ctx context.Context, profile *Profile) (*AuthResponse, error) {
	accessToken, expiresIn, err := s.jwtService.GenerateAccessToken(&TokenClaims{
		UserID: profile.ID.String(),
		Email:  profile.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwtService.GenerateRefreshToken(profile.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.repo.UpdateRefreshToken(ctx, profile.ID.String(), refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User:         newUserInfo(profile),
	}, nil
}
