package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// IDTokenVerifier turns a Google ID token into verified user information
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error)
}

// GoogleOAuthService verifies ID tokens issued to our Google client
type GoogleOAuthService struct {
	clientID string
}

// NewGoogleOAuthService creates a new Google OAuth service
func NewGoogleOAuthService(clientID string) *GoogleOAuthService {
	return &GoogleOAuthService{
		clientID: clientID,
	}
}

// GoogleUserInfo represents user information from Google
type GoogleUserInfo struct {
	GoogleID  string
	Email     string
	Name      string
	AvatarURL string
}

// VerifyIDToken verifies Google ID token and returns user information
func (s *GoogleOAuthService) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	if s.clientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is not configured")
	}

	payload, err := idtoken.Validate(ctx, idToken, s.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Google ID token: %w", err)
	}

	return userInfoFromClaims(payload.Claims)
}

func userInfoFromClaims(claims map[string]interface{}) (*GoogleUserInfo, error) {
	googleID, ok := claims["sub"].(string)
	if !ok || googleID == "" {
		return nil, fmt.Errorf("missing sub claim in token")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("missing email claim in token")
	}
	name, _ := claims["name"].(string)
	avatarURL, _ := claims["picture"].(string)

	emailVerified, _ := claims["email_verified"].(bool)
	if !emailVerified {
		return nil, fmt.Errorf("email not verified by Google")
	}

	return &GoogleUserInfo{
		GoogleID:  googleID,
		Email:     email,
		Name:      name,
		AvatarURL: avatarURL,
	}, nil
}
