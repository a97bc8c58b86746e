package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/core/social"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileLookup resolves the profile an OAuth state was issued for
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*auth.Profile, error)
}

// ConnectResult is what the callback reports back to the dashboard
type ConnectResult struct {
	Platform string                 `json:"platform"`
	Profile  map[string]interface{} `json:"profile"`
}

// Connection is a connected account without its secrets
type Connection struct {
	Platform    string                 `json:"platform"`
	Name        string                 `json:"name"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
	Expired     bool                   `json:"expired"`
	CanRefresh  bool                   `json:"can_refresh"`
	Profile     map[string]interface{} `json:"profile,omitempty"`
	ConnectedAt time.Time              `json:"connected_at"`
	LastUpdated time.Time              `json:"last_updated"`
}

type SocialService struct {
	client      *social.Client
	states      *social.StateManager
	tokens      repositories.SocialTokenRepo
	profiles    ProfileLookup
	cipher      social.TokenCipher
	redirectURI string
	now         func() time.Time
}

func NewSocialService(
	client *social.Client,
	states *social.StateManager,
	tokens repositories.SocialTokenRepo,
	profiles ProfileLookup,
	cipher social.TokenCipher,
	redirectURI string,
) *SocialService {
	return &SocialService{
		client:      client,
		states:      states,
		tokens:      tokens,
		profiles:    profiles,
		cipher:      cipher,
		redirectURI: redirectURI,
		now:         time.Now,
	}
}

// Platforms lists the supported networks and whether each has app credentials
func (s *SocialService) Platforms() []social.Platform {
	return s.client.Registry().List()
}

// BeginConnect issues a state for the user and returns the consent screen URL
func (s *SocialService) BeginConnect(ctx context.Context, userID, platform string) (string, error) {
	p, err := s.client.Registry().Get(platform)
	if err != nil {
		return "", err
	}
	if !p.Configured() {
		return "", fmt.Errorf("%w: %s", ErrPlatformNotConfigured, p.Name)
	}

	state, err := s.states.Issue(ctx, p.ID, userID)
	if err != nil {
		return "", err
	}
	return s.client.AuthCodeURL(p.ID, s.redirectURI, state)
}

// CompleteConnect redeems the state, exchanges the code and stores the
// encrypted tokens for the user that started the flow.
func (s *SocialService) CompleteConnect(ctx context.Context, code, state string) (*ConnectResult, error) {
	st, err := s.states.Verify(ctx, state)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, st.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	tok, err := s.client.Exchange(ctx, st.Platform, code, s.redirectURI)
	if err != nil {
		return nil, err
	}

	userProfile, err := s.client.FetchProfile(ctx, st.Platform, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	if err := s.store(ctx, profile.ID, st.Platform, tok, userProfile); err != nil {
		return nil, err
	}

	log.Printf("✅ Connected %s for user %s", st.Platform, profile.ID)
	return &ConnectResult{Platform: st.Platform, Profile: userProfile}, nil
}

func (s *SocialService) ListConnections(ctx context.Context, userID string) ([]Connection, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.tokens.ListByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	now := s.now()
	out := make([]Connection, 0, len(rows))
	for _, row := range rows {
		conn := Connection{
			Platform:    row.Platform,
			Name:        row.Platform,
			ExpiresAt:   row.ExpiresAt,
			Expired:     row.ExpiresAt != nil && !row.ExpiresAt.After(now),
			CanRefresh:  row.RefreshToken != "",
			Profile:     row.UserProfile,
			ConnectedAt: row.CreatedAt,
			LastUpdated: row.UpdatedAt,
		}
		if p, err := s.client.Registry().Get(row.Platform); err == nil {
			conn.Name = p.Name
		}
		out = append(out, conn)
	}
	return out, nil
}

func (s *SocialService) Disconnect(ctx context.Context, userID, platform string) error {
	uid, err := parseUserID(userID)
	if err != nil {
		return err
	}
	deleted, err := s.tokens.Delete(ctx, uid, platform)
	if err != nil {
		return fmt.Errorf("failed to disconnect %s: %w", platform, err)
	}
	if !deleted {
		return ErrConnectionNotFound
	}
	log.Printf("🔌 Disconnected %s for user %s", platform, userID)
	return nil
}

// RefreshConnection trades the stored refresh token for a new pair. A
// platform that does not rotate refresh tokens keeps the old one.
func (s *SocialService) RefreshConnection(ctx context.Context, userID, platform string) (*Connection, error) {
	row, err := s.load(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	if row.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	refreshToken, err := s.cipher.Decrypt(row.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	tok, err := s.client.Refresh(ctx, platform, refreshToken)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	if err := s.store(ctx, row.UserID, platform, tok, row.UserProfile); err != nil {
		return nil, err
	}

	conns, err := s.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range conns {
		if conns[i].Platform == platform {
			return &conns[i], nil
		}
	}
	return nil, ErrConnectionNotFound
}

// AccessToken returns the decrypted access token for publishing
func (s *SocialService) AccessToken(ctx context.Context, userID, platform string) (string, error) {
	row, err := s.load(ctx, userID, platform)
	if err != nil {
		return "", err
	}
	token, err := s.cipher.Decrypt(row.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// VerifyConnection checks the stored token against the platform's profile endpoint
func (s *SocialService) VerifyConnection(ctx context.Context, userID, platform string) (bool, error) {
	token, err := s.AccessToken(ctx, userID, platform)
	if err != nil {
		return false, err
	}
	return s.client.VerifyToken(ctx, platform, token), nil
}

// PurgeStates drops abandoned handshakes
func (s *SocialService) PurgeStates(ctx context.Context) error {
	n, err := s.states.Purge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("🧹 Purged %d expired oauth state(s)", n)
	}
	return nil
}

func (s *SocialService) load(ctx context.Context, userID, platform string) (*models.SocialToken, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	row, err := s.tokens.Get(ctx, uid, platform)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection: %w", err)
	}
	return row, nil
}

func (s *SocialService) store(ctx context.Context, userID uuid.UUID, platform string, tok *social.Token, userProfile map[string]interface{}) error {
	access, err := s.cipher.Encrypt(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	var refresh string
	if tok.RefreshToken != "" {
		if refresh, err = s.cipher.Encrypt(tok.RefreshToken); err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	row := &models.SocialToken{
		UserID:       userID,
		Platform:     platform,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    tok.ExpiresAt,
		UserProfile:  userProfile,
	}
	if err := s.tokens.Upsert(ctx, row); err != nil {
		return fmt.Errorf("failed to store %s token: %w", platform, err)
	}
	return nil
}
