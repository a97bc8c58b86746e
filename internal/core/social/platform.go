package social

import (
	"errors"
	"fmt"
	"strings"

	"github.com/addinfi/makemyposts-be/internal/shared/config"
	"golang.org/x/oauth2"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

const (
	Instagram = "instagram"
	Facebook  = "facebook"
	LinkedIn  = "linkedin"
)

// Platform describes one social network we can connect through OAuth
type Platform struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	AuthURL      string   `json:"-"`
	TokenURL     string   `json:"-"`
	ProfileURL   string   `json:"-"`
	Scopes       []string `json:"scopes"`
	ClientID     string   `json:"-"`
	ClientSecret string   `json:"-"`
}

// Configured reports whether the app credentials are present
func (p Platform) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// OAuthConfig builds the authorization-code config. Client credentials are
// sent in the form body, which all three platforms accept.
func (p Platform) OAuthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// DefaultPlatforms returns Instagram, Facebook and LinkedIn with base URLs from config
func DefaultPlatforms(cfg *config.Config) []Platform {
	ig := strings.TrimSuffix(cfg.InstagramAPIBase, "/")
	igGraph := strings.TrimSuffix(cfg.InstagramGraphBase, "/")
	fb := strings.TrimSuffix(cfg.FacebookWWWBase, "/")
	fbGraph := strings.TrimSuffix(cfg.FacebookGraphBase, "/")
	li := strings.TrimSuffix(cfg.LinkedInWWWBase, "/")
	liAPI := strings.TrimSuffix(cfg.LinkedInAPIBase, "/")

	return []Platform{
		{
			ID:           Instagram,
			Name:         "Instagram",
			AuthURL:      ig + "/oauth/authorize",
			TokenURL:     ig + "/oauth/access_token",
			ProfileURL:   igGraph + "/me?fields=id,username,account_type,media_count",
			Scopes:       []string{"user_profile", "user_media", "instagram_content_publish"},
			ClientID:     cfg.InstagramClientID,
			ClientSecret: cfg.InstagramClientSecret,
		},
		{
			ID:           Facebook,
			Name:         "Facebook",
			AuthURL:      fb + "/v18.0/dialog/oauth",
			TokenURL:     fbGraph + "/v18.0/oauth/access_token",
			ProfileURL:   fbGraph + "/me?fields=id,name,email",
			Scopes:       []string{"pages_manage_posts", "pages_read_engagement", "pages_show_list"},
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
		},
		{
			ID:           LinkedIn,
			Name:         "LinkedIn",
			AuthURL:      li + "/oauth/v2/authorization",
			TokenURL:     li + "/oauth/v2/accessToken",
			ProfileURL:   liAPI + "/v2/me",
			Scopes:       []string{"r_liteprofile", "w_member_social", "r_organization_admin"},
			ClientID:     cfg.LinkedInClientID,
			ClientSecret: cfg.LinkedInClientSecret,
		},
	}
}

// Registry looks platforms up by ID, keeping registration order for listings
type Registry struct {
	platforms map[string]Platform
	order     []string
}

func NewRegistry(platforms ...Platform) *Registry {
	r := &Registry{platforms: make(map[string]Platform, len(platforms))}
	for _, p := range platforms {
		if _, exists := r.platforms[p.ID]; !exists {
			r.order = append(r.order, p.ID)
		}
		r.platforms[p.ID] = p
	}
	return r
}

func (r *Registry) Get(id string) (Platform, error) {
	p, ok := r.platforms[strings.ToLower(id)]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, id)
	}
	return p, nil
}

func (r *Registry) List() []Platform {
	out := make([]Platform, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.platforms[id])
	}
	return out
}
