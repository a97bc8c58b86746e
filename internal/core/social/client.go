package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Token is the normalized result of a code exchange or refresh
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Raw          map[string]interface{}
}

// TokenError is a rejected call to a platform token endpoint
type TokenError struct {
	Op     string
	Reason string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %s failed: %s", e.Op, e.Reason)
}

// Client talks to the platforms' OAuth and profile endpoints
type Client struct {
	registry   *Registry
	httpClient *http.Client
}

func NewClient(registry *Registry, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{registry: registry, httpClient: httpClient}
}

func (c *Client) Registry() *Registry {
	return c.registry
}

// AuthCodeURL builds the consent screen URL with client_id, redirect_uri,
// scope, response_type=code and state.
func (c *Client) AuthCodeURL(platformID, redirectURI, state string) (string, error) {
	p, err := c.registry.Get(platformID)
	if err != nil {
		return "", err
	}
	if p.ClientID == "" {
		return "", fmt.Errorf("%s client id is not configured", p.Name)
	}
	return p.OAuthConfig(redirectURI).AuthCodeURL(state), nil
}

// Exchange trades an authorization code for tokens
func (c *Client) Exchange(ctx context.Context, platformID, code, redirectURI string) (*Token, error) {
	p, err := c.registry.Get(platformID)
	if err != nil {
		return nil, err
	}

	tok, err := p.OAuthConfig(redirectURI).Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, &TokenError{Op: "exchange", Reason: describeOAuthError(err)}
	}
	return normalizeToken(tok), nil
}

// Refresh uses grant_type=refresh_token to obtain a new access token
func (c *Client) Refresh(ctx context.Context, platformID, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored for %s", platformID)
	}
	p, err := c.registry.Get(platformID)
	if err != nil {
		return nil, err
	}

	// An expired token forces the token source to hit the refresh endpoint.
	src := p.OAuthConfig("").TokenSource(c.withHTTPClient(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		return nil, &TokenError{Op: "refresh", Reason: describeOAuthError(err)}
	}
	return normalizeToken(tok), nil
}

// FetchProfile returns the platform's JSON profile for the token owner
func (c *Client) FetchProfile(ctx context.Context, platformID, accessToken string) (map[string]interface{}, error) {
	p, err := c.registry.Get(platformID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("profile fetch failed: %s", resp.Status)
	}

	var profile map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

// VerifyToken is true when the profile endpoint accepts the token
func (c *Client) VerifyToken(ctx context.Context, platformID, accessToken string) bool {
	profile, err := c.FetchProfile(ctx, platformID, accessToken)
	return err == nil && profile != nil
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func normalizeToken(tok *oauth2.Token) *Token {
	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Raw:          map[string]interface{}{},
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry
		out.ExpiresAt = &exp
	}
	for _, key := range []string{"user_id", "token_type", "expires_in", "scope"} {
		if v := tok.Extra(key); v != nil {
			out.Raw[key] = v
		}
	}
	return out
}

func describeOAuthError(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		if re.ErrorDescription != "" {
			return fmt.Sprintf("%s (%s)", re.Response.Status, re.ErrorDescription)
		}
		return re.Response.Status
	}
	return err.Error()
}
