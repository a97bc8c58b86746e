package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type fakeVerifier struct {
	info *GoogleUserInfo
	err  error
}

func (f fakeVerifier) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	return f.info, f.err
}

func newTestApp(t *testing.T, verifier IDTokenVerifier) (*fiber.App, *Service) {
	t.Helper()
	svc := newTestService(t)
	h := NewHandler(svc, verifier)
	app := fiber.New()
	h.RegisterRoutes(app, AuthMiddleware(svc))
	return app, svc
}

func TestHandler_GoogleLoginThenMe(t *testing.T) {
	app, _ := newTestApp(t, fakeVerifier{info: &GoogleUserInfo{GoogleID: "g-1", Email: "me@example.com", Name: "Me"}})

	req := httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(`{"google_id_token":"tok"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var auth AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		t.Fatalf("decode: %v", err)
	}

	me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	resp, err = app.Test(me)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/auth/me status = %d", resp.StatusCode)
	}
	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Email != "me@example.com" || info.Credits != 2 {
		t.Fatalf("unexpected user info: %+v", info)
	}
}

func TestHandler_GoogleLoginRejectsBadToken(t *testing.T) {
	app, _ := newTestApp(t, fakeVerifier{err: errors.New("bad token")})

	req := httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(`{"google_id_token":"tok"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	app, svc := newTestApp(t, fakeVerifier{})
	token, _, err := svc.jwtService.GenerateAccessToken(&TokenClaims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	app.Get("/whoami", AuthMiddleware(svc), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + token, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + token, "", http.StatusOK},
		{"cookie", "", token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.cookie})
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}
