package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/core/automation"
	"github.com/addinfi/makemyposts-be/internal/core/payment"
	"github.com/addinfi/makemyposts-be/internal/core/social"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/addinfi/makemyposts-be/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const appURL = "https://app.makemyposts.test"

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	states *social.StateManager
}

// fakeInstagram accepts code "good-code"
func fakeInstagram(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at-1","expires_in":3600,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"17841","username":"chai & co"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEnv(t *testing.T, generateURL string) *testEnv {
	t.Helper()
	tables := append([]interface{}{&auth.Profile{}}, models.All()...)
	db := testutil.OpenGormDB(t, tables...)
	ig := fakeInstagram(t)

	registry := social.NewRegistry(social.Platform{
		ID:           social.Instagram,
		Name:         "Instagram",
		AuthURL:      ig.URL + "/oauth/authorize",
		TokenURL:     ig.URL + "/oauth/access_token",
		ProfileURL:   ig.URL + "/me",
		ClientID:     "cid",
		ClientSecret: "secret",
	})
	states := social.NewStateManager(social.NewMemoryStateStore())
	cipher, _ := social.NewTokenCipher("")

	credits := services.NewCreditService(repositories.NewCreditRepo(db))
	brands := services.NewBrandService(repositories.NewBrandRepo(db))
	schedule := services.NewScheduleService(repositories.NewPostRepo(db))
	socialSvc := services.NewSocialService(social.NewClient(registry, ig.Client()), states,
		repositories.NewSocialTokenRepo(db), auth.NewRepository(db), cipher, appURL+"/api/oauth/callback")
	content := services.NewContentService(credits, brands, schedule, automation.NewClient(5*time.Second), nil,
		services.ContentURLs{Generate: generateURL})
	billing := services.NewBillingService(db, payment.DefaultCatalog(),
		payment.NewRazorpayGateway("rzp_test", "key-secret", "hook-secret", "http://razorpay.invalid"),
		repositories.NewPaymentOrderRepo(db), credits)
	authSvc := auth.NewService(db, "test-secret", 2)

	app := fiber.New()
	api := app.Group("/api")
	socialHandler := NewSocialHandler(socialSvc, appURL+"/")
	socialHandler.RegisterCallback(api)
	billingHandler := NewBillingHandler(billing)
	billingHandler.RegisterWebhooks(app)

	protected := api.Group("", func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("userID", id)
		}
		return c.Next()
	})
	NewCreditHandler(credits).RegisterRoutes(protected)
	socialHandler.RegisterRoutes(protected)
	NewContentHandler(content).RegisterRoutes(protected)
	NewScheduleHandler(schedule).RegisterRoutes(protected)
	billingHandler.RegisterRoutes(protected)
	NewSettingsHandler(brands, authSvc).RegisterRoutes(protected)
	NewDashboardHandler(services.NewDashboardService(repositories.NewPostRepo(db), credits)).RegisterRoutes(protected)

	return &testEnv{app: app, db: db, states: states}
}

func (e *testEnv) profile(t *testing.T, credits int) string {
	t.Helper()
	id := uuid.NewString()
	p := &auth.Profile{Email: id + "@example.com", GoogleID: "g-" + id, Credits: credits}
	if err := e.db.Create(p).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p.ID.String()
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func callbackQuery(t *testing.T, resp *http.Response) url.Values {
	t.Helper()
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Scheme+"://"+loc.Host+loc.Path != appURL+"/dashboard/social" {
		t.Fatalf("redirected to %s", loc)
	}
	return loc.Query()
}

func TestCallback_Redirects(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := t.Context()
	userID := env.profile(t, 0)

	resp, _ := env.do(t, http.MethodGet, "/api/oauth/callback?error=access_denied", "", nil)
	if q := callbackQuery(t, resp); q.Get("error") != "access_denied" {
		t.Fatalf("error = %q", q.Get("error"))
	}

	resp, _ = env.do(t, http.MethodGet, "/api/oauth/callback?code=abc", "", nil)
	if q := callbackQuery(t, resp); q.Get("error") != CallbackMissingParams {
		t.Fatalf("error = %q", q.Get("error"))
	}

	resp, _ = env.do(t, http.MethodGet, "/api/oauth/callback?code=abc&state=forged", "", nil)
	if q := callbackQuery(t, resp); q.Get("error") != CallbackInvalidState {
		t.Fatalf("error = %q", q.Get("error"))
	}

	ghost, _ := env.states.Issue(ctx, social.Instagram, uuid.NewString())
	resp, _ = env.do(t, http.MethodGet, "/api/oauth/callback?code=good-code&state="+ghost, "", nil)
	if q := callbackQuery(t, resp); q.Get("error") != CallbackUserNotFound {
		t.Fatalf("error = %q", q.Get("error"))
	}

	state, _ := env.states.Issue(ctx, social.Instagram, userID)
	resp, _ = env.do(t, http.MethodGet, "/api/oauth/callback?code=bad-code&state="+state, "", nil)
	q := callbackQuery(t, resp)
	if !strings.Contains(q.Get("error"), "token exchange failed") {
		t.Fatalf("error = %q", q.Get("error"))
	}
	if !strings.Contains(resp.Header.Get("Location"), "error=token%20exchange%20failed") {
		t.Fatalf("error message not encoded: %s", resp.Header.Get("Location"))
	}

	state, _ = env.states.Issue(ctx, social.Instagram, userID)
	resp, _ = env.do(t, http.MethodGet, "/api/oauth/callback?code=good-code&state="+state, "", nil)
	q = callbackQuery(t, resp)
	if q.Get("success") != social.Instagram {
		t.Fatalf("success = %q", q.Get("success"))
	}
	var profile map[string]interface{}
	if err := json.Unmarshal([]byte(q.Get("profile")), &profile); err != nil || profile["username"] != "chai & co" {
		t.Fatalf("profile = %q (%v)", q.Get("profile"), err)
	}

	_, body := env.do(t, http.MethodGet, "/api/social/connections", userID, nil)
	if body["total"] != float64(1) {
		t.Fatalf("connections = %v", body)
	}
}

func TestConnect_ReturnsAuthURL(t *testing.T) {
	env := newTestEnv(t, "")
	userID := env.profile(t, 0)

	resp, body := env.do(t, http.MethodPost, "/api/social/instagram/connect", userID, nil)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(body["auth_url"].(string), "state=") {
		t.Fatalf("connect = %d %v", resp.StatusCode, body)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/social/myspace/connect", userID, nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("unsupported platform status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/api/social/instagram", userID, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("disconnect without connection status = %d", resp.StatusCode)
	}
}

func TestCredits(t *testing.T) {
	env := newTestEnv(t, "")
	userID := env.profile(t, 2)

	resp, _ := env.do(t, http.MethodGet, "/api/credits", "", nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	resp, body := env.do(t, http.MethodGet, "/api/credits", userID, nil)
	if resp.StatusCode != fiber.StatusOK || body["credits"] != float64(2) {
		t.Fatalf("credits = %d %v", resp.StatusCode, body)
	}
}

func TestGenerate_StatusCodes(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	env := newTestEnv(t, failing.URL)
	rich := env.profile(t, 1)
	broke := env.profile(t, 0)

	resp, body := env.do(t, http.MethodPost, "/api/content/generate", rich, map[string]string{"theme": "Bold"})
	if resp.StatusCode != fiber.StatusBadRequest || body["field"] != "topic" {
		t.Fatalf("missing topic = %d %v", resp.StatusCode, body)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/content/generate", broke, map[string]string{"topic": "Sale"})
	if resp.StatusCode != fiber.StatusPaymentRequired {
		t.Fatalf("no credits status = %d, want 402", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/content/generate", rich, map[string]string{"topic": "Sale"})
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("workflow failure status = %d, want 502", resp.StatusCode)
	}
	_, body = env.do(t, http.MethodGet, "/api/credits", rich, nil)
	if body["credits"] != float64(1) {
		t.Fatalf("credit not refunded: %v", body)
	}

	_, body = env.do(t, http.MethodPost, "/api/content/magic-sync", rich, nil)
	if body["suggested_theme"] != models.ThemeBold || body["fallback"] != true {
		t.Fatalf("magic sync = %v", body)
	}
}

func TestSchedule_Routes(t *testing.T) {
	env := newTestEnv(t, "")
	userID := env.profile(t, 0)

	resp, body := env.do(t, http.MethodPost, "/api/schedule", userID, map[string]string{
		"platform": "instagram", "scheduled_at": "2026-09-01T10:00:00Z", "caption": "Hi",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create = %d %v", resp.StatusCode, body)
	}
	id := body["id"].(string)

	resp, _ = env.do(t, http.MethodPost, "/api/schedule", userID, map[string]string{"platform": "instagram", "scheduled_at": "soon"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad date status = %d", resp.StatusCode)
	}

	_, body = env.do(t, http.MethodGet, "/api/schedule?date=2026-09-01", userID, nil)
	if body["total"] != float64(1) {
		t.Fatalf("list = %v", body)
	}

	_, body = env.do(t, http.MethodPost, "/api/schedule/"+id+"/toggle", userID, nil)
	if body["status"] != models.PostStatusPaused {
		t.Fatalf("toggle = %v", body)
	}
	resp, _ = env.do(t, http.MethodPatch, "/api/schedule/"+id+"/status", userID, map[string]string{"status": "posted"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status=posted code = %d", resp.StatusCode)
	}
	_, body = env.do(t, http.MethodPatch, "/api/schedule/"+id+"/reschedule", userID, map[string]string{"scheduled_at": "2026-09-02T10:00:00Z"})
	if body["scheduled_at"] == nil {
		t.Fatalf("reschedule = %v", body)
	}

	resp, _ = env.do(t, http.MethodDelete, "/api/schedule/"+id, uuid.NewString(), nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("foreign delete status = %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/api/schedule/"+id, userID, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
}

func TestBilling_WebhookSignature(t *testing.T) {
	env := newTestEnv(t, "")

	body := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_x"}}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "forged")
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("forged status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", payment.Sign(body, "hook-secret"))
	resp, err = env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("unknown order status = %d, want 200", resp.StatusCode)
	}

	userID := env.profile(t, 0)
	resp, _ = env.do(t, http.MethodPost, "/api/billing/purchase", userID, map[string]string{"plan_id": "sub_enterprise"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("custom plan status = %d", resp.StatusCode)
	}
	_, plans := env.do(t, http.MethodGet, "/api/billing/plans", userID, nil)
	if topups, _ := plans["topups"].([]interface{}); len(topups) != 2 {
		t.Fatalf("plans = %v", plans)
	}
	resp, _ = env.do(t, http.MethodPost, "/api/billing/orders/"+uuid.NewString()+"/sync", userID, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("sync unknown order status = %d, want 404", resp.StatusCode)
	}
}

func TestSettingsAndDashboard(t *testing.T) {
	env := newTestEnv(t, "")
	userID := env.profile(t, 4)

	_, body := env.do(t, http.MethodGet, "/api/settings", userID, nil)
	brand, _ := body["brand"].(map[string]interface{})
	if settings, _ := brand["post_settings"].(map[string]interface{}); settings["default_theme"] != models.ThemeMinimalist {
		t.Fatalf("default brand = %v", body)
	}

	resp, body := env.do(t, http.MethodPut, "/api/settings", userID, map[string]interface{}{
		"brand":       map[string]interface{}{"name": "Chai Point", "instagram_handle": "@chaipoint"},
		"preferences": map[string]interface{}{"notifications": false, "language": "hi", "timezone": "Asia/Kolkata"},
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("update = %d %v", resp.StatusCode, body)
	}
	brand, _ = body["brand"].(map[string]interface{})
	prefs, _ := body["preferences"].(map[string]interface{})
	if brand["name"] != "Chai Point" || brand["instagram_handle"] != "chaipoint" || prefs["language"] != "hi" {
		t.Fatalf("unexpected settings: %v", body)
	}

	resp, _ = env.do(t, http.MethodPut, "/api/settings", userID, map[string]interface{}{})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("empty update status = %d", resp.StatusCode)
	}

	_, body = env.do(t, http.MethodGet, "/api/dashboard", userID, nil)
	stats, _ := body["stats"].(map[string]interface{})
	if stats["credits_remaining"] != float64(4) || stats["total_posts"] != float64(0) {
		t.Fatalf("dashboard = %v", body)
	}
}

func TestHealth(t *testing.T) {
	db := testutil.OpenGormDB(t)
	app := fiber.New()
	app.Get("/health", NewHealthHandler(db, "Simulated Payment Gateway", "local").GetHealth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status after close = %d, want 503", resp.StatusCode)
	}
}
