package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/addinfi/makemyposts-be/internal/core/automation"
	"github.com/addinfi/makemyposts-be/internal/core/llm"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"gorm.io/gorm"
)

type stubCaptioner struct{ caption string }

func (s stubCaptioner) GetProviderName() string { return "stub" }

func (s stubCaptioner) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	return s.caption, nil
}

type contentFixture struct {
	db      *gorm.DB
	svc     *ContentService
	credits *CreditService
	brands  *BrandService
}

func newContentFixture(t *testing.T, urls ContentURLs, captions *llm.Service) *contentFixture {
	t.Helper()
	db := openDB(t)
	credits := newCredits(db)
	brands := NewBrandService(repositories.NewBrandRepo(db))
	schedule := NewScheduleService(repositories.NewPostRepo(db))
	svc := NewContentService(credits, brands, schedule, automation.NewClient(5*time.Second), captions, urls)
	return &contentFixture{db: db, svc: svc, credits: credits, brands: brands}
}

func TestGenerate_DeductsOneCredit(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `[{"imageUrl":"https://cdn.test/post.png","caption":"Fresh drop"}]`)
	f := newContentFixture(t, ContentURLs{Generate: hook.srv.URL}, nil)
	userID := createProfile(t, f.db, 2)
	ctx := context.Background()

	if _, err := f.brands.Save(ctx, userID, BrandInput{
		Name:         "Chai Point",
		PostSettings: models.PostSettings{DefaultTheme: models.ThemeFestive, PostFrequency: "weekly"},
	}); err != nil {
		t.Fatalf("Save brand: %v", err)
	}

	res, err := f.svc.Generate(ctx, userID, GenerateRequest{Topic: "Monsoon specials"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.ImageURL != "https://cdn.test/post.png" || res.Caption != "Fresh drop" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Theme != models.ThemeFestive || res.AspectRatio != "1:1" {
		t.Fatalf("defaults not applied: %+v", res)
	}
	if res.CreditsRemaining != 1 || balanceOf(t, f.credits, userID) != 1 {
		t.Fatalf("expected one credit spent, result says %d", res.CreditsRemaining)
	}

	calls := hook.calls()
	if len(calls) != 1 {
		t.Fatalf("webhook called %d times", len(calls))
	}
	body := calls[0]
	if body["topic"] != "Monsoon specials" || body["theme"] != models.ThemeFestive || body["aspectRatio"] != "1:1" || body["userId"] != userID {
		t.Fatalf("unexpected payload: %v", body)
	}
	if brand, _ := body["brand"].(map[string]interface{}); brand["name"] != "Chai Point" {
		t.Fatalf("brand missing from payload: %v", body["brand"])
	}
}

func TestGenerate_RefundsWhenWorkflowFails(t *testing.T) {
	hook := newWebhook(t, http.StatusInternalServerError, `{"message":"boom"}`)
	f := newContentFixture(t, ContentURLs{Generate: hook.srv.URL}, nil)
	userID := createProfile(t, f.db, 2)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, userID, GenerateRequest{Topic: "Sale"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if got := balanceOf(t, f.credits, userID); got != 2 {
		t.Fatalf("balance = %d, want 2 after refund", got)
	}

	history, err := f.credits.History(ctx, userID, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	reasons := map[string]int{}
	for _, tx := range history {
		reasons[tx.Reason] += tx.Delta
	}
	if reasons[models.CreditReasonGeneration] != -1 || reasons[models.CreditReasonGenerationRefund] != 1 {
		t.Fatalf("unexpected ledger: %v", reasons)
	}
}

func TestGenerate_KeepsImageWhenSchedulingFails(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"imageUrl":"https://cdn.test/post.png","caption":"Fresh drop"}`)
	f := newContentFixture(t, ContentURLs{Generate: hook.srv.URL}, nil)
	userID := createProfile(t, f.db, 2)
	ctx := context.Background()

	if err := f.db.Migrator().DropTable(&models.ScheduledPost{}); err != nil {
		t.Fatalf("drop posts table: %v", err)
	}

	res, err := f.svc.Generate(ctx, userID, GenerateRequest{
		Topic:      "Sale",
		Platform:   "instagram",
		ScheduleAt: "2026-05-01T09:00:00Z",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.ImageURL != "https://cdn.test/post.png" || res.Post != nil || res.ScheduleError == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.CreditsRemaining != 1 || balanceOf(t, f.credits, userID) != 1 {
		t.Fatalf("expected the credit to stay spent, result says %d", res.CreditsRemaining)
	}
}

func TestGenerate_Rejections(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{}`)
	f := newContentFixture(t, ContentURLs{Generate: hook.srv.URL}, nil)
	broke := createProfile(t, f.db, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		req  GenerateRequest
		want func(error) bool
	}{
		{"no topic", GenerateRequest{Topic: "  "}, isValidation},
		{"bad theme", GenerateRequest{Topic: "x", Theme: "Neon"}, isValidation},
		{"bad ratio", GenerateRequest{Topic: "x", AspectRatio: "3:2"}, isValidation},
		{"platform without time", GenerateRequest{Topic: "x", Platform: "instagram"}, isValidation},
		{"no credits", GenerateRequest{Topic: "x"}, func(err error) bool { return errors.Is(err, ErrInsufficientCredits) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Generate(ctx, broke, tt.req); !tt.want(err) {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
	if n := len(hook.calls()); n != 0 {
		t.Fatalf("webhook called %d times for rejected requests", n)
	}
}

func TestGenerate_NotConfiguredKeepsCredits(t *testing.T) {
	f := newContentFixture(t, ContentURLs{}, nil)
	userID := createProfile(t, f.db, 2)

	_, err := f.svc.Generate(context.Background(), userID, GenerateRequest{Topic: "x"})
	if !errors.Is(err, automation.ErrWebhookNotConfigured) {
		t.Fatalf("err = %v, want ErrWebhookNotConfigured", err)
	}
	if got := balanceOf(t, f.credits, userID); got != 2 {
		t.Fatalf("balance = %d, want 2", got)
	}
}

func TestGenerate_DraftsCaptionAndSchedules(t *testing.T) {
	hook := newWebhook(t, http.StatusOK, `{"image_url":"https://cdn.test/a.png"}`)
	captions := llm.NewServiceWithProvider(stubCaptioner{caption: "\"Rainy day, hot chai.\""})
	f := newContentFixture(t, ContentURLs{Generate: hook.srv.URL}, captions)
	userID := createProfile(t, f.db, 1)

	res, err := f.svc.Generate(context.Background(), userID, GenerateRequest{
		Topic:       "Chai",
		AspectRatio: "4:5",
		Platform:    "instagram",
		ScheduleAt:  "2026-07-01T08:00:00Z",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Caption != "Rainy day, hot chai." {
		t.Fatalf("caption = %q", res.Caption)
	}
	if res.Post == nil || res.Post.Status != models.PostStatusScheduled || res.Post.ImageURL != "https://cdn.test/a.png" {
		t.Fatalf("expected scheduled post, got %+v", res.Post)
	}
}

func TestMagicSync(t *testing.T) {
	ok := newWebhook(t, http.StatusOK, `{"suggestedTheme":"Festive"}`)
	f := newContentFixture(t, ContentURLs{MagicSync: ok.srv.URL}, nil)
	res := f.svc.MagicSync(context.Background(), "user-1")
	if res.SuggestedTheme != models.ThemeFestive || res.Fallback {
		t.Fatalf("unexpected result: %+v", res)
	}
	if calls := ok.calls(); len(calls) != 1 || calls[0]["userId"] != "user-1" {
		t.Fatalf("unexpected calls: %v", calls)
	}

	down := newWebhook(t, http.StatusBadGateway, ``)
	f = newContentFixture(t, ContentURLs{MagicSync: down.srv.URL}, nil)
	res = f.svc.MagicSync(context.Background(), "user-1")
	if res.SuggestedTheme != models.ThemeBold || !res.Fallback {
		t.Fatalf("expected Bold fallback, got %+v", res)
	}

	odd := newWebhook(t, http.StatusOK, `{"suggestedTheme":"Vaporwave"}`)
	f = newContentFixture(t, ContentURLs{MagicSync: odd.srv.URL}, nil)
	if res = f.svc.MagicSync(context.Background(), "user-1"); !res.Fallback {
		t.Fatalf("unknown theme should fall back: %+v", res)
	}
}

func isValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
