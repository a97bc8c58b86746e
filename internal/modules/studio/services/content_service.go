package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/addinfi/makemyposts-be/internal/core/automation"
	"github.com/addinfi/makemyposts-be/internal/core/llm"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/shared/utils"
	"github.com/google/uuid"
)

// GenerationCost is the credit price of one generated post
const GenerationCost = 1

// MagicSyncFallbackTheme is suggested when the workflow cannot answer
const MagicSyncFallbackTheme = models.ThemeBold

// GenerateRequest asks the workflow for a branded post image
type GenerateRequest struct {
	Topic       string `json:"topic"`
	Theme       string `json:"theme"`
	AspectRatio string `json:"aspect_ratio"`
	Caption     string `json:"caption"`
	Platform    string `json:"platform"`
	ScheduleAt  string `json:"schedule_at"`
}

// GenerateResult is the generated post and the balance after paying for it
type GenerateResult struct {
	ImageURL         string                 `json:"image_url"`
	Caption          string                 `json:"caption"`
	Theme            string                 `json:"theme"`
	AspectRatio      string                 `json:"aspect_ratio"`
	CreditsRemaining int                    `json:"credits_remaining"`
	Post             *models.ScheduledPost  `json:"post,omitempty"`
	ScheduleError    string                 `json:"schedule_error,omitempty"`
	Workflow         map[string]interface{} `json:"workflow,omitempty"`
}

// MagicSyncResult is the style the workflow suggests for the user's brand
type MagicSyncResult struct {
	SuggestedTheme string `json:"suggested_theme"`
	Fallback       bool   `json:"fallback"`
	Message        string `json:"message,omitempty"`
}

// ContentOptions are the choices offered on the create page
type ContentOptions struct {
	Themes       []string `json:"themes"`
	AspectRatios []string `json:"aspect_ratios"`
	Platforms    []string `json:"platforms"`
	Cost         int      `json:"cost"`
	DefaultTheme string   `json:"default_theme"`
	Captions     bool     `json:"captions"`
}

// ContentURLs are the workflow webhooks content generation calls
type ContentURLs struct {
	Generate  string
	MagicSync string
}

type ContentService struct {
	credits  *CreditService
	brands   *BrandService
	schedule *ScheduleService
	workflow *automation.Client
	captions *llm.Service
	urls     ContentURLs
}

func NewContentService(
	credits *CreditService,
	brands *BrandService,
	schedule *ScheduleService,
	workflow *automation.Client,
	captions *llm.Service,
	urls ContentURLs,
) *ContentService {
	return &ContentService{
		credits:  credits,
		brands:   brands,
		schedule: schedule,
		workflow: workflow,
		captions: captions,
		urls:     urls,
	}
}

func (s *ContentService) Options(ctx context.Context, userID string) (*ContentOptions, error) {
	brand, err := s.brands.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	theme := brand.PostSettings.Data().DefaultTheme
	if !models.Contains(models.Themes, theme) {
		theme = models.ThemeMinimalist
	}
	return &ContentOptions{
		Themes:       models.Themes,
		AspectRatios: models.AspectRatios,
		Platforms:    models.Platforms,
		Cost:         GenerationCost,
		DefaultTheme: theme,
		Captions:     s.captions.Enabled(),
	}, nil
}

// Generate charges one credit and triggers the generation workflow. The
// credit is refunded when the workflow fails. A post that cannot be
// scheduled afterwards is still returned, with ScheduleError set.
func (s *ContentService) Generate(ctx context.Context, userID string, req GenerateRequest) (*GenerateResult, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, invalid("topic", "is required")
	}

	brand, err := s.brands.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Theme == "" {
		req.Theme = brand.PostSettings.Data().DefaultTheme
	}
	if req.Theme == "" {
		req.Theme = models.ThemeMinimalist
	}
	if !models.Contains(models.Themes, req.Theme) {
		return nil, invalid("theme", "must be one of %s", strings.Join(models.Themes, ", "))
	}
	if req.AspectRatio == "" {
		req.AspectRatio = models.AspectRatios[0]
	}
	if !models.Contains(models.AspectRatios, req.AspectRatio) {
		return nil, invalid("aspect_ratio", "must be one of %s", strings.Join(models.AspectRatios, ", "))
	}
	scheduling := req.ScheduleAt != "" || req.Platform != ""
	if scheduling && (req.ScheduleAt == "" || req.Platform == "") {
		return nil, invalid("schedule_at", "schedule_at and platform must be given together")
	}
	if scheduling {
		if !models.Contains(models.Platforms, strings.ToLower(req.Platform)) {
			return nil, invalid("platform", "must be one of %s", strings.Join(models.Platforms, ", "))
		}
		if _, err := parseTime(req.ScheduleAt); err != nil {
			return nil, err
		}
	}

	if s.urls.Generate == "" {
		return nil, automation.ErrWebhookNotConfigured
	}

	ref := uuid.NewString()
	balance, err := s.credits.Deduct(ctx, userID, GenerationCost, models.CreditReasonGeneration, ref)
	if err != nil {
		return nil, err
	}

	gmb := brand.GMBDetails.Data()
	payload := map[string]interface{}{
		"topic":       req.Topic,
		"theme":       req.Theme,
		"aspectRatio": req.AspectRatio,
		"userId":      userID,
		"brand": map[string]interface{}{
			"name":            brand.Name,
			"logoUrl":         brand.LogoURL,
			"instagramHandle": brand.InstagramHandle,
			"businessName":    gmb.BusinessName,
			"address":         gmb.Address,
			"watermark":       brand.PostSettings.Data().Watermark,
		},
	}

	out, err := s.workflow.Trigger(ctx, s.urls.Generate, payload)
	if err != nil {
		utils.LogError("generation workflow failed", err, map[string]interface{}{"user_id": userID, "reference": ref})
		if _, rerr := s.credits.Add(ctx, userID, GenerationCost, models.CreditReasonGenerationRefund, ref); rerr != nil {
			log.Printf("❌ Failed to refund generation credit for %s: %v", userID, rerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	result := &GenerateResult{
		ImageURL:         firstString(out, "imageUrl", "image_url", "url"),
		Caption:          firstString(out, "caption", "text"),
		Theme:            req.Theme,
		AspectRatio:      req.AspectRatio,
		CreditsRemaining: balance,
		Workflow:         out,
	}
	if result.Caption == "" {
		result.Caption = req.Caption
	}
	if result.Caption == "" && s.captions.Enabled() {
		caption, err := s.captions.DraftCaption(ctx, llm.CaptionRequest{
			Topic:           req.Topic,
			Theme:           req.Theme,
			Platform:        req.Platform,
			BrandName:       brand.Name,
			InstagramHandle: brand.InstagramHandle,
			BusinessName:    gmb.BusinessName,
			Address:         gmb.Address,
		})
		if err != nil && !errors.Is(err, llm.ErrNotConfigured) {
			log.Printf("⚠️ Caption drafting failed for %s: %v", userID, err)
		}
		result.Caption = caption
	}

	if scheduling {
		post, err := s.schedule.Create(ctx, userID, CreatePostRequest{
			Caption:     result.Caption,
			ImageURL:    result.ImageURL,
			Platform:    req.Platform,
			ScheduledAt: req.ScheduleAt,
			Theme:       req.Theme,
			AspectRatio: req.AspectRatio,
		})
		if err != nil {
			// The image is already paid for, so the user still gets it and
			// can schedule it again.
			utils.LogError("scheduling generated post failed", err, map[string]interface{}{"user_id": userID, "reference": ref})
			result.ScheduleError = err.Error()
		} else {
			result.Post = post
		}
	}

	log.Printf("🎨 Generated %s post for %s (balance %d)", req.Theme, userID, balance)
	return result, nil
}

// MagicSync asks the workflow for a suggested theme. Any failure yields
// the fallback theme instead of an error.
func (s *ContentService) MagicSync(ctx context.Context, userID string) *MagicSyncResult {
	out, err := s.workflow.Trigger(ctx, s.urls.MagicSync, map[string]interface{}{"userId": userID})
	if err != nil {
		log.Printf("⚠️ Magic Sync failed for %s, falling back to %s: %v", userID, MagicSyncFallbackTheme, err)
		return &MagicSyncResult{SuggestedTheme: MagicSyncFallbackTheme, Fallback: true, Message: err.Error()}
	}

	theme := firstString(out, "suggestedTheme", "suggested_theme", "theme")
	if !models.Contains(models.Themes, theme) {
		return &MagicSyncResult{
			SuggestedTheme: MagicSyncFallbackTheme,
			Fallback:       true,
			Message:        fmt.Sprintf("unrecognized theme %q", theme),
		}
	}
	return &MagicSyncResult{SuggestedTheme: theme}
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v := automation.String(m, k); v != "" {
			return v
		}
	}
	return ""
}
