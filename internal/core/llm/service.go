package llm

import (
	"context"
	"log"
	"strings"
)

// Service drafts captions; a nil provider disables it
type Service struct {
	provider Provider
}

func NewService(cfg ProviderConfig) *Service {
	provider := NewProvider(cfg)
	if provider == nil {
		log.Println("⚠️ OPENAI_API_KEY is empty, caption drafting disabled")
	} else {
		log.Printf("🤖 Caption drafting via %s (model: %s)", provider.GetProviderName(), cfg.Model)
	}
	return &Service{provider: provider}
}

// NewServiceWithProvider creates service with custom provider (for testing)
func NewServiceWithProvider(provider Provider) *Service {
	return &Service{provider: provider}
}

func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// DraftCaption asks the model for a caption
func (s *Service) DraftCaption(ctx context.Context, req CaptionRequest) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	system, user := BuildCaptionPrompt(req)
	caption, err := s.provider.GenerateResponse(ctx, system, user)
	if err != nil {
		return "", err
	}
	return strings.Trim(caption, "\"“” \n"), nil
}
