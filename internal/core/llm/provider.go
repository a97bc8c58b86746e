package llm

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("caption model is not configured")

// Provider is a chat-completion backend
type Provider interface {
	GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error)
	GetProviderName() string
}

// ProviderConfig describes an OpenAI-compatible endpoint.
// BaseURL lets DeepSeek, Groq or a local gateway stand in for OpenAI.
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewProvider returns nil when no API key is set; callers treat that as
// "drafting disabled".
func NewProvider(cfg ProviderConfig) Provider {
	if cfg.APIKey == "" {
		return nil
	}
	return NewOpenAIProvider(cfg)
}
