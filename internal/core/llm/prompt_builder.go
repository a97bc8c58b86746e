package llm

import (
	"fmt"
	"strings"
)

// CaptionRequest is what the studio knows about a post when drafting its caption
type CaptionRequest struct {
	Topic           string
	Theme           string
	Platform        string
	BrandName       string
	InstagramHandle string
	BusinessName    string
	Address         string
}

// BuildCaptionPrompt returns the system prompt and user message for a caption
func BuildCaptionPrompt(req CaptionRequest) (string, string) {
	var sb strings.Builder

	sb.WriteString("You write short social media captions for small businesses.\n")
	if req.BrandName != "" {
		sb.WriteString(fmt.Sprintf("Brand: %s.\n", req.BrandName))
	}
	if req.BusinessName != "" {
		sb.WriteString(fmt.Sprintf("Business listing: %s", req.BusinessName))
		if req.Address != "" {
			sb.WriteString(fmt.Sprintf(", %s", req.Address))
		}
		sb.WriteString(".\n")
	}
	if req.InstagramHandle != "" {
		sb.WriteString(fmt.Sprintf("Mention @%s once.\n", strings.TrimPrefix(req.InstagramHandle, "@")))
	}

	sb.WriteString("Rules:\n")
	sb.WriteString("- At most 2 sentences and 5 hashtags\n")
	sb.WriteString("- No quotes around the caption\n")
	sb.WriteString("- Match the visual theme's mood\n")

	platform := req.Platform
	if platform == "" {
		platform = "instagram"
	}
	user := fmt.Sprintf("Write a %s caption about %q. Visual theme: %s.", platform, req.Topic, req.Theme)

	return sb.String(), user
}
