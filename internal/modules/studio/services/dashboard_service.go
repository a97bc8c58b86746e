package services

import (
	"context"
	"fmt"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
)

// RecentPostsLimit is how many posts the overview shows
const RecentPostsLimit = 5

type DashboardStats struct {
	TotalPosts       int64 `json:"total_posts"`
	ScheduledPosts   int64 `json:"scheduled_posts"`
	CreditsRemaining int   `json:"credits_remaining"`
}

type QuickAction struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Href        string `json:"href"`
}

type Overview struct {
	Stats        DashboardStats         `json:"stats"`
	RecentPosts  []models.ScheduledPost `json:"recent_posts"`
	QuickActions []QuickAction          `json:"quick_actions"`
}

var quickActions = []QuickAction{
	{Title: "Create Post", Description: "Generate a branded post", Href: "/dashboard/create"},
	{Title: "Magic Sync", Description: "Connect your socials and match your style", Href: "/dashboard/social"},
	{Title: "Schedule", Description: "Plan your content calendar", Href: "/dashboard/schedule"},
}

type DashboardService struct {
	posts   repositories.PostRepo
	credits *CreditService
}

func NewDashboardService(posts repositories.PostRepo, credits *CreditService) *DashboardService {
	return &DashboardService{posts: posts, credits: credits}
}

// Overview counts pending and scheduled posts as scheduled
func (s *DashboardService) Overview(ctx context.Context, userID string) (*Overview, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.credits.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.posts.Count(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	scheduled, err := s.posts.Count(ctx, uid, repositories.DueStatuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to count scheduled posts: %w", err)
	}
	recent, err := s.posts.Recent(ctx, uid, RecentPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent posts: %w", err)
	}

	return &Overview{
		Stats: DashboardStats{
			TotalPosts:       total,
			ScheduledPosts:   scheduled,
			CreditsRemaining: balance,
		},
		RecentPosts:  recent,
		QuickActions: quickActions,
	}, nil
}
