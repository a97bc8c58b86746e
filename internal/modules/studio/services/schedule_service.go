package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePostRequest schedules a post
type CreatePostRequest struct {
	Caption     string `json:"caption"`
	ImageURL    string `json:"image_url"`
	Platform    string `json:"platform"`
	ScheduledAt string `json:"scheduled_at"` // RFC3339
	Theme       string `json:"theme"`
	AspectRatio string `json:"aspect_ratio"`
}

// userSettableStatuses are the statuses a user may set directly. The rest
// belong to the publisher.
var userSettableStatuses = []string{models.PostStatusPending, models.PostStatusScheduled, models.PostStatusPaused}

type ScheduleService struct {
	posts repositories.PostRepo
	now   func() time.Time
}

func NewScheduleService(posts repositories.PostRepo) *ScheduleService {
	return &ScheduleService{posts: posts, now: time.Now}
}

// Create stores a post with status scheduled
func (s *ScheduleService) Create(ctx context.Context, userID string, req CreatePostRequest) (*models.ScheduledPost, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if !models.Contains(models.Platforms, platform) {
		return nil, invalid("platform", "must be one of %s", strings.Join(models.Platforms, ", "))
	}
	at, err := parseTime(req.ScheduledAt)
	if err != nil {
		return nil, err
	}
	if req.Theme != "" && !models.Contains(models.Themes, req.Theme) {
		return nil, invalid("theme", "must be one of %s", strings.Join(models.Themes, ", "))
	}
	if req.AspectRatio != "" && !models.Contains(models.AspectRatios, req.AspectRatio) {
		return nil, invalid("aspect_ratio", "must be one of %s", strings.Join(models.AspectRatios, ", "))
	}

	post := &models.ScheduledPost{
		UserID:      uid,
		Caption:     req.Caption,
		ImageURL:    req.ImageURL,
		Platform:    platform,
		ScheduledAt: at,
		Status:      models.PostStatusScheduled,
		Theme:       req.Theme,
		AspectRatio: req.AspectRatio,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create scheduled post: %w", err)
	}
	return post, nil
}

// ListForDay returns the user's posts scheduled on day (YYYY-MM-DD) in the
// tz time zone, earliest first. Empty day means today; empty tz means UTC.
func (s *ScheduleService) ListForDay(ctx context.Context, userID, day, tz string) ([]models.ScheduledPost, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, invalid("tz", "unknown time zone %q", tz)
		}
	}

	var start time.Time
	if day == "" {
		now := s.now().In(loc)
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	} else {
		if start, err = time.ParseInLocation("2006-01-02", day, loc); err != nil {
			return nil, invalid("date", "must be YYYY-MM-DD")
		}
	}
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	posts, err := s.posts.ListBetween(ctx, uid, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled posts: %w", err)
	}
	return posts, nil
}

func (s *ScheduleService) Delete(ctx context.Context, userID, postID string) error {
	uid, pid, err := parseIDs(userID, postID)
	if err != nil {
		return err
	}
	deleted, err := s.posts.Delete(ctx, uid, pid)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled post: %w", err)
	}
	if !deleted {
		return ErrPostNotFound
	}
	return nil
}

// ToggleStatus pauses an active post or resumes a paused one
func (s *ScheduleService) ToggleStatus(ctx context.Context, userID, postID string) (*models.ScheduledPost, error) {
	post, err := s.get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	current := post.Status
	switch current {
	case models.PostStatusPosted, models.PostStatusPublishing:
		return nil, fmt.Errorf("%w: post is %s", ErrInvalidStatusChange, current)
	case models.PostStatusPaused:
		post.Status = models.PostStatusScheduled
	default:
		post.Status = models.PostStatusPaused
	}
	return s.save(ctx, post, current)
}

// UpdateStatus sets pending, scheduled or paused on a post that has not been published
func (s *ScheduleService) UpdateStatus(ctx context.Context, userID, postID, status string) (*models.ScheduledPost, error) {
	if !models.Contains(userSettableStatuses, status) {
		return nil, invalid("status", "must be one of %s", strings.Join(userSettableStatuses, ", "))
	}
	post, err := s.get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPosted || post.Status == models.PostStatusPublishing {
		return nil, fmt.Errorf("%w: post is %s", ErrInvalidStatusChange, post.Status)
	}

	current := post.Status
	post.Status = status
	return s.save(ctx, post, current)
}

// Reschedule moves a post to a new RFC3339 time. A failed post is put back
// in the schedule.
func (s *ScheduleService) Reschedule(ctx context.Context, userID, postID, when string) (*models.ScheduledPost, error) {
	at, err := parseTime(when)
	if err != nil {
		return nil, err
	}
	post, err := s.get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPosted || post.Status == models.PostStatusPublishing {
		return nil, fmt.Errorf("%w: post is %s", ErrInvalidStatusChange, post.Status)
	}

	current := post.Status
	post.ScheduledAt = at
	if current == models.PostStatusFailed {
		post.Status = models.PostStatusScheduled
		post.ErrorMessage = ""
	}
	return s.save(ctx, post, current)
}

// save writes the change only if the post still has the status it was read
// with, so a post claimed by the publisher in the meantime is left alone.
func (s *ScheduleService) save(ctx context.Context, post *models.ScheduledPost, current string) (*models.ScheduledPost, error) {
	ok, err := s.posts.UpdateIfStatus(ctx, post, current)
	if err != nil {
		return nil, fmt.Errorf("failed to update scheduled post: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: post changed while updating", ErrInvalidStatusChange)
	}
	return post, nil
}

func (s *ScheduleService) get(ctx context.Context, userID, postID string) (*models.ScheduledPost, error) {
	uid, pid, err := parseIDs(userID, postID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetForUser(ctx, uid, pid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled post: %w", err)
	}
	return post, nil
}

func parseIDs(userID, postID string) (uuid.UUID, uuid.UUID, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	pid, err := uuid.Parse(postID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrPostNotFound
	}
	return uid, pid, nil
}

// parseTime accepts RFC3339 with or without fractional seconds and stores UTC
func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, invalid("scheduled_at", "must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}
