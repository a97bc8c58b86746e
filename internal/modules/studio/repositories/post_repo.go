package repositories

import (
	"context"
	"time"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DueStatuses are the statuses the publisher picks up
var DueStatuses = []string{models.PostStatusPending, models.PostStatusScheduled}

type PostRepo interface {
	Create(ctx context.Context, post *models.ScheduledPost) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledPost, error)
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.ScheduledPost, error)
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.ScheduledPost, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ScheduledPost, error)
	Count(ctx context.Context, userID uuid.UUID, statuses ...string) (int64, error)
	UpdateIfStatus(ctx context.Context, post *models.ScheduledPost, expected string) (bool, error)
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledPost, error)
	MarkPosted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

type postRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepo {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *models.ScheduledPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListBetween returns posts with from <= scheduled_at <= to, earliest first
func (r *postRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_at >= ? AND scheduled_at <= ?", userID, from.UTC(), to.UTC()).
		Order("scheduled_at ASC").
		Find(&posts).Error
	return posts, err
}

func (r *postRepo) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&posts).Error
	return posts, err
}

func (r *postRepo) Count(ctx context.Context, userID uuid.UUID, statuses ...string) (int64, error) {
	var n int64
	query := r.db.WithContext(ctx).Model(&models.ScheduledPost{}).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Count(&n).Error
	return n, err
}

// UpdateIfStatus writes the post's status, time and error message only while
// the stored status is still expected. It reports false when the row moved on,
// e.g. a sweep claimed it for publishing.
func (r *postRepo) UpdateIfStatus(ctx context.Context, post *models.ScheduledPost, expected string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ScheduledPost{}).
		Where("id = ? AND user_id = ? AND status = ?", post.ID, post.UserID, expected).
		Updates(map[string]interface{}{
			"status":        post.Status,
			"scheduled_at":  post.ScheduledAt,
			"error_message": post.ErrorMessage,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *postRepo) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.ScheduledPost{})
	return res.RowsAffected > 0, res.Error
}

// ClaimDue moves due posts to publishing and returns the ones this call won.
// Each row is claimed with a conditional update so concurrent sweeps never
// pick the same post.
func (r *postRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledPost, error) {
	db := r.db.WithContext(ctx)

	var due []models.ScheduledPost
	err := db.Where("status IN ? AND scheduled_at <= ?", DueStatuses, now.UTC()).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]models.ScheduledPost, 0, len(due))
	for _, post := range due {
		res := db.Model(&models.ScheduledPost{}).
			Where("id = ? AND status IN ?", post.ID, DueStatuses).
			Updates(map[string]interface{}{"status": models.PostStatusPublishing, "error_message": ""})
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 1 {
			post.Status = models.PostStatusPublishing
			claimed = append(claimed, post)
		}
	}
	return claimed, nil
}

func (r *postRepo) MarkPosted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ScheduledPost{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.PostStatusPosted,
			"posted_at":     at,
			"error_message": "",
		}).Error
}

func (r *postRepo) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	return r.db.WithContext(ctx).Model(&models.ScheduledPost{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.PostStatusFailed,
			"error_message": message,
		}).Error
}
