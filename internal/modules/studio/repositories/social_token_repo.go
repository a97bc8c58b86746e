package repositories

import (
	"context"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SocialTokenRepo interface {
	Upsert(ctx context.Context, token *models.SocialToken) error
	Get(ctx context.Context, userID uuid.UUID, platform string) (*models.SocialToken, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SocialToken, error)
	Delete(ctx context.Context, userID uuid.UUID, platform string) (bool, error)
}

type socialTokenRepo struct {
	db *gorm.DB
}

func NewSocialTokenRepo(db *gorm.DB) SocialTokenRepo {
	return &socialTokenRepo{db: db}
}

// Upsert keeps one row per (user_id, platform)
func (r *socialTokenRepo) Upsert(ctx context.Context, token *models.SocialToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "expires_at", "user_profile", "updated_at",
		}),
	}).Create(token).Error
}

func (r *socialTokenRepo) Get(ctx context.Context, userID uuid.UUID, platform string) (*models.SocialToken, error) {
	var token models.SocialToken
	err := r.db.WithContext(ctx).Where("user_id = ? AND platform = ?", userID, platform).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *socialTokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SocialToken, error) {
	var tokens []models.SocialToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("platform ASC").Find(&tokens).Error
	return tokens, err
}

func (r *socialTokenRepo) Delete(ctx context.Context, userID uuid.UUID, platform string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND platform = ?", userID, platform).Delete(&models.SocialToken{})
	return res.RowsAffected > 0, res.Error
}
