package repositories

import (
	"context"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BrandRepo interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Brand, error)
	Upsert(ctx context.Context, brand *models.Brand) error
	UpdateLogo(ctx context.Context, userID uuid.UUID, logoURL, publicID string) error
}

type brandRepo struct {
	db *gorm.DB
}

func NewBrandRepo(db *gorm.DB) BrandRepo {
	return &brandRepo{db: db}
}

func (r *brandRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&brand).Error
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

// Upsert writes every editable column, keyed by user_id
func (r *brandRepo) Upsert(ctx context.Context, brand *models.Brand) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "logo_url", "instagram_handle", "gmb_details", "post_settings", "updated_at",
		}),
	}).Create(brand).Error
}

// UpdateLogo sets the logo, creating the brand row when the user has none yet
func (r *brandRepo) UpdateLogo(ctx context.Context, userID uuid.UUID, logoURL, publicID string) error {
	brand := &models.Brand{UserID: userID, LogoURL: logoURL, LogoPublicID: publicID}
	brand.PostSettings = datatypes.NewJSONType(models.DefaultPostSettings())
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"logo_url", "logo_public_id", "updated_at"}),
	}).Create(brand).Error
}
