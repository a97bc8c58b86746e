package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BrandInput is the editable part of a brand
type BrandInput struct {
	Name            string              `json:"name"`
	LogoURL         string              `json:"logo_url"`
	InstagramHandle string              `json:"instagram_handle"`
	GMBDetails      models.GMBDetails   `json:"gmb_details"`
	PostSettings    models.PostSettings `json:"post_settings"`
}

type BrandService struct {
	repo repositories.BrandRepo
}

func NewBrandService(repo repositories.BrandRepo) *BrandService {
	return &BrandService{repo: repo}
}

// Get returns the user's brand, or an unsaved default when there is none
func (s *BrandService) Get(ctx context.Context, userID string) (*models.Brand, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	brand, err := s.repo.GetByUserID(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Brand{
			UserID:       uid,
			PostSettings: datatypes.NewJSONType(models.DefaultPostSettings()),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load brand: %w", err)
	}
	return brand, nil
}

// Save validates and upserts the brand
func (s *BrandService) Save(ctx context.Context, userID string, in BrandInput) (*models.Brand, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	settings := in.PostSettings
	if settings.DefaultTheme == "" {
		settings.DefaultTheme = models.ThemeMinimalist
	}
	if !models.Contains(models.Themes, settings.DefaultTheme) {
		return nil, invalid("post_settings.default_theme", "must be one of %s", strings.Join(models.Themes, ", "))
	}
	if settings.PostFrequency == "" {
		settings.PostFrequency = "daily"
	}
	if !models.Contains(models.PostFrequencies, settings.PostFrequency) {
		return nil, invalid("post_settings.post_frequency", "must be one of %s", strings.Join(models.PostFrequencies, ", "))
	}

	name := strings.TrimSpace(in.Name)
	if len(name) > 120 {
		return nil, invalid("name", "must be at most 120 characters")
	}

	brand := &models.Brand{
		UserID:          uid,
		Name:            name,
		LogoURL:         strings.TrimSpace(in.LogoURL),
		InstagramHandle: strings.TrimPrefix(strings.TrimSpace(in.InstagramHandle), "@"),
		GMBDetails: datatypes.NewJSONType(models.GMBDetails{
			BusinessName: strings.TrimSpace(in.GMBDetails.BusinessName),
			Address:      strings.TrimSpace(in.GMBDetails.Address),
		}),
		PostSettings: datatypes.NewJSONType(settings),
	}

	if err := s.repo.Upsert(ctx, brand); err != nil {
		return nil, fmt.Errorf("failed to save brand: %w", err)
	}
	return s.repo.GetByUserID(ctx, uid)
}

// SetLogo stores a freshly uploaded logo on the brand and returns the
// storage id of the logo it replaced, if any.
func (s *BrandService) SetLogo(ctx context.Context, userID, logoURL, publicID string) (string, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return "", err
	}
	var previous string
	if brand, err := s.repo.GetByUserID(ctx, uid); err == nil {
		previous = brand.LogoPublicID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load brand: %w", err)
	}
	if err := s.repo.UpdateLogo(ctx, uid, logoURL, publicID); err != nil {
		return "", fmt.Errorf("failed to save logo: %w", err)
	}
	return previous, nil
}
