package handlers

import (
	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/gofiber/fiber/v2"
)

type SettingsHandler struct {
	brandService *services.BrandService
	authService  *auth.Service
}

func NewSettingsHandler(brandService *services.BrandService, authService *auth.Service) *SettingsHandler {
	return &SettingsHandler{brandService: brandService, authService: authService}
}

func (h *SettingsHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
}

// SettingsResponse is the brand plus the account preferences
type SettingsResponse struct {
	Brand       *models.Brand    `json:"brand"`
	Preferences auth.Preferences `json:"preferences"`
	Email       string           `json:"email"`
	Name        string           `json:"name"`
}

// UpdateSettingsRequest replaces whichever parts are present
type UpdateSettingsRequest struct {
	Brand       *services.BrandInput `json:"brand"`
	Preferences *auth.Preferences    `json:"preferences"`
}

// GetSettings godoc
// @Summary Get settings
// @Description Brand identity and account preferences
// @Tags Settings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} SettingsResponse
// @Router /api/settings [get]
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	return h.respond(c, userID)
}

// UpdateSettings godoc
// @Summary Update settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body UpdateSettingsRequest true "Settings"
// @Success 200 {object} SettingsResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/settings [put]
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Brand == nil && req.Preferences == nil {
		return badRequest(c, "brand or preferences is required")
	}

	ctx := c.UserContext()
	if req.Brand != nil {
		if _, err := h.brandService.Save(ctx, userID, *req.Brand); err != nil {
			return respondError(c, err, "Failed to save brand")
		}
	}
	if req.Preferences != nil {
		if _, err := h.authService.UpdatePreferences(ctx, userID, *req.Preferences); err != nil {
			return respondError(c, err, "Failed to save preferences")
		}
	}
	return h.respond(c, userID)
}

func (h *SettingsHandler) respond(c *fiber.Ctx, userID string) error {
	ctx := c.UserContext()
	profile, err := h.authService.Profile(ctx, userID)
	if err != nil {
		return respondError(c, err, "Failed to load profile")
	}
	brand, err := h.brandService.Get(ctx, userID)
	if err != nil {
		return respondError(c, err, "Failed to load brand")
	}
	return c.JSON(SettingsResponse{
		Brand:       brand,
		Preferences: profile.Preferences.Data(),
		Email:       profile.Email,
		Name:        profile.Name,
	})
}
