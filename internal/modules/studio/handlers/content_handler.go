package handlers

import (
	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/gofiber/fiber/v2"
)

type ContentHandler struct {
	contentService *services.ContentService
}

func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

func (h *ContentHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/content/options", h.GetOptions)
	r.Post("/content/generate", h.Generate)
	r.Post("/content/magic-sync", h.MagicSync)
}

// GetOptions godoc
// @Summary Content options
// @Description Themes, aspect ratios and platforms offered on the create page, plus the credit cost
// @Tags Content
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} services.ContentOptions
// @Router /api/content/options [get]
func (h *ContentHandler) GetOptions(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	opts, err := h.contentService.Options(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to load options")
	}
	return c.JSON(opts)
}

// Generate godoc
// @Summary Generate post
// @Description Spend one credit to generate a branded post. The credit is refunded when generation fails.
// @Tags Content
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body services.GenerateRequest true "Generation request"
// @Success 200 {object} services.GenerateResult
// @Failure 400 {object} map[string]interface{}
// @Failure 402 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/content/generate [post]
func (h *ContentHandler) Generate(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	var req services.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.contentService.Generate(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err, "Failed to generate content")
	}
	return c.JSON(result)
}

// MagicSync godoc
// @Summary Magic Sync
// @Description Ask the workflow for a theme matching the user's connected accounts. Falls back to Bold.
// @Tags Content
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} services.MagicSyncResult
// @Router /api/content/magic-sync [post]
func (h *ContentHandler) MagicSync(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	return c.JSON(h.contentService.MagicSync(c.UserContext(), userID))
}
