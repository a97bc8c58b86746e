package upload

import (
	"context"
	"errors"
	"log"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/gofiber/fiber/v2"
)

// LogoSink records a freshly uploaded logo and returns the public ID of the
// logo it replaced, or "" when there was none.
type LogoSink interface {
	SetLogo(ctx context.Context, userID, logoURL, publicID string) (string, error)
}

// Handler handles file upload HTTP requests
type Handler struct {
	uploadService *Service
	sink          LogoSink
}

// NewHandler creates a new upload handler
func NewHandler(uploadService *Service, sink LogoSink) *Handler {
	return &Handler{
		uploadService: uploadService,
		sink:          sink,
	}
}

// RegisterRoutes mounts the logo upload under an authenticated router
func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Post("/settings/logo", h.UploadLogo)
}

// UploadLogo godoc
// @Summary Upload brand logo
// @Description Upload a logo image and store its URL on the brand (requires authentication)
// @Tags Settings
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param file formData file true "Logo image (png, jpeg, webp; max 5MB)"
// @Success 200 {object} UploadResult
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/settings/logo [post]
func (h *Handler) UploadLogo(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	ctx := c.UserContext()
	result, err := h.uploadService.UploadLogo(ctx, userID, fileHeader)
	if err != nil {
		if errors.Is(err, ErrFileTypeNotAllowed) || errors.Is(err, ErrFileTooLarge) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("❌ Failed to upload logo: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload logo",
		})
	}

	if h.sink != nil {
		previous, err := h.sink.SetLogo(ctx, userID, result.URL, result.PublicID)
		if err != nil {
			log.Printf("❌ Failed to save logo URL for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save logo",
			})
		}
		if previous != "" && previous != result.PublicID {
			if err := h.uploadService.Delete(ctx, previous); err != nil {
				log.Printf("⚠️ Failed to delete previous logo %s: %v", previous, err)
			}
		}
	}

	return c.JSON(result)
}
