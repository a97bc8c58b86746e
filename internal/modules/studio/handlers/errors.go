package handlers

import (
	"errors"

	"github.com/addinfi/makemyposts-be/internal/core/automation"
	"github.com/addinfi/makemyposts-be/internal/core/payment"
	"github.com/addinfi/makemyposts-be/internal/core/social"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/addinfi/makemyposts-be/internal/shared/utils"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors to HTTP statuses. Zero means unknown.
func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientCredits):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, social.ErrUnsupportedPlatform),
		errors.Is(err, services.ErrCustomPlan),
		errors.Is(err, payment.ErrInvalidSignature):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrConnectionNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, payment.ErrPlanNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidStatusChange),
		errors.Is(err, services.ErrNoRefreshToken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrGenerationFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, services.ErrPlatformNotConfigured),
		errors.Is(err, automation.ErrWebhookNotConfigured):
		return fiber.StatusServiceUnavailable
	}
	return 0
}

// respondError writes err as {"error": ...}. Unknown errors are logged and
// replaced with fallback.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := statusFor(err)
	if status == 0 {
		utils.LogError(fallback, err, map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}

	body := fiber.Map{"error": err.Error()}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	return c.Status(status).JSON(body)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
