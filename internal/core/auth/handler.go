package auth

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	authService *Service
	googleOAuth IDTokenVerifier
}

// NewHandler creates a new auth handler
func NewHandler(authService *Service, verifier IDTokenVerifier) *Handler {
	return &Handler{
		authService: authService,
		googleOAuth: verifier,
	}
}

// RegisterRoutes mounts the /auth group
func (h *Handler) RegisterRoutes(app fiber.Router, requireAuth fiber.Handler) {
	group := app.Group("/auth")
	group.Post("/google", h.LoginWithGoogle)
	group.Post("/refresh", h.RefreshToken)
	group.Post("/logout", requireAuth, h.Logout)
	group.Get("/me", requireAuth, h.Me)
}

// LoginWithGoogle godoc
// @Summary Sign in with Google
// @Description Verify a Google ID token and return JWT tokens. First sign-in creates the profile with free credits.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body GoogleLoginRequest true "Google ID token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/google [post]
func (h *Handler) LoginWithGoogle(c *fiber.Ctx) error {
	var req GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.GoogleIDToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "google_id_token is required",
		})
	}

	googleUser, err := h.googleOAuth.VerifyIDToken(c.UserContext(), req.GoogleIDToken)
	if err != nil {
		log.Printf("❌ Google token verification failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid Google ID token",
		})
	}

	authResponse, err := h.authService.LoginWithGoogle(c.UserContext(), googleUser)
	if err != nil {
		log.Printf("❌ Google login failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sign in",
		})
	}

	return c.JSON(authResponse)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Get new access token using refresh token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh_token is required",
		})
	}

	authResponse, err := h.authService.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		log.Printf("❌ Token refresh failed: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired refresh token",
		})
	}

	return c.JSON(authResponse)
}

// Logout godoc
// @Summary Logout user
// @Description Revoke user's refresh token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/logout [post]
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), UserID(c)); err != nil {
		log.Printf("❌ Logout failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to logout",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Me godoc
// @Summary Get current user
// @Description Get the signed-in profile with its credit balance
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserInfo
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /auth/me [get]
func (h *Handler) Me(c *fiber.Ctx) error {
	profile, err := h.authService.Profile(c.UserContext(), UserID(c))
	if errors.Is(err, ErrProfileNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Profile not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(newUserInfo(profile))
}
