package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"strings"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/core/social"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/gofiber/fiber/v2"
)

// Callback error codes the dashboard understands
const (
	CallbackMissingParams = "missing_params"
	CallbackInvalidState  = "invalid_state"
	CallbackUserNotFound  = "user_not_found"
)

type SocialHandler struct {
	socialService *services.SocialService
	appURL        string
}

func NewSocialHandler(socialService *services.SocialService, appURL string) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
		appURL:        strings.TrimSuffix(appURL, "/"),
	}
}

// RegisterRoutes mounts the authenticated connection routes
func (h *SocialHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/social/platforms", h.ListPlatforms)
	r.Get("/social/connections", h.ListConnections)
	r.Post("/social/:platform/connect", h.Connect)
	r.Post("/social/:platform/refresh", h.Refresh)
	r.Get("/social/:platform/verify", h.Verify)
	r.Delete("/social/:platform", h.Disconnect)
}

// RegisterCallback mounts the OAuth redirect target. It is public: the
// user is identified by the state.
func (h *SocialHandler) RegisterCallback(r fiber.Router) {
	r.Get("/oauth/callback", h.Callback)
}

// ListPlatforms godoc
// @Summary Supported platforms
// @Description List the social networks that can be connected
// @Tags Social
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Router /api/social/platforms [get]
func (h *SocialHandler) ListPlatforms(c *fiber.Ctx) error {
	platforms := h.socialService.Platforms()
	out := make([]fiber.Map, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, fiber.Map{
			"id":         p.ID,
			"name":       p.Name,
			"scopes":     p.Scopes,
			"configured": p.Configured(),
		})
	}
	return c.JSON(fiber.Map{"platforms": out})
}

// ListConnections godoc
// @Summary Connected accounts
// @Description List the user's connected social accounts
// @Tags Social
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Router /api/social/connections [get]
func (h *SocialHandler) ListConnections(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	conns, err := h.socialService.ListConnections(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to list connections")
	}
	return c.JSON(fiber.Map{"connections": conns, "total": len(conns)})
}

// Connect godoc
// @Summary Start OAuth connection
// @Description Issue a state and return the platform consent URL
// @Tags Social
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param platform path string true "instagram, facebook or linkedin"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/social/{platform}/connect [post]
func (h *SocialHandler) Connect(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	authURL, err := h.socialService.BeginConnect(c.UserContext(), userID, c.Params("platform"))
	if err != nil {
		return respondError(c, err, "Failed to start connection")
	}
	return c.JSON(fiber.Map{"auth_url": authURL})
}

// Refresh godoc
// @Summary Refresh connection
// @Description Exchange the stored refresh token for new tokens
// @Tags Social
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param platform path string true "Platform"
// @Success 200 {object} services.Connection
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/social/{platform}/refresh [post]
func (h *SocialHandler) Refresh(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	conn, err := h.socialService.RefreshConnection(c.UserContext(), userID, c.Params("platform"))
	if err != nil {
		var tokenErr *social.TokenError
		if errors.As(err, &tokenErr) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
		}
		return respondError(c, err, "Failed to refresh connection")
	}
	return c.JSON(conn)
}

// Verify godoc
// @Summary Verify connection
// @Description Check that the stored token is still accepted by the platform
// @Tags Social
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param platform path string true "Platform"
// @Success 200 {object} map[string]interface{}
// @Router /api/social/{platform}/verify [get]
func (h *SocialHandler) Verify(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	platform := c.Params("platform")
	valid, err := h.socialService.VerifyConnection(c.UserContext(), userID, platform)
	if err != nil {
		return respondError(c, err, "Failed to verify connection")
	}
	return c.JSON(fiber.Map{"platform": platform, "valid": valid})
}

// Disconnect godoc
// @Summary Disconnect account
// @Description Remove the stored tokens for a platform
// @Tags Social
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param platform path string true "Platform"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/social/{platform} [delete]
func (h *SocialHandler) Disconnect(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	platform := c.Params("platform")
	if err := h.socialService.Disconnect(c.UserContext(), userID, platform); err != nil {
		return respondError(c, err, "Failed to disconnect")
	}
	return c.JSON(fiber.Map{"message": "Disconnected " + platform})
}

// Callback godoc
// @Summary OAuth callback
// @Description Redirect target of the platform consent screen. Always redirects to the dashboard social page with success or error query parameters.
// @Tags Social
// @Param code query string false "Authorization code"
// @Param state query string false "State issued by connect"
// @Param error query string false "Error reported by the platform"
// @Success 302
// @Router /api/oauth/callback [get]
func (h *SocialHandler) Callback(c *fiber.Ctx) error {
	if e := c.Query("error"); e != "" {
		if desc := c.Query("error_description"); desc != "" {
			log.Printf("⚠️ OAuth callback error: %s (%s)", e, desc)
		}
		return h.redirectError(c, e)
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		return h.redirectError(c, CallbackMissingParams)
	}

	result, err := h.socialService.CompleteConnect(c.UserContext(), code, state)
	switch {
	case errors.Is(err, social.ErrInvalidState):
		return h.redirectError(c, CallbackInvalidState)
	case errors.Is(err, services.ErrUserNotFound):
		return h.redirectError(c, CallbackUserNotFound)
	case err != nil:
		log.Printf("❌ OAuth callback failed: %v", err)
		return h.redirectError(c, err.Error())
	}

	profile, err := json.Marshal(result.Profile)
	if err != nil {
		return h.redirectError(c, err.Error())
	}
	return c.Redirect(h.socialPage()+"?success="+encodeComponent(result.Platform)+"&profile="+encodeComponent(string(profile)), fiber.StatusFound)
}

func (h *SocialHandler) redirectError(c *fiber.Ctx, msg string) error {
	return c.Redirect(h.socialPage()+"?error="+encodeComponent(msg), fiber.StatusFound)
}

// encodeComponent escapes a query value with spaces as %20, which the
// dashboard decodes with decodeURIComponent.
func encodeComponent(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

func (h *SocialHandler) socialPage() string {
	return h.appURL + "/dashboard/social"
}
