package handlers

import (
	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/dashboard", h.GetOverview)
}

// GetOverview godoc
// @Summary Dashboard overview
// @Description Post counts, remaining credits, recent posts and quick actions
// @Tags Dashboard
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} services.Overview
// @Router /api/dashboard [get]
func (h *DashboardHandler) GetOverview(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	overview, err := h.dashboardService.Overview(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to load dashboard")
	}
	return c.JSON(overview)
}
