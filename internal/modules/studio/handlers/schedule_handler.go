package handlers

import (
	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/gofiber/fiber/v2"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

func NewScheduleHandler(scheduleService *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func (h *ScheduleHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/schedule", h.ListForDay)
	r.Post("/schedule", h.Create)
	r.Delete("/schedule/:id", h.Delete)
	r.Post("/schedule/:id/toggle", h.Toggle)
	r.Patch("/schedule/:id/status", h.UpdateStatus)
	r.Patch("/schedule/:id/reschedule", h.Reschedule)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type rescheduleRequest struct {
	ScheduledAt string `json:"scheduled_at"`
}

// ListForDay godoc
// @Summary Posts for a day
// @Description List the user's posts scheduled on one day, earliest first
// @Tags Schedule
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param date query string false "YYYY-MM-DD (default today)"
// @Param tz query string false "IANA time zone (default UTC)"
// @Success 200 {object} map[string]interface{}
// @Router /api/schedule [get]
func (h *ScheduleHandler) ListForDay(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	posts, err := h.scheduleService.ListForDay(c.UserContext(), userID, c.Query("date"), c.Query("tz"))
	if err != nil {
		return respondError(c, err, "Failed to list scheduled posts")
	}
	return c.JSON(fiber.Map{"posts": posts, "total": len(posts)})
}

// Create godoc
// @Summary Schedule a post
// @Tags Schedule
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body services.CreatePostRequest true "Post"
// @Success 201 {object} models.ScheduledPost
// @Failure 400 {object} map[string]interface{}
// @Router /api/schedule [post]
func (h *ScheduleHandler) Create(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	var req services.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.scheduleService.Create(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, err, "Failed to schedule post")
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// Delete godoc
// @Summary Delete a scheduled post
// @Tags Schedule
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/schedule/{id} [delete]
func (h *ScheduleHandler) Delete(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	if err := h.scheduleService.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return respondError(c, err, "Failed to delete post")
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// Toggle godoc
// @Summary Pause or resume a post
// @Tags Schedule
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Post ID"
// @Success 200 {object} models.ScheduledPost
// @Failure 409 {object} map[string]interface{}
// @Router /api/schedule/{id}/toggle [post]
func (h *ScheduleHandler) Toggle(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	post, err := h.scheduleService.ToggleStatus(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to update post")
	}
	return c.JSON(post)
}

// UpdateStatus godoc
// @Summary Set post status
// @Description Set pending, scheduled or paused on a post that has not been published
// @Tags Schedule
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Post ID"
// @Param request body updateStatusRequest true "Status"
// @Success 200 {object} models.ScheduledPost
// @Router /api/schedule/{id}/status [patch]
func (h *ScheduleHandler) UpdateStatus(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.scheduleService.UpdateStatus(c.UserContext(), userID, c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err, "Failed to update post")
	}
	return c.JSON(post)
}

// Reschedule godoc
// @Summary Reschedule a post
// @Tags Schedule
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Post ID"
// @Param request body rescheduleRequest true "New time (RFC3339)"
// @Success 200 {object} models.ScheduledPost
// @Router /api/schedule/{id}/reschedule [patch]
func (h *ScheduleHandler) Reschedule(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	var req rescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.scheduleService.Reschedule(c.UserContext(), userID, c.Params("id"), req.ScheduledAt)
	if err != nil {
		return respondError(c, err, "Failed to reschedule post")
	}
	return c.JSON(post)
}
