package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db          *gorm.DB
	gatewayName string
	storageName string
}

func NewHealthHandler(db *gorm.DB, gatewayName, storageName string) *HealthHandler {
	return &HealthHandler{db: db, gatewayName: gatewayName, storageName: storageName}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if the API and its database are alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	state, database := "ok", "ok"
	code := fiber.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		state, database = "degraded", "unavailable"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   state,
		"service":  "makemyposts-api",
		"database": database,
		"payments": h.gatewayName,
		"storage":  h.storageName,
	})
}
