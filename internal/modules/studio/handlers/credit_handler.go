package handlers

import (
	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/gofiber/fiber/v2"
)

type CreditHandler struct {
	creditService *services.CreditService
}

func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

func (h *CreditHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/credits", h.GetBalance)
	r.Get("/credits/history", h.GetHistory)
}

// GetBalance godoc
// @Summary Credit balance
// @Description Get the remaining credits of the signed-in user
// @Tags Credits
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/credits [get]
func (h *CreditHandler) GetBalance(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	balance, err := h.creditService.GetBalance(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to get credits")
	}
	return c.JSON(fiber.Map{"credits": balance})
}

// GetHistory godoc
// @Summary Credit history
// @Description List credit ledger entries, newest first
// @Tags Credits
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param limit query int false "Max entries (default 50, max 100)"
// @Success 200 {object} map[string]interface{}
// @Router /api/credits/history [get]
func (h *CreditHandler) GetHistory(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	txs, err := h.creditService.History(c.UserContext(), userID, c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err, "Failed to get credit history")
	}
	return c.JSON(fiber.Map{
		"transactions": txs,
		"total":        len(txs),
	})
}
