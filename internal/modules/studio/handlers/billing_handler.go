package handlers

import (
	"errors"
	"log"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/core/payment"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/services"
	"github.com/addinfi/makemyposts-be/internal/shared/utils"
	"github.com/gofiber/fiber/v2"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/billing/plans", h.GetPlans)
	r.Post("/billing/purchase", h.Purchase)
	r.Post("/billing/confirm", h.Confirm)
	r.Get("/billing/orders", h.ListOrders)
	r.Post("/billing/orders/:id/sync", h.SyncOrder)
}

// RegisterWebhooks mounts the unauthenticated gateway callbacks
func (h *BillingHandler) RegisterWebhooks(r fiber.Router) {
	r.Post("/webhooks/razorpay", h.RazorpayWebhook)
}

type purchaseRequest struct {
	PlanID string `json:"plan_id"`
}

type confirmRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// GetPlans godoc
// @Summary Credit plans
// @Description List top-up packs and subscriptions
// @Tags Billing
// @Produce json
// @Success 200 {object} services.PlanList
// @Router /api/billing/plans [get]
func (h *BillingHandler) GetPlans(c *fiber.Ctx) error {
	return c.JSON(h.billingService.Plans())
}

// Purchase godoc
// @Summary Buy credits
// @Description Open an order for a plan. The simulated gateway pays immediately; Razorpay returns a checkout order.
// @Tags Billing
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body purchaseRequest true "Plan"
// @Success 200 {object} services.PurchaseResult
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/billing/purchase [post]
func (h *BillingHandler) Purchase(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PlanID == "" {
		return badRequest(c, "plan_id is required")
	}

	result, err := h.billingService.Purchase(c.UserContext(), userID, req.PlanID)
	if err != nil {
		return respondError(c, err, "Failed to create order")
	}
	return c.JSON(result)
}

// Confirm godoc
// @Summary Confirm checkout
// @Description Settle an order with the Razorpay checkout signature
// @Tags Billing
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param request body confirmRequest true "Checkout result"
// @Success 200 {object} models.PaymentOrder
// @Failure 400 {object} map[string]interface{}
// @Router /api/billing/confirm [post]
func (h *BillingHandler) Confirm(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.OrderID == "" {
		return badRequest(c, "order_id is required")
	}

	order, err := h.billingService.ConfirmPayment(c.UserContext(), userID, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return respondError(c, err, "Failed to confirm payment")
	}
	return c.JSON(order)
}

// ListOrders godoc
// @Summary Order history
// @Tags Billing
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param limit query int false "Max orders (default 20)"
// @Success 200 {object} map[string]interface{}
// @Router /api/billing/orders [get]
func (h *BillingHandler) ListOrders(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	orders, err := h.billingService.Orders(c.UserContext(), userID, c.QueryInt("limit", 20))
	if err != nil {
		return respondError(c, err, "Failed to list orders")
	}
	return c.JSON(fiber.Map{"orders": orders, "total": len(orders)})
}

// RazorpayWebhook godoc
// @Summary Razorpay webhook
// @Description Handle payment.captured, order.paid and payment.failed events
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "HMAC-SHA256 of the body"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /webhooks/razorpay [post]
func (h *BillingHandler) RazorpayWebhook(c *fiber.Ctx) error {
	err := h.billingService.HandleWebhook(c.UserContext(), c.Body(), c.Get("X-Razorpay-Signature"))
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		utils.LogWarn("rejected razorpay webhook", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
	case errors.Is(err, services.ErrOrderNotFound):
		// Not ours; acknowledge so the gateway stops retrying.
		log.Printf("⚠️ Razorpay webhook for unknown order")
		return c.JSON(fiber.Map{"status": "ignored"})
	case err != nil:
		utils.LogError("failed to process razorpay webhook", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to process webhook"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// SyncOrder godoc
// @Summary Refresh order status
// @Description Ask the payment gateway about an unpaid order and credit the account if it was paid
// @Tags Billing
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Success 200 {object} models.PaymentOrder
// @Failure 404 {object} map[string]interface{}
// @Router /api/billing/orders/{id}/sync [post]
func (h *BillingHandler) SyncOrder(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	if userID == "" {
		return unauthorized(c)
	}

	order, err := h.billingService.SyncOrder(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Failed to sync order")
	}
	return c.JSON(order)
}
