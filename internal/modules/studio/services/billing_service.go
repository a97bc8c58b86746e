package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/addinfi/makemyposts-be/internal/core/payment"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/addinfi/makemyposts-be/internal/shared/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCustomPlan is returned for plans that cannot be bought online
var ErrCustomPlan = payment.ErrCustomPlan

// PlanList groups the catalog the way the billing page shows it
type PlanList struct {
	Topups        []payment.Plan `json:"topups"`
	Subscriptions []payment.Plan `json:"subscriptions"`
	Gateway       string         `json:"gateway"`
}

// PurchaseResult is the order plus what the client needs to pay for it
type PurchaseResult struct {
	Order            *models.PaymentOrder   `json:"order"`
	Payment          *payment.ProcessResult `json:"payment"`
	CreditsRemaining *int                   `json:"credits_remaining,omitempty"`
}

type BillingService struct {
	db      *gorm.DB
	catalog *payment.Catalog
	gateway payment.Gateway
	orders  repositories.PaymentOrderRepo
	credits *CreditService
	now     func() time.Time
}

func NewBillingService(
	db *gorm.DB,
	catalog *payment.Catalog,
	gateway payment.Gateway,
	orders repositories.PaymentOrderRepo,
	credits *CreditService,
) *BillingService {
	return &BillingService{
		db:      db,
		catalog: catalog,
		gateway: gateway,
		orders:  orders,
		credits: credits,
		now:     time.Now,
	}
}

func (s *BillingService) Plans() *PlanList {
	return &PlanList{
		Topups:        s.catalog.List(payment.KindTopup),
		Subscriptions: s.catalog.List(payment.KindSubscription),
		Gateway:       s.gateway.Name(),
	}
}

// Purchase opens an order for planID. Gateways that settle immediately
// credit the account before returning.
func (s *BillingService) Purchase(ctx context.Context, userID, planID string) (*PurchaseResult, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.catalog.Get(planID)
	if err != nil {
		return nil, err
	}
	if plan.Custom {
		return nil, ErrCustomPlan
	}

	order := &models.PaymentOrder{
		UserID:   uid,
		PlanID:   plan.ID,
		Credits:  plan.Credits,
		Amount:   plan.Price,
		Currency: plan.Currency,
		Status:   models.OrderStatusPending,
		Gateway:  s.gateway.Name(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	res, err := s.gateway.CreateOrder(ctx, &payment.Order{
		ID:          order.ID,
		UserID:      userID,
		PlanID:      plan.ID,
		Description: plan.Name,
		Amount:      plan.Price,
		Currency:    plan.Currency,
	})
	if err != nil {
		if _, terr := s.orders.Transition(ctx, order.ID, models.OrderStatusPending, models.OrderStatusFailed); terr != nil {
			log.Printf("❌ Failed to mark order %s failed: %v", order.ID, terr)
		}
		return nil, err
	}

	if err := s.orders.SetGatewayOrderID(ctx, order.ID, res.GatewayOrderID); err != nil {
		return nil, fmt.Errorf("failed to store gateway order id: %w", err)
	}
	order.GatewayOrderID = res.GatewayOrderID

	result := &PurchaseResult{Order: order, Payment: res}
	if res.Status == payment.StatusPaid {
		if err := s.settle(ctx, order, res.GatewayOrderID); err != nil {
			return nil, err
		}
		if balance, err := s.credits.GetBalance(ctx, userID); err == nil {
			result.CreditsRemaining = &balance
		}
	}
	return result, nil
}

// ConfirmPayment settles an order from a verified checkout signature.
// Confirming an order that is already paid is a no-op.
func (s *BillingService) ConfirmPayment(ctx context.Context, userID, orderID, paymentID, signature string) (*models.PaymentOrder, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.orders.GetForUser(ctx, uid, oid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.Status == models.OrderStatusPaid {
		return order, nil
	}

	if err := s.gateway.VerifyPayment(order.GatewayOrderID, paymentID, signature); err != nil {
		return nil, err
	}
	if err := s.settle(ctx, order, paymentID); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, order.ID)
}

// HandleWebhook settles or fails orders from gateway events
func (s *BillingService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := s.gateway.VerifyWebhook(body, signature); err != nil {
		return err
	}
	ev, err := payment.ParseRazorpayWebhook(body)
	if err != nil {
		return err
	}

	switch ev.Event {
	case "payment.captured", "order.paid", "payment.failed":
	default:
		log.Printf("⚠️ Ignoring payment webhook %s", ev.Event)
		return nil
	}

	order, err := s.orders.GetByGatewayOrderID(ctx, ev.GatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	// Razorpay keeps the order open after a failed attempt and the customer
	// may pay again, so the order stays pending.
	if ev.Event == "payment.failed" {
		utils.LogWarn("payment attempt failed", map[string]interface{}{
			"order_id":   order.ID.String(),
			"payment_id": ev.PaymentID,
		})
		return nil
	}
	return s.settle(ctx, order, ev.PaymentID)
}

// SyncOrder asks the gateway for the state of an unpaid order and settles it
// when the gateway reports it paid. It covers checkouts whose confirmation
// and webhook never arrived.
func (s *BillingService) SyncOrder(ctx context.Context, userID, orderID string) (*models.PaymentOrder, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	oid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.orders.GetForUser(ctx, uid, oid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.Status == models.OrderStatusPaid || order.GatewayOrderID == "" {
		return order, nil
	}

	st, err := s.gateway.GetStatus(ctx, order.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if st.Status != payment.StatusPaid {
		return order, nil
	}
	if err := s.settle(ctx, order, order.PaymentID); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, order.ID)
}

// Orders lists the user's orders newest first
func (s *BillingService) Orders(ctx context.Context, userID string, limit int) ([]models.PaymentOrder, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByUser(ctx, uid, limit)
}

// settle marks the order paid and grants its credits in one transaction.
// Only the call that moves the order to paid grants credits.
func (s *BillingService) settle(ctx context.Context, order *models.PaymentOrder, paymentID string) error {
	paidAt := s.now().UTC()
	granted := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.orders.WithTx(tx).MarkPaid(ctx, order.ID, paymentID, paidAt)
		if err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}
		if !ok {
			return nil
		}
		if _, err := s.credits.WithTx(tx).Add(ctx, order.UserID.String(), order.Credits, models.CreditReasonPurchase, order.ID.String()); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return err
	}

	if granted {
		order.Status = models.OrderStatusPaid
		order.PaymentID = paymentID
		order.PaidAt = &paidAt
		utils.LogInfo("order paid", map[string]interface{}{
			"order_id": order.ID.String(),
			"user_id":  order.UserID.String(),
			"plan_id":  order.PlanID,
			"credits":  order.Credits,
		})
	}
	return nil
}
