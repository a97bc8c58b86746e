package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSignature = errors.New("invalid payment signature")

// Gateway defines the interface for payment processing.
// The simulated gateway settles immediately; Razorpay settles through
// checkout confirmation or webhooks.
type Gateway interface {
	// CreateOrder registers the order with the provider
	CreateOrder(ctx context.Context, order *Order) (*ProcessResult, error)

	// GetStatus retrieves current payment status by provider order ID
	GetStatus(ctx context.Context, gatewayOrderID string) (*PaymentStatus, error)

	// VerifyPayment checks the checkout signature for an order and payment
	VerifyPayment(gatewayOrderID, paymentID, signature string) error

	// VerifyWebhook checks a webhook body against its signature header
	VerifyWebhook(body []byte, signature string) error

	// Name returns the gateway provider name
	Name() string
}

// Order represents a credit purchase that needs payment
type Order struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	PlanID      string    `json:"plan_id"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"` // paise
	Currency    string    `json:"currency"`
}

// ProcessResult contains the result of payment processing
type ProcessResult struct {
	GatewayOrderID string     `json:"gateway_order_id"`
	Status         string     `json:"status"`
	KeyID          string     `json:"key_id,omitempty"`  // Razorpay checkout key
	UPIURI         string     `json:"upi_uri,omitempty"` // upi://pay deep link
	QRCode         string     `json:"qr_code,omitempty"` // data:image/png;base64
	Message        string     `json:"message"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// PaymentStatus represents the current status of a payment
type PaymentStatus struct {
	GatewayOrderID string     `json:"gateway_order_id"`
	Status         string     `json:"status"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	Reference      string     `json:"reference,omitempty"`
}

// WebhookEvent is the part of a provider webhook we act on
type WebhookEvent struct {
	Event          string
	GatewayOrderID string
	PaymentID      string
}

// Payment status constants
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)
