package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// RazorpayGateway creates orders through the Razorpay Orders API.
// Payment happens in Razorpay Checkout on the client; the order is settled
// by a verified checkout signature or an order.paid webhook.
type RazorpayGateway struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret, baseURL string) *RazorpayGateway {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &RazorpayGateway{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type razorpayOrder struct {
	ID        string `json:"id"`
	Status    string `json:"status"` // created, attempted, paid
	Amount    int64  `json:"amount"`
	AmountDue int64  `json:"amount_due"`
	Receipt   string `json:"receipt"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, order *Order) (*ProcessResult, error) {
	payload := map[string]interface{}{
		"amount":   order.Amount,
		"currency": order.Currency,
		"receipt":  order.ID.String(),
		"notes": map[string]string{
			"user_id": order.UserID,
			"plan_id": order.PlanID,
		},
	}

	var created razorpayOrder
	if err := g.do(ctx, http.MethodPost, "/v1/orders", payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create Razorpay order: %w", err)
	}

	log.Printf("💳 Razorpay order %s created for %s", created.ID, order.ID)

	return &ProcessResult{
		GatewayOrderID: created.ID,
		Status:         mapRazorpayStatus(created.Status),
		KeyID:          g.keyID,
		Message:        "Complete the payment in Razorpay Checkout.",
	}, nil
}

func (g *RazorpayGateway) GetStatus(ctx context.Context, gatewayOrderID string) (*PaymentStatus, error) {
	var o razorpayOrder
	if err := g.do(ctx, http.MethodGet, "/v1/orders/"+gatewayOrderID, nil, &o); err != nil {
		return nil, fmt.Errorf("failed to query Razorpay: %w", err)
	}

	status := &PaymentStatus{
		GatewayOrderID: o.ID,
		Status:         mapRazorpayStatus(o.Status),
		Reference:      o.Receipt,
	}
	if status.Status == StatusPaid {
		now := time.Now()
		status.PaidAt = &now
	}
	return status, nil
}

// VerifyPayment checks hex(HMAC-SHA256(order_id|payment_id, key_secret))
func (g *RazorpayGateway) VerifyPayment(gatewayOrderID, paymentID, signature string) error {
	if gatewayOrderID == "" || paymentID == "" {
		return ErrInvalidSignature
	}
	return verifyHMAC([]byte(gatewayOrderID+"|"+paymentID), g.keySecret, signature)
}

// VerifyWebhook checks the X-Razorpay-Signature header against the raw body
func (g *RazorpayGateway) VerifyWebhook(body []byte, signature string) error {
	if g.webhookSecret == "" {
		return fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	return verifyHMAC(body, g.webhookSecret, signature)
}

func (g *RazorpayGateway) Name() string {
	return "Razorpay Payment Gateway"
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errorResp)
		return fmt.Errorf("razorpay API error %d: %s %s", resp.StatusCode, errorResp.Error.Code, errorResp.Error.Description)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func mapRazorpayStatus(s string) string {
	switch s {
	case "paid", "captured":
		return StatusPaid
	case "failed":
		return StatusFailed
	default:
		return StatusPending
	}
}

// Sign returns hex(HMAC-SHA256(payload, secret))
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(payload []byte, secret, signature string) error {
	want, err := hex.DecodeString(Sign(payload, secret))
	if err != nil {
		return err
	}
	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(want, got) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseRazorpayWebhook extracts the order and payment IDs from
// payment.captured and order.paid events.
func ParseRazorpayWebhook(body []byte) (*WebhookEvent, error) {
	var envelope struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
				} `json:"entity"`
			} `json:"payment"`
			Order struct {
				Entity struct {
					ID string `json:"id"`
				} `json:"entity"`
			} `json:"order"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid webhook body: %w", err)
	}

	ev := &WebhookEvent{
		Event:          envelope.Event,
		GatewayOrderID: envelope.Payload.Order.Entity.ID,
		PaymentID:      envelope.Payload.Payment.Entity.ID,
	}
	if ev.GatewayOrderID == "" {
		ev.GatewayOrderID = envelope.Payload.Payment.Entity.OrderID
	}
	return ev, nil
}
