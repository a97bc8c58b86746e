package payment

import (
	"context"
	"fmt"
	"log"
	"time"
)

// SimulatedGateway settles every order immediately. It backs demos and
// local development where no payment provider account exists.
type SimulatedGateway struct {
	vpa       string
	payeeName string
	now       func() time.Time
}

func NewSimulatedGateway(vpa, payeeName string) *SimulatedGateway {
	return &SimulatedGateway{vpa: vpa, payeeName: payeeName, now: time.Now}
}

func (g *SimulatedGateway) CreateOrder(ctx context.Context, order *Order) (*ProcessResult, error) {
	result := &ProcessResult{
		GatewayOrderID: "sim_" + order.ID.String(),
		Status:         StatusPaid,
		Message:        "Payment simulated successfully.",
	}

	// The QR is informational only; nothing is collected.
	if g.vpa != "" {
		result.UPIURI = BuildUPIURI(g.vpa, g.payeeName, order.Amount, order.Description)
		qr, err := QRCodeDataURI(result.UPIURI, 256)
		if err != nil {
			log.Printf("⚠️ Failed to render UPI QR for order %s: %v", order.ID, err)
		} else {
			result.QRCode = qr
		}
	}

	log.Printf("💳 Simulated payment for order %s (%s, %d paise)", order.ID, order.PlanID, order.Amount)
	return result, nil
}

func (g *SimulatedGateway) GetStatus(ctx context.Context, gatewayOrderID string) (*PaymentStatus, error) {
	if gatewayOrderID == "" {
		return nil, fmt.Errorf("gateway order id is required")
	}
	paidAt := g.now()
	return &PaymentStatus{
		GatewayOrderID: gatewayOrderID,
		Status:         StatusPaid,
		PaidAt:         &paidAt,
		Reference:      gatewayOrderID,
	}, nil
}

func (g *SimulatedGateway) VerifyPayment(gatewayOrderID, paymentID, signature string) error {
	return nil
}

func (g *SimulatedGateway) VerifyWebhook(body []byte, signature string) error {
	return nil
}

func (g *SimulatedGateway) Name() string {
	return "Simulated Payment Gateway"
}
