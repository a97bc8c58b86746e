package payment

import (
	"fmt"
	"log"

	"github.com/addinfi/makemyposts-be/internal/shared/config"
)

// NewGateway creates a payment gateway based on configuration
func NewGateway(cfg *config.Config) (Gateway, error) {
	switch cfg.PaymentMode {
	case "simulated", "":
		log.Println("💳 Using Simulated Payment Gateway")
		return NewSimulatedGateway(cfg.UPIVPA, cfg.UPIPayeeName), nil

	case "razorpay":
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for razorpay payment mode")
		}
		log.Println("💳 Using Razorpay Payment Gateway")
		return NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret, cfg.RazorpayAPIBase), nil

	default:
		log.Printf("⚠️  Unknown payment mode '%s', defaulting to simulated", cfg.PaymentMode)
		return NewSimulatedGateway(cfg.UPIVPA, cfg.UPIPayeeName), nil
	}
}
