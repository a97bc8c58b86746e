package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/addinfi/makemyposts-be/internal/core/payment"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newBilling(t *testing.T, gateway payment.Gateway) (*BillingService, *gorm.DB, *CreditService) {
	t.Helper()
	db := openDB(t)
	credits := newCredits(db)
	svc := NewBillingService(db, payment.DefaultCatalog(), gateway, repositories.NewPaymentOrderRepo(db), credits)
	return svc, db, credits
}

// fakeRazorpay creates order_1 for every request
func fakeRazorpay(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","status":"created","amount":99900}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPurchase_SimulatedCreditsOnce(t *testing.T) {
	svc, db, credits := newBilling(t, payment.NewSimulatedGateway("addinfi@upi", "Addinfi"))
	userID := createProfile(t, db, 2)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, userID, "topup_50")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if res.Order.Status != models.OrderStatusPaid || res.Order.Credits != 50 || res.Order.Amount != 49900 {
		t.Fatalf("unexpected order: %+v", res.Order)
	}
	if res.CreditsRemaining == nil || *res.CreditsRemaining != 52 {
		t.Fatalf("credits_remaining = %v, want 52", res.CreditsRemaining)
	}
	if res.Payment.QRCode == "" {
		t.Fatalf("simulated purchase should carry a UPI QR")
	}

	// A second settlement of the same order grants nothing.
	if err := svc.settle(ctx, res.Order, "again"); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got := balanceOf(t, credits, userID); got != 52 {
		t.Fatalf("balance = %d, want 52", got)
	}
}

func TestPurchase_Rejections(t *testing.T) {
	svc, db, _ := newBilling(t, payment.NewSimulatedGateway("", ""))
	userID := createProfile(t, db, 0)
	ctx := context.Background()

	if _, err := svc.Purchase(ctx, userID, "sub_enterprise"); !errors.Is(err, ErrCustomPlan) {
		t.Fatalf("err = %v, want ErrCustomPlan", err)
	}
	if _, err := svc.Purchase(ctx, userID, "topup_1"); !errors.Is(err, payment.ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
	orders, err := svc.Orders(ctx, userID, 0)
	if err != nil || len(orders) != 0 {
		t.Fatalf("rejected purchases created orders: %v, %v", orders, err)
	}
}

func TestConfirmPayment_RazorpaySignature(t *testing.T) {
	srv := fakeRazorpay(t)
	svc, db, credits := newBilling(t, payment.NewRazorpayGateway("rzp_test", "key-secret", "hook-secret", srv.URL))
	userID := createProfile(t, db, 0)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, userID, "topup_150")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if res.Order.Status != models.OrderStatusPending || res.Payment.KeyID != "rzp_test" || res.CreditsRemaining != nil {
		t.Fatalf("razorpay order should wait for checkout: %+v", res)
	}
	orderID := res.Order.ID.String()

	if _, err := svc.ConfirmPayment(ctx, userID, orderID, "pay_1", "deadbeef"); !errors.Is(err, payment.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
	if _, err := svc.ConfirmPayment(ctx, uuid.NewString(), orderID, "pay_1", "x"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other user's order err = %v, want ErrOrderNotFound", err)
	}

	sig := payment.Sign([]byte("order_1|pay_1"), "key-secret")
	order, err := svc.ConfirmPayment(ctx, userID, orderID, "pay_1", sig)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if order.Status != models.OrderStatusPaid || order.PaymentID != "pay_1" || order.PaidAt == nil {
		t.Fatalf("unexpected order: %+v", order)
	}
	if _, err := svc.ConfirmPayment(ctx, userID, orderID, "pay_1", sig); err != nil {
		t.Fatalf("repeat ConfirmPayment: %v", err)
	}
	if got := balanceOf(t, credits, userID); got != 150 {
		t.Fatalf("balance = %d, want 150", got)
	}
}

func TestHandleWebhook_SettlesOnce(t *testing.T) {
	srv := fakeRazorpay(t)
	svc, db, credits := newBilling(t, payment.NewRazorpayGateway("rzp_test", "key-secret", "hook-secret", srv.URL))
	userID := createProfile(t, db, 0)
	ctx := context.Background()

	if _, err := svc.Purchase(ctx, userID, "topup_50"); err != nil {
		t.Fatalf("Purchase: %v", err)
	}

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_1"}}}}`)
	if err := svc.HandleWebhook(ctx, body, "forged"); !errors.Is(err, payment.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	sig := payment.Sign(body, "hook-secret")
	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhook(ctx, body, sig); err != nil {
			t.Fatalf("HandleWebhook #%d: %v", i+1, err)
		}
	}
	if got := balanceOf(t, credits, userID); got != 50 {
		t.Fatalf("balance = %d, want 50 after duplicate webhooks", got)
	}

	unknown := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_404"}}}}`)
	if err := svc.HandleWebhook(ctx, unknown, payment.Sign(unknown, "hook-secret")); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}

	ignored := []byte(`{"event":"refund.created"}`)
	if err := svc.HandleWebhook(ctx, ignored, payment.Sign(ignored, "hook-secret")); err != nil {
		t.Fatalf("ignored event err = %v", err)
	}
}

func TestPlans(t *testing.T) {
	svc, _, _ := newBilling(t, payment.NewSimulatedGateway("", ""))
	plans := svc.Plans()
	if len(plans.Topups) != 2 || len(plans.Subscriptions) != 3 {
		t.Fatalf("unexpected catalog: %+v", plans)
	}
	if plans.Gateway != "Simulated Payment Gateway" {
		t.Fatalf("gateway = %s", plans.Gateway)
	}
	for _, p := range plans.Topups {
		if p.Kind != payment.KindTopup {
			t.Fatalf("%s listed as top-up", p.ID)
		}
	}
}

func TestHandleWebhook_FailedAttemptThenCaptured(t *testing.T) {
	srv := fakeRazorpay(t)
	svc, db, credits := newBilling(t, payment.NewRazorpayGateway("rzp_test", "key-secret", "hook-secret", srv.URL))
	userID := createProfile(t, db, 0)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, userID, "topup_50")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}

	failed := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`)
	if err := svc.HandleWebhook(ctx, failed, payment.Sign(failed, "hook-secret")); err != nil {
		t.Fatalf("failed event: %v", err)
	}
	order, _ := repositories.NewPaymentOrderRepo(db).GetByID(ctx, res.Order.ID)
	if order.Status != models.OrderStatusPending {
		t.Fatalf("status after failed attempt = %s, want pending", order.Status)
	}

	captured := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_2","order_id":"order_1"}}}}`)
	if err := svc.HandleWebhook(ctx, captured, payment.Sign(captured, "hook-secret")); err != nil {
		t.Fatalf("captured event: %v", err)
	}
	sig := payment.Sign([]byte("order_1|pay_2"), "key-secret")
	order, err = svc.ConfirmPayment(ctx, userID, res.Order.ID.String(), "pay_2", sig)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if order.Status != models.OrderStatusPaid || order.PaymentID != "pay_2" {
		t.Fatalf("unexpected order: %+v", order)
	}
	if got := balanceOf(t, credits, userID); got != 50 {
		t.Fatalf("balance = %d, want 50", got)
	}
}

func TestSettle_FailedOrderCanStillBePaid(t *testing.T) {
	srv := fakeRazorpay(t)
	svc, db, credits := newBilling(t, payment.NewRazorpayGateway("rzp_test", "key-secret", "hook-secret", srv.URL))
	userID := createProfile(t, db, 0)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, userID, "topup_50")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	repo := repositories.NewPaymentOrderRepo(db)
	if ok, err := repo.Transition(ctx, res.Order.ID, models.OrderStatusPending, models.OrderStatusFailed); !ok || err != nil {
		t.Fatalf("Transition: %v, %v", ok, err)
	}

	body := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_1"}},"payment":{"entity":{"id":"pay_3","order_id":"order_1"}}}}`)
	if err := svc.HandleWebhook(ctx, body, payment.Sign(body, "hook-secret")); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if got := balanceOf(t, credits, userID); got != 50 {
		t.Fatalf("balance = %d, want 50", got)
	}
}

func TestSyncOrder_SettlesWhenGatewayReportsPaid(t *testing.T) {
	var paid atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "created"
		if r.Method == http.MethodGet && paid.Load() {
			status = "paid"
		}
		_, _ = w.Write([]byte(`{"id":"order_7","status":"` + status + `","amount":49900}`))
	}))
	t.Cleanup(srv.Close)

	svc, db, credits := newBilling(t, payment.NewRazorpayGateway("rzp_test", "key-secret", "hook-secret", srv.URL))
	userID := createProfile(t, db, 0)
	ctx := context.Background()

	res, err := svc.Purchase(ctx, userID, "topup_50")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	orderID := res.Order.ID.String()

	order, err := svc.SyncOrder(ctx, userID, orderID)
	if err != nil || order.Status != models.OrderStatusPending {
		t.Fatalf("unpaid sync: %+v, %v", order, err)
	}

	paid.Store(true)
	for i := 0; i < 2; i++ {
		order, err = svc.SyncOrder(ctx, userID, orderID)
		if err != nil {
			t.Fatalf("SyncOrder #%d: %v", i+1, err)
		}
	}
	if order.Status != models.OrderStatusPaid {
		t.Fatalf("status = %s, want paid", order.Status)
	}
	if got := balanceOf(t, credits, userID); got != 50 {
		t.Fatalf("balance = %d, want 50", got)
	}
	if _, err := svc.SyncOrder(ctx, uuid.NewString(), orderID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other user's order err = %v, want ErrOrderNotFound", err)
	}
}
