package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/google/uuid"
)

func TestDeduct_FailsWhenAmountExceedsBalance(t *testing.T) {
	db := openDB(t)
	credits := newCredits(db)
	userID := createProfile(t, db, 2)
	ctx := context.Background()

	if _, err := credits.Deduct(ctx, userID, 3, models.CreditReasonGeneration, ""); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	if got := balanceOf(t, credits, userID); got != 2 {
		t.Fatalf("balance = %d after rejected deduction, want 2", got)
	}

	history, err := credits.History(ctx, userID, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("rejected deduction wrote %d ledger rows", len(history))
	}
}

func TestDeduct_DrainsToZeroThenFails(t *testing.T) {
	db := openDB(t)
	credits := newCredits(db)
	userID := createProfile(t, db, 2)
	ctx := context.Background()

	for want := 1; want >= 0; want-- {
		got, err := credits.Deduct(ctx, userID, 1, models.CreditReasonGeneration, "")
		if err != nil {
			t.Fatalf("Deduct: %v", err)
		}
		if got != want {
			t.Fatalf("balance = %d, want %d", got, want)
		}
	}
	if _, err := credits.Deduct(ctx, userID, 1, models.CreditReasonGeneration, ""); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
}

func TestAdd_WritesLedger(t *testing.T) {
	db := openDB(t)
	credits := newCredits(db)
	userID := createProfile(t, db, 0)
	ctx := context.Background()

	balance, err := credits.Add(ctx, userID, 150, models.CreditReasonPurchase, "order-1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if balance != 150 {
		t.Fatalf("balance = %d, want 150", balance)
	}
	if _, err := credits.Deduct(ctx, userID, 1, models.CreditReasonGeneration, "gen-1"); err != nil {
		t.Fatalf("Deduct: %v", err)
	}

	history, err := credits.History(ctx, userID, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d rows, want 2", len(history))
	}
	byRef := map[string]models.CreditTransaction{}
	for _, tx := range history {
		byRef[tx.Reference] = tx
	}
	if tx := byRef["order-1"]; tx.Delta != 150 || tx.BalanceAfter != 150 || tx.Reason != models.CreditReasonPurchase {
		t.Fatalf("unexpected purchase row: %+v", tx)
	}
	if tx := byRef["gen-1"]; tx.Delta != -1 || tx.BalanceAfter != 149 {
		t.Fatalf("unexpected generation row: %+v", tx)
	}
}

func TestCredits_RejectsBadInput(t *testing.T) {
	db := openDB(t)
	credits := newCredits(db)
	userID := createProfile(t, db, 5)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero deduct", func() error { _, err := credits.Deduct(ctx, userID, 0, "", ""); return err }, ErrInvalidAmount},
		{"negative add", func() error { _, err := credits.Add(ctx, userID, -5, "", ""); return err }, ErrInvalidAmount},
		{"unknown profile", func() error { _, err := credits.Add(ctx, uuid.NewString(), 1, "", ""); return err }, ErrProfileNotFound},
		{"malformed id", func() error { _, err := credits.GetBalance(ctx, "nope"); return err }, ErrProfileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if got := balanceOf(t, credits, userID); got != 5 {
		t.Fatalf("balance = %d, want 5", got)
	}
}

func TestDeduct_ConcurrentCallersNeverOverdraw(t *testing.T) {
	db := openDB(t)
	// Shared-cache SQLite reports table locks to competing writers instead of
	// waiting, so requests queue on one connection here.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	credits := newCredits(db)
	userID := createProfile(t, db, 3)
	ctx := context.Background()

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := credits.Deduct(ctx, userID, 1, models.CreditReasonGeneration, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientCredits):
				rejected++
			default:
				t.Errorf("Deduct: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 3 || rejected != 7 {
		t.Fatalf("ok = %d, rejected = %d; want 3 and 7", ok, rejected)
	}
	if got := balanceOf(t, credits, userID); got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
	history, err := credits.History(ctx, userID, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("ledger rows = %d, want 3", len(history))
	}
}
