package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/repositories"
	"gorm.io/gorm"
)

// CreditService is the credit ledger
type CreditService struct {
	repo repositories.CreditRepo
}

func NewCreditService(repo repositories.CreditRepo) *CreditService {
	return &CreditService{repo: repo}
}

// WithTx binds the ledger to an open transaction
func (s *CreditService) WithTx(tx *gorm.DB) *CreditService {
	return &CreditService{repo: s.repo.WithTx(tx)}
}

func (s *CreditService) GetBalance(ctx context.Context, userID string) (int, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return 0, err
	}
	balance, err := s.repo.Balance(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrProfileNotFound
	}
	return balance, err
}

// Deduct removes amount credits and returns the new balance. It fails with
// ErrInsufficientCredits when the balance is lower than amount.
func (s *CreditService) Deduct(ctx context.Context, userID string, amount int, reason, reference string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.adjust(ctx, userID, -amount, reason, reference)
	if err != nil {
		return 0, err
	}
	log.Printf("💳 Deducted %d credit(s) from %s (%s), balance %d", amount, userID, reason, balance)
	return balance, nil
}

// Add grants amount credits and returns the new balance
func (s *CreditService) Add(ctx context.Context, userID string, amount int, reason, reference string) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.adjust(ctx, userID, amount, reason, reference)
	if err != nil {
		return 0, err
	}
	log.Printf("💳 Added %d credit(s) to %s (%s), balance %d", amount, userID, reason, balance)
	return balance, nil
}

// History lists ledger entries newest first
func (s *CreditService) History(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.History(ctx, uid, limit)
}

func (s *CreditService) adjust(ctx context.Context, userID string, delta int, reason, reference string) (int, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return 0, err
	}
	if reason == "" {
		reason = models.CreditReasonAdjustment
	}

	balance, err := s.repo.Adjust(ctx, uid, delta, reason, reference)
	switch {
	case errors.Is(err, repositories.ErrInsufficientBalance):
		return 0, ErrInsufficientCredits
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, ErrProfileNotFound
	case err != nil:
		return 0, fmt.Errorf("failed to update credits: %w", err)
	}
	return balance, nil
}
