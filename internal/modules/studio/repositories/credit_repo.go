package repositories

import (
	"context"
	"errors"

	"github.com/addinfi/makemyposts-be/internal/core/auth"
	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientBalance is returned when a debit would make the balance negative
var ErrInsufficientBalance = errors.New("insufficient balance")

type CreditRepo interface {
	WithTx(tx *gorm.DB) CreditRepo
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	Adjust(ctx context.Context, userID uuid.UUID, delta int, reason, reference string) (int, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditTransaction, error)
}

type creditRepo struct {
	db *gorm.DB
}

func NewCreditRepo(db *gorm.DB) CreditRepo {
	return &creditRepo{db: db}
}

func (r *creditRepo) WithTx(tx *gorm.DB) CreditRepo {
	return &creditRepo{db: tx}
}

func (r *creditRepo) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var profile auth.Profile
	err := r.db.WithContext(ctx).Select("id", "credits").First(&profile, "id = ?", userID).Error
	if err != nil {
		return 0, err
	}
	return profile.Credits, nil
}

// Adjust applies delta to profiles.credits and appends a ledger row, in one
// transaction. A debit only matches rows whose balance covers it, so the
// balance can never go negative.
func (r *creditRepo) Adjust(ctx context.Context, userID uuid.UUID, delta int, reason, reference string) (int, error) {
	var balance int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&auth.Profile{}).Where("id = ?", userID)
		if delta < 0 {
			query = query.Where("credits >= ?", -delta)
		}
		res := query.Update("credits", gorm.Expr("credits + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&auth.Profile{}).Where("id = ?", userID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrInsufficientBalance
		}

		var profile auth.Profile
		if err := tx.Select("id", "credits").First(&profile, "id = ?", userID).Error; err != nil {
			return err
		}
		balance = profile.Credits

		return tx.Create(&models.CreditTransaction{
			UserID:       userID,
			Delta:        delta,
			BalanceAfter: balance,
			Reason:       reason,
			Reference:    reference,
		}).Error
	})

	return balance, err
}

func (r *creditRepo) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&txs).Error
	return txs, err
}
