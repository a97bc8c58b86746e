package repositories

import (
	"context"
	"time"

	"github.com/addinfi/makemyposts-be/internal/modules/studio/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentOrderRepo interface {
	WithTx(tx *gorm.DB) PaymentOrderRepo
	Create(ctx context.Context, order *models.PaymentOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentOrder, error)
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.PaymentOrder, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error)
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, at time.Time) (bool, error)
	Transition(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.PaymentOrder, error)
}

type paymentOrderRepo struct {
	db *gorm.DB
}

func NewPaymentOrderRepo(db *gorm.DB) PaymentOrderRepo {
	return &paymentOrderRepo{db: db}
}

func (r *paymentOrderRepo) WithTx(tx *gorm.DB) PaymentOrderRepo {
	return &paymentOrderRepo{db: tx}
}

func (r *paymentOrderRepo) Create(ctx context.Context, order *models.PaymentOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *paymentOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *paymentOrderRepo) GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *paymentOrderRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *paymentOrderRepo) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	return r.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("id = ?", id).
		Update("gateway_order_id", gatewayOrderID).Error
}

// MarkPaid moves a pending or failed order to paid. It reports false when
// the order was already paid, which makes settlement idempotent.
func (r *paymentOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("id = ? AND status IN ?", id, []string{models.OrderStatusPending, models.OrderStatusFailed}).
		Updates(map[string]interface{}{
			"status":     models.OrderStatusPaid,
			"payment_id": paymentID,
			"paid_at":    at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *paymentOrderRepo) Transition(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

func (r *paymentOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&orders).Error
	return orders, err
}
