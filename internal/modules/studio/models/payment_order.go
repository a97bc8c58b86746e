package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentOrder is a credit purchase
type PaymentOrder struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID         string     `gorm:"type:varchar(40);not null" json:"plan_id"`
	Credits        int        `gorm:"not null" json:"credits"`
	Amount         int64      `gorm:"not null" json:"amount"` // paise
	Currency       string     `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Gateway        string     `gorm:"type:text" json:"gateway"`
	GatewayOrderID string     `gorm:"type:text;index" json:"gateway_order_id,omitempty"`
	PaymentID      string     `gorm:"type:text" json:"payment_id,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}

func (o *PaymentOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Order status constants
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)
