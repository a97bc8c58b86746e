package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Credit ledger reasons
const (
	CreditReasonSignup           = "signup"
	CreditReasonGeneration       = "generation"
	CreditReasonGenerationRefund = "generation_refund"
	CreditReasonPurchase         = "purchase"
	CreditReasonAdjustment       = "adjustment"
)

// CreditTransaction records one change to a profile's credit balance
type CreditTransaction struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Delta        int       `gorm:"not null" json:"delta"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	Reason       string    `gorm:"type:varchar(40);not null" json:"reason"`
	Reference    string    `gorm:"type:text" json:"reference,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

func (t *CreditTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
