package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment statuses as recorded in the ledger.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusSettled   = "settled"
	PaymentStatusFailed    = "failed"
	PaymentStatusPaidOut   = "paid_out"
	PaymentStatusPayoutErr = "payout_error"
)

// Payment is the audit row for one checkout: the combined buyer charge and
// the state of the per-seller transfers that net it out. Amounts are minor
// units. This table is not the source of truth for orders or inventory.
type Payment struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OrderID         string         `gorm:"index;not null"`
	UserID          string         `gorm:"index;not null"`
	Amount          int64          `gorm:"not null"`
	Currency        string         `gorm:"type:varchar(10);not null"`
	Status          string         `gorm:"type:varchar(20);not null"`
	StripeSessionID *string        `gorm:"uniqueIndex"`
	TransferCount   int            `gorm:"not null;default:0"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}
