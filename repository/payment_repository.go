package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openstall/marketplace/models"
)

// PaymentLedger records the combined buyer charge and transfer progress for
// each checkout. Audit only; orders and inventory live elsewhere.
type PaymentLedger interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, orderID string, updates map[string]interface{}) error
	IncrementTransferCount(ctx context.Context, orderID string) error
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// IncrementTransferCount bumps the number of transfers issued for an order.
func (r *PaymentRepository) IncrementTransferCount(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		UpdateColumn("transfer_count", gorm.Expr("transfer_count + ?", 1)).Error
}

// UpdateStatus applies column updates to a payment row by order id.
// updated_at is always set automatically.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, orderID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}
