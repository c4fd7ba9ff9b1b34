package services

import (
	"context"
	"errors"
	"math"
	"net/http"

	"go.uber.org/zap"

	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/repository"
)

// Fee schedule, in the payment processor's terms: a percentage processing
// fee, the platform's own cut, and a fixed per-transfer charge in cents.
const (
	processingFeeRate       = 0.029
	platformFeeRate         = 0.10
	fixedProcessingFeeCents = 30
)

// TransferAmount nets the fees out of one seller's total. All values are
// minor units; rounding happens exactly once, on the percentage deduction.
func TransferAmount(amountCents int64) int64 {
	deduction := int64(math.Round(float64(amountCents)*(processingFeeRate+platformFeeRate))) + fixedProcessingFeeCents
	return amountCents - deduction
}

// PayoutService fans a settled checkout's combined payment out to the
// sellers involved, one transfer per seller, all tagged with the order id so
// the gateway can correlate them to the single payment.
type PayoutService struct {
	users   repository.UserStore
	ledger  repository.PaymentLedger
	gateway PaymentGateway
	log     *zap.Logger
}

func NewPayoutService(users repository.UserStore, ledger repository.PaymentLedger, gateway PaymentGateway, log *zap.Logger) *PayoutService {
	return &PayoutService{
		users:   users,
		ledger:  ledger,
		gateway: gateway,
		log:     log,
	}
}

// Distribute issues one transfer per seller group. Failures propagate to the
// caller and are never retried here; settlement already committed, so the
// ledger row is marked instead of anything being rolled back.
func (s *PayoutService) Distribute(ctx context.Context, orderID string, groups []models.SellerOrderGroup) error {
	for _, group := range groups {
		seller, err := s.users.FindByID(ctx, group.SellerID)
		if errors.Is(err, repository.ErrNotFound) {
			return s.fail(ctx, orderID, apperrors.Newf(http.StatusNotFound,
				"Seller %s no longer exists; payout cannot be issued", group.SellerID))
		}
		if err != nil {
			return err
		}
		if seller.StripeAccountID == "" {
			return s.fail(ctx, orderID, apperrors.Newf(http.StatusBadRequest,
				"Seller %s has no payout account on file", seller.UserName))
		}

		amount := TransferAmount(group.SellerTotal)
		if amount <= 0 {
			// Fees exceed the seller's total; nothing to transfer.
			s.log.Warn("seller total below fee floor, skipping transfer",
				zap.String("order_id", orderID),
				zap.String("seller_id", group.SellerID),
				zap.Int64("seller_total", group.SellerTotal))
			continue
		}

		transferID, err := s.gateway.CreateTransfer(ctx, amount, seller.StripeAccountID, orderID)
		if err != nil {
			return s.fail(ctx, orderID, apperrors.New(http.StatusBadGateway,
				"Transfer to seller failed", err))
		}

		s.log.Info("transfer issued",
			zap.String("order_id", orderID),
			zap.String("seller_id", group.SellerID),
			zap.String("transfer_id", transferID),
			zap.Int64("amount", amount))

		if err := s.ledger.IncrementTransferCount(ctx, orderID); err != nil {
			s.log.Warn("failed to bump transfer count", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	if err := s.ledger.UpdateStatus(ctx, orderID, map[string]interface{}{
		"status": models.PaymentStatusPaidOut,
	}); err != nil {
		s.log.Warn("failed to mark payment paid out", zap.String("order_id", orderID), zap.Error(err))
	}
	return nil
}

func (s *PayoutService) fail(ctx context.Context, orderID string, cause *apperrors.Error) error {
	if err := s.ledger.UpdateStatus(ctx, orderID, map[string]interface{}{
		"status": models.PaymentStatusPayoutErr,
	}); err != nil {
		s.log.Warn("failed to mark payout error", zap.String("order_id", orderID), zap.Error(err))
	}
	return cause
}
