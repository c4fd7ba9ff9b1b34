package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openstall/marketplace/models"
	"github.com/openstall/marketplace/pkg/apperrors"
	"github.com/openstall/marketplace/repository"
)

// EventPublisher emits post-settlement notifications. Both methods are
// best-effort; settlement never fails because of them.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

// CheckoutResult is what one settlement pass produced. Success is true even
// when every entry had an anomaly; only structural problems (unknown buyer,
// forbidden actor, unpaid session) fail the call outright.
type CheckoutResult struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	OrderID string                    `json:"order_id,omitempty"`
	Total   int64                     `json:"total"`
	Items   []models.CartEntry        `json:"items"`
	Groups  []models.SellerOrderGroup `json:"-"`
}

// CheckoutService is the settlement engine: one synchronous pass per call
// that reconciles the cart against live inventory, records the transaction
// from the buyer's and each seller's perspective, and reports per-item
// anomalies without aborting on them.
type CheckoutService struct {
	carts    repository.CartStore
	users    repository.UserStore
	products repository.ProductStore
	ledger   repository.PaymentLedger
	gateway  PaymentGateway
	events   EventPublisher
	currency string
	log      *zap.Logger
}

func NewCheckoutService(
	carts repository.CartStore,
	users repository.UserStore,
	products repository.ProductStore,
	ledger repository.PaymentLedger,
	gateway PaymentGateway,
	events EventPublisher,
	currency string,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		users:    users,
		products: products,
		ledger:   ledger,
		gateway:  gateway,
		events:   events,
		currency: currency,
		log:      log,
	}
}

// CreateSession builds a payment-gateway checkout session from the buyer's
// current cart and records a pending ledger row keyed to the session.
func (s *CheckoutService) CreateSession(ctx context.Context, actorID, actorRole, userID, successURL, cancelURL string) (*CheckoutSessionInfo, error) {
	if err := requireOwnerOrAdmin(actorID, actorRole, userID); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.New(http.StatusBadRequest, "Cart is empty", nil)
	}

	lineItems := make([]SessionLineItem, 0, len(cart.Items))
	for _, entry := range cart.Items {
		lineItems = append(lineItems, SessionLineItem{
			Name:       entry.ProductName,
			UnitAmount: entry.UnitPrice,
			Quantity:   int64(entry.Quantity),
		})
	}

	groupTag := uuid.NewString()
	info, err := s.gateway.CreateCheckoutSession(ctx, lineItems, groupTag, successURL, cancelURL)
	if err != nil {
		return nil, apperrors.New(http.StatusBadGateway, "Failed to create payment session", err)
	}

	payment := &models.Payment{
		ID:              uuid.New(),
		OrderID:         groupTag,
		UserID:          userID,
		Amount:          cart.Total(),
		Currency:        s.currency,
		Status:          models.PaymentStatusPending,
		StripeSessionID: &info.ID,
	}
	if err := s.ledger.Create(ctx, payment); err != nil {
		s.log.Error("failed to record pending payment", zap.String("session_id", info.ID), zap.Error(err))
	}

	return info, nil
}

// HandlePurchase runs one settlement pass for the buyer's cart after
// confirming the gateway session was paid. Unlike cart validation, the loop
// never stops at the first problem: anomalies accumulate so the caller gets
// the complete picture in one round trip.
func (s *CheckoutService) HandlePurchase(ctx context.Context, actorID, actorRole, userID, sessionID string) (*CheckoutResult, error) {
	if err := requireOwnerOrAdmin(actorID, actorRole, userID); err != nil {
		return nil, err
	}

	buyer, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "User not found", nil)
	}
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.New(http.StatusBadGateway, "Failed to verify payment session", err)
	}
	if session.PaymentStatus != "paid" {
		return nil, apperrors.ErrPaymentRequired
	}

	// The pending ledger row carries the transfer-group tag stamped on the
	// session at creation; reusing it as the order id keeps the per-seller
	// transfers correlated with the combined payment. A row past pending has
	// already been consumed and must not settle the cart a second time.
	payment, err := s.ledger.FindBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	orderID := uuid.NewString()
	if payment != nil {
		if payment.Status != models.PaymentStatusPending && payment.Status != models.PaymentStatusPaid {
			return nil, apperrors.New(http.StatusConflict, "This payment session has already been processed", nil)
		}
		orderID = payment.OrderID
	} else {
		s.log.Warn("no ledger row for session", zap.String("session_id", sessionID))
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID, Items: []models.CartEntry{}}
	}

	// One timestamp shared by the buyer order and every seller group
	// produced in this pass.
	orderDate := time.Now().UTC()

	var (
		settled   []models.CartEntry
		remaining []models.CartEntry
		anomalies []string
	)

	for _, entry := range cart.Items {
		sellerExists, err := s.users.Exists(ctx, entry.SellerID)
		if err != nil {
			return nil, err
		}
		if !sellerExists {
			anomalies = append(anomalies,
				fmt.Sprintf("The seller for %q no longer exists; the item was removed from your cart.", entry.ProductName))
			continue
		}

		if _, err := s.products.FindByID(ctx, entry.ProductID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				anomalies = append(anomalies,
					fmt.Sprintf("%q no longer exists or has been removed; the item was removed from your cart.", entry.ProductName))
				continue
			}
			return nil, err
		}

		// The decrement is the sole stock check: decrement-if-sufficient in
		// one atomic document update. A rejection here, even after the
		// lookup above succeeded, just means another checkout got there
		// first.
		_, err = s.products.DecrementStock(ctx, entry.ProductID, entry.Quantity)
		switch {
		case err == nil:
			settled = append(settled, entry)
		case errors.Is(err, repository.ErrInsufficientStock):
			available := 0
			if p, lookupErr := s.products.FindByID(ctx, entry.ProductID); lookupErr == nil {
				available = p.Quantity
			}
			anomalies = append(anomalies,
				fmt.Sprintf("Requested quantity for %q (%d) exceeds the available stock of %d.",
					entry.ProductName, entry.Quantity, available))
			if available > 0 {
				clamped := entry
				clamped.Quantity = available
				clamped.Recompute()
				remaining = append(remaining, clamped)
			}
		case errors.Is(err, repository.ErrNotFound):
			anomalies = append(anomalies,
				fmt.Sprintf("%q no longer exists or has been removed; the item was removed from your cart.", entry.ProductName))
		default:
			return nil, err
		}
	}

	var groups []models.SellerOrderGroup
	var grandTotal int64

	if len(settled) > 0 {
		groups = groupBySeller(settled, orderID, orderDate, buyer, session.Shipping)

		for _, group := range groups {
			if err := s.users.PrependSellerGroup(ctx, group.SellerID, group); err != nil {
				return nil, err
			}
			grandTotal += group.SellerTotal
		}

		order := models.Order{
			OrderID:   orderID,
			OrderDate: orderDate,
			Total:     grandTotal,
			Items:     settled,
		}
		if err := s.users.PrependOrder(ctx, buyer.ID, order); err != nil {
			return nil, err
		}
	}

	cart.Items = remaining
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, err
	}

	if len(settled) > 0 {
		s.recordSettlement(ctx, payment, userID, grandTotal)
		s.publishEvents(ctx, orderID, userID, grandTotal, settled, anomalies)
	}

	message := strings.Join(anomalies, "\n")
	if message == "" {
		message = "Your purchase was successful."
	}

	result := &CheckoutResult{
		Success: true,
		Message: message,
		Total:   grandTotal,
		Items:   settled,
		Groups:  groups,
	}
	// An order id only exists once an Order does.
	if len(settled) > 0 {
		result.OrderID = orderID
	}
	return result, nil
}

// Payment returns the audit ledger row for an order.
func (s *CheckoutService) Payment(ctx context.Context, orderID string) (*models.Payment, error) {
	payment, err := s.ledger.FindByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "Payment not found", nil)
	}
	return payment, err
}

// recordSettlement moves the session's ledger row to settled. The row is
// audit only, so failures are logged and swallowed.
func (s *CheckoutService) recordSettlement(ctx context.Context, payment *models.Payment, userID string, total int64) {
	if payment == nil {
		return
	}
	if err := s.ledger.UpdateStatus(ctx, payment.OrderID, map[string]interface{}{
		"status":  models.PaymentStatusSettled,
		"user_id": userID,
		"amount":  total,
	}); err != nil {
		s.log.Warn("failed to update ledger row", zap.String("order_id", payment.OrderID), zap.Error(err))
	}
}

func (s *CheckoutService) publishEvents(ctx context.Context, orderID, userID string, total int64, items []models.CartEntry, anomalies []string) {
	if s.events == nil {
		return
	}
	event := models.OrderEvent{
		Event:     "order.settled",
		OrderID:   orderID,
		UserID:    userID,
		Total:     total,
		Currency:  s.currency,
		Items:     items,
		Message:   strings.Join(anomalies, "\n"),
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.log.Warn("failed to publish order event", zap.String("order_id", orderID), zap.Error(err))
	}
}

// groupBySeller partitions settled line items into one group per distinct
// seller, preserving encounter order. A seller appearing in several line
// items is processed exactly once.
func groupBySeller(settled []models.CartEntry, orderID string, orderDate time.Time, buyer *models.User, shipping models.ShippingDetails) []models.SellerOrderGroup {
	seen := make(map[string]bool, len(settled))
	var groups []models.SellerOrderGroup

	for _, entry := range settled {
		if seen[entry.SellerID] {
			continue
		}
		seen[entry.SellerID] = true

		group := models.SellerOrderGroup{
			OrderID:    orderID,
			SellerID:   entry.SellerID,
			OrderDate:  orderDate,
			BuyerName:  buyer.Name,
			BuyerEmail: buyer.Email,
			Shipping:   shipping,
		}
		for _, item := range settled {
			if item.SellerID == entry.SellerID {
				group.Items = append(group.Items, item)
				group.SellerTotal += item.Total
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func requireOwnerOrAdmin(actorID, actorRole, userID string) error {
	if actorID != userID && actorRole != models.RoleAdmin {
		return apperrors.New(http.StatusForbidden, "You are not allowed to check out this cart", nil)
	}
	return nil
}
