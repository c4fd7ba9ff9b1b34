package services

import (
	"context"

	"github.com/openstall/marketplace/models"
)

// SessionLineItem is one display line sent to the payment gateway when a
// checkout session is created. Amounts are minor units.
type SessionLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutSessionInfo mirrors the slice of a gateway session the core cares
// about: whether the combined payment cleared and what the buyer entered.
type CheckoutSessionInfo struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Shipping      models.ShippingDetails
}

// PaymentGateway is the protocol with the external payment processor.
// Implementations must return explicit errors; callers decide whether a
// gateway failure is fatal (session verification) or surfaced without
// rollback (transfers).
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, items []SessionLineItem, groupTag, successURL, cancelURL string) (*CheckoutSessionInfo, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSessionInfo, error)
	CreateTransfer(ctx context.Context, amountMinorUnits int64, destinationAccount, groupTag string) (string, error)

	CreateExpressAccount(ctx context.Context) (string, error)
	CreateAccountLink(ctx context.Context, accountID, redirectURL string) (string, error)
	AccountChargesEnabled(ctx context.Context, accountID string) (bool, error)
}
