package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/account"
	"github.com/stripe/stripe-go/v80/accountlink"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/transfer"
)

// StripeGateway implements PaymentGateway against Stripe Connect: one
// Checkout Session collects the combined payment, transfers fan it out to
// seller Express accounts correlated by transfer group.
type StripeGateway struct {
	currency string
}

func NewStripeGateway(secretKey, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{currency: currency}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, items []SessionLineItem, groupTag, successURL, cancelURL string) (*CheckoutSessionInfo, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			TransferGroup: stripe.String(groupTag),
		},
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US", "CA", "GB"}),
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	return sessionInfo(s), nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSessionInfo, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve session %s: %w", sessionID, err)
	}
	return sessionInfo(s), nil
}

func (g *StripeGateway) CreateTransfer(ctx context.Context, amountMinorUnits int64, destinationAccount, groupTag string) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(amountMinorUnits),
		Currency:      stripe.String(g.currency),
		Destination:   stripe.String(destinationAccount),
		TransferGroup: stripe.String(groupTag),
	}
	params.Context = ctx

	tr, err := transfer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: transfer to %s: %w", destinationAccount, err)
	}
	return tr.ID, nil
}

func (g *StripeGateway) CreateExpressAccount(ctx context.Context) (string, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
	}
	params.Context = ctx

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create express account: %w", err)
	}
	return acct.ID, nil
}

func (g *StripeGateway) CreateAccountLink(ctx context.Context, accountID, redirectURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(redirectURL),
		ReturnURL:  stripe.String(redirectURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := accountlink.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create account link: %w", err)
	}
	return link.URL, nil
}

func (g *StripeGateway) AccountChargesEnabled(ctx context.Context, accountID string) (bool, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return false, fmt.Errorf("stripe: retrieve account %s: %w", accountID, err)
	}
	return acct.ChargesEnabled, nil
}

func sessionInfo(s *stripe.CheckoutSession) *CheckoutSessionInfo {
	info := &CheckoutSessionInfo{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
	}
	if s.ShippingDetails != nil {
		info.Shipping.Name = s.ShippingDetails.Name
		if s.ShippingDetails.Address != nil {
			info.Shipping.Line1 = s.ShippingDetails.Address.Line1
			info.Shipping.Line2 = s.ShippingDetails.Address.Line2
			info.Shipping.City = s.ShippingDetails.Address.City
			info.Shipping.PostalCode = s.ShippingDetails.Address.PostalCode
			info.Shipping.Country = s.ShippingDetails.Address.Country
		}
	}
	return info
}
