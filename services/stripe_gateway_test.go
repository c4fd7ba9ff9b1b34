package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v80"
)

func TestSessionInfoMapsShippingDetails(t *testing.T) {
	s := &stripe.CheckoutSession{
		ID:            "cs_test_1",
		URL:           "https://gateway.example/session",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   2500,
		ShippingDetails: &stripe.ShippingDetails{
			Name: "Ada Lovelace",
			Address: &stripe.Address{
				Line1:      "12 Analytical Way",
				City:       "London",
				PostalCode: "N1 7AA",
				Country:    "GB",
			},
		},
	}

	info := sessionInfo(s)
	assert.Equal(t, "cs_test_1", info.ID)
	assert.Equal(t, "paid", info.PaymentStatus)
	assert.Equal(t, int64(2500), info.AmountTotal)
	assert.Equal(t, "Ada Lovelace", info.Shipping.Name)
	assert.Equal(t, "12 Analytical Way", info.Shipping.Line1)
	assert.Equal(t, "GB", info.Shipping.Country)
}

func TestSessionInfoWithoutShipping(t *testing.T) {
	info := sessionInfo(&stripe.CheckoutSession{
		ID:            "cs_test_2",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
	})
	assert.Equal(t, "unpaid", info.PaymentStatus)
	assert.Empty(t, info.Shipping.Name)
}
