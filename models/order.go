package models

import "time"

// Order is the buyer-side record of one successful checkout. Immutable once
// created; newest orders sit at the front of the buyer's order history.
type Order struct {
	OrderID   string      `json:"order_id" bson:"order_id"`
	OrderDate time.Time   `json:"order_date" bson:"order_date"`
	Total     int64       `json:"total" bson:"total"`
	Items     []CartEntry `json:"items" bson:"items"`
}

// ShippingDetails is an opaque passthrough of what the payment gateway
// collected from the buyer. Nothing in settlement interprets it.
type ShippingDetails struct {
	Name       string `json:"name" bson:"name"`
	Line1      string `json:"line1" bson:"line1"`
	Line2      string `json:"line2,omitempty" bson:"line2,omitempty"`
	City       string `json:"city" bson:"city"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country" bson:"country"`
}

// SellerOrderGroup is one seller's slice of a single checkout. A checkout
// spanning N distinct sellers produces N groups, all sharing the buyer
// Order's id and date.
type SellerOrderGroup struct {
	OrderID     string          `json:"order_id" bson:"order_id"`
	SellerID    string          `json:"seller_id" bson:"seller_id"`
	OrderDate   time.Time       `json:"order_date" bson:"order_date"`
	SellerTotal int64           `json:"seller_total" bson:"seller_total"`
	BuyerName   string          `json:"buyer_name" bson:"buyer_name"`
	BuyerEmail  string          `json:"buyer_email" bson:"buyer_email"`
	Shipping    ShippingDetails `json:"shipping" bson:"shipping"`
	Items       []CartEntry     `json:"items" bson:"items"`
}
