package models

import "time"

// CartEntry is one product line in a user's cart. UnitPrice is a snapshot of
// the product price (minor units) taken at write time; Total is always
// recomputed as UnitPrice * Quantity and never set independently.
type CartEntry struct {
	ProductID   string `json:"product_id" bson:"product_id"`
	ProductName string `json:"product_name" bson:"product_name"`
	UnitPrice   int64  `json:"unit_price" bson:"unit_price"`
	SellerID    string `json:"seller_id" bson:"seller_id"`
	Quantity    int    `json:"quantity" bson:"quantity"`
	Total       int64  `json:"total" bson:"total"`
}

// Recompute refreshes Total from the current UnitPrice and Quantity.
func (e *CartEntry) Recompute() {
	e.Total = e.UnitPrice * int64(e.Quantity)
}

type Cart struct {
	UserID    string      `json:"user_id"`
	Items     []CartEntry `json:"items"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Total sums the line totals of every entry. Pure; no side effects.
func (c *Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Total
	}
	return total
}
