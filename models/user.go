package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is both a potential buyer (cart, order history) and a potential
// seller (products sold history, payout account) at the same time.
type User struct {
	ID              string             `json:"id" bson:"_id"`
	Name            string             `json:"name" bson:"name"`
	UserName        string             `json:"user_name" bson:"user_name"`
	Email           string             `json:"email" bson:"email"`
	Role            string             `json:"role" bson:"role"`
	IsSeller        bool               `json:"is_seller" bson:"is_seller"`
	StripeAccountID string             `json:"-" bson:"stripe_account_id,omitempty"`
	OrderHistory    []Order            `json:"order_history" bson:"order_history"`
	ProductsSold    []SellerOrderGroup `json:"products_sold" bson:"products_sold"`
	IsActive        bool               `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}
