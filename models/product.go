package models

import "time"

// Product as stored in the products collection. Price is in minor units
// (cents); Quantity is the live available stock and can never go below zero.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	ImageKey    string    `json:"image_key,omitempty" bson:"image_key,omitempty"`
	Price       int64     `json:"price" bson:"price"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	SellerID    string    `json:"seller_id" bson:"seller_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
