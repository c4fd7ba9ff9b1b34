package models

import "time"

// OrderEvent is published after a checkout settles. Consumers (email,
// analytics) are outside this service; publishing is best-effort.
type OrderEvent struct {
	Event     string      `json:"event"` // e.g. "order.settled"
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Total     int64       `json:"total"`
	Currency  string      `json:"currency"`
	Items     []CartEntry `json:"items"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
