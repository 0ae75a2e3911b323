package domain

import "time"

// OrderRecord captures one completed handoff: the user picked a venue
// and was deep-linked out to a vendor. It is the per-user order history
// the greeting draws on in later sessions.
type OrderRecord struct {
	ID        OrderID   `json:"id"`
	SessionID SessionID `json:"session_id"`
	UserID    UserID    `json:"user_id"`

	Restaurant  string      `json:"restaurant"`
	Cuisine     string      `json:"cuisine,omitempty"`
	ServiceType ServiceType `json:"service_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// OrderStore defines the minimum operations to persist order history.
type OrderStore interface {
	AppendOrder(record *OrderRecord) error
	ListOrdersByUser(userID UserID, limit int) ([]*OrderRecord, error)
}
