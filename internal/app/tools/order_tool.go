package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calio/food-agent/internal/domain"
)

// OrderTool uses a domain.OrderStore to record completed handoffs so
// later sessions can greet the user with their history.
type OrderTool struct {
	store domain.OrderStore
	now   func() time.Time
}

// NewOrderTool creates a new OrderTool.
// store can be an in-memory, Redis or Firestore implementation.
func NewOrderTool(store domain.OrderStore) *OrderTool {
	return &OrderTool{
		store: store,
		now:   time.Now,
	}
}

func (t *OrderTool) Name() string {
	return "order_store"
}

// Call expects an input with this shape:
//
//	{
//	  "restaurant": "Pure Punjabi",
//	  "cuisine": "Indian",
//	  "service_type": "delivery"
//	}
//
// UserID and SessionID come in ToolContext.
func (t *OrderTool) Call(
	ctx context.Context,
	tctx ToolContext,
	input map[string]any,
) (map[string]any, error) {

	if tctx.UserID == "" || tctx.SessionID == "" {
		return nil, fmt.Errorf("order_store: missing UserID or SessionID in ToolContext")
	}

	restaurant := getString(input, "restaurant")
	if restaurant == "" {
		return nil, fmt.Errorf("order_store: restaurant is required")
	}

	record := &domain.OrderRecord{
		ID:          domain.OrderID(uuid.NewString()),
		SessionID:   domain.SessionID(tctx.SessionID),
		UserID:      domain.UserID(tctx.UserID),
		Restaurant:  restaurant,
		Cuisine:     getString(input, "cuisine"),
		ServiceType: domain.ServiceType(getString(input, "service_type")),
		CreatedAt:   t.now(),
	}

	if err := t.store.AppendOrder(record); err != nil {
		return nil, fmt.Errorf("order_store: append failed: %w", err)
	}

	return map[string]any{
		"status":     "ok",
		"order_id":   string(record.ID),
		"session_id": string(record.SessionID),
		"user_id":    string(record.UserID),
		"created_at": record.CreatedAt,
	}, nil
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
