package orders

import (
	"context"

	"github.com/calio/food-agent/internal/domain"
)

// Service holds the logic of reading past orders
type Service struct {
	store domain.OrderStore
}

// NewService creates an orders service from an OrderStore
func NewService(store domain.OrderStore) *Service {
	return &Service{
		store: store,
	}
}

// ListUserOrders returns the last `limit` orders for a user.
// If limit <= 0, a reasonable default value is used.
func (s *Service) ListUserOrders(
	ctx context.Context,
	userID domain.UserID,
	limit int,
) ([]*domain.OrderRecord, error) {

	if s.store == nil {
		// Backends without order persistence leave the store nil;
		// the history endpoint just comes back empty
		return []*domain.OrderRecord{}, nil
	}

	if limit <= 0 {
		limit = 20
	}

	// ctx is unused by the in-memory store but the interface may grow
	return s.store.ListOrdersByUser(userID, limit)
}
