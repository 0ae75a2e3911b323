package memory

import (
	"sync"

	"github.com/calio/food-agent/internal/domain"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[domain.UserID][]*domain.OrderRecord
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[domain.UserID][]*domain.OrderRecord),
	}
}

func (s *OrderStore) AppendOrder(record *domain.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[record.UserID] = append(s.orders[record.UserID], record)
	return nil
}

// ListOrdersByUser returns the most recent orders first.
func (s *OrderStore) ListOrdersByUser(userID domain.UserID, limit int) ([]*domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.orders[userID]
	result := make([]*domain.OrderRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		result = append(result, all[i])
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
