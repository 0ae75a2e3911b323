package memory

import (
	"context"
	"sync"

	"github.com/calio/food-agent/internal/domain"
)

// MemoryStore keeps per-user preference records in process. The merge
// semantics match the durable backends: nil field means leave alone,
// pointer to empty string means clear.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.UserID]domain.Memory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[domain.UserID]domain.Memory),
	}
}

func (s *MemoryStore) Load(ctx context.Context, userID domain.UserID) (domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Unknown users get an empty record, not an error.
	return s.records[userID], nil
}

func (s *MemoryStore) Save(ctx context.Context, userID domain.UserID, update domain.MemoryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[userID]
	rec.Apply(update)
	s.records[userID] = rec
	return nil
}
