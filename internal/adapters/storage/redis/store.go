package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calio/food-agent/internal/domain"
)

const (
	memoryKeyPrefix = "food-agent:memory:"
	ordersKeyPrefix = "food-agent:orders:"
)

// Store persists user Memory as a Redis hash, one field per preference,
// and order history as a list. Hash fields map one-to-one onto the
// merge semantics: HSet for changed fields, HDel for cleared ones.
type Store struct {
	client *redis.Client
}

func NewStore(ctx context.Context, addr, password string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func memoryKey(userID domain.UserID) string {
	return memoryKeyPrefix + string(userID)
}

func ordersKey(userID domain.UserID) string {
	return ordersKeyPrefix + string(userID)
}

func (s *Store) Load(ctx context.Context, userID domain.UserID) (domain.Memory, error) {
	fields, err := s.client.HGetAll(ctx, memoryKey(userID)).Result()
	if err != nil {
		return domain.Memory{}, fmt.Errorf("loading memory for %s: %w", userID, err)
	}

	// Missing key yields an empty map: a fresh user, not an error.
	return domain.Memory{
		LastOrder:          fields["last_order"],
		Cuisine:            fields["cuisine"],
		Mood:               fields["mood"],
		Occasion:           fields["occasion"],
		ServiceType:        domain.ServiceType(fields["service_type"]),
		SelectedRestaurant: fields["selected_restaurant"],
	}, nil
}

func (s *Store) Save(ctx context.Context, userID domain.UserID, update domain.MemoryUpdate) error {
	key := memoryKey(userID)

	set := map[string]any{}
	var del []string

	collect := func(field, value string, present bool) {
		if !present {
			return
		}
		if value == "" {
			del = append(del, field)
			return
		}
		set[field] = value
	}

	collect("last_order", deref(update.LastOrder), update.LastOrder != nil)
	collect("cuisine", deref(update.Cuisine), update.Cuisine != nil)
	collect("mood", deref(update.Mood), update.Mood != nil)
	collect("occasion", deref(update.Occasion), update.Occasion != nil)
	if update.ServiceType != nil {
		collect("service_type", string(*update.ServiceType), true)
	}
	collect("selected_restaurant", deref(update.SelectedRestaurant), update.SelectedRestaurant != nil)

	if len(set) == 0 && len(del) == 0 {
		return nil
	}
	set["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, set)
	if len(del) > 0 {
		pipe.HDel(ctx, key, del...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving memory for %s: %w", userID, err)
	}
	return nil
}

func (s *Store) AppendOrder(record *domain.OrderRecord) error {
	ctx := context.Background()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding order record: %w", err)
	}
	if err := s.client.RPush(ctx, ordersKey(record.UserID), payload).Err(); err != nil {
		return fmt.Errorf("appending order for %s: %w", record.UserID, err)
	}
	return nil
}

func (s *Store) ListOrdersByUser(userID domain.UserID, limit int) ([]*domain.OrderRecord, error) {
	ctx := context.Background()

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.LRange(ctx, ordersKey(userID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing orders for %s: %w", userID, err)
	}

	// Newest first.
	result := make([]*domain.OrderRecord, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var rec domain.OrderRecord
		if err := json.Unmarshal([]byte(raw[i]), &rec); err != nil {
			return nil, fmt.Errorf("decoding order record: %w", err)
		}
		result = append(result, &rec)
	}
	return result, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
