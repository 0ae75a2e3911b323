package memory

import (
	"context"
	"testing"

	"github.com/calio/food-agent/internal/domain"
)

func TestMemoryStoreMergeSemantics(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Fresh user: empty record, no error.
	mem, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if mem != (domain.Memory{}) {
		t.Fatalf("expected empty record, got %+v", mem)
	}

	err = s.Save(ctx, "u1", domain.MemoryUpdate{
		Cuisine: domain.Set("sushi"),
		Mood:    domain.Set("celebratory"),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Nil field leaves cuisine alone; pointer-to-empty clears mood.
	err = s.Save(ctx, "u1", domain.MemoryUpdate{
		Mood:     domain.Set(""),
		Occasion: domain.Set("date night"),
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mem, _ = s.Load(ctx, "u1")
	if mem.Cuisine != "sushi" {
		t.Fatalf("nil field must not touch cuisine, got %q", mem.Cuisine)
	}
	if mem.Mood != "" {
		t.Fatalf("explicit clear must empty mood, got %q", mem.Mood)
	}
	if mem.Occasion != "date night" {
		t.Fatalf("expected occasion set, got %q", mem.Occasion)
	}
}

func TestOrderStoreNewestFirst(t *testing.T) {
	s := NewOrderStore()

	for _, name := range []string{"first", "second", "third"} {
		err := s.AppendOrder(&domain.OrderRecord{
			ID:         domain.OrderID(name),
			UserID:     "u1",
			Restaurant: name,
		})
		if err != nil {
			t.Fatalf("AppendOrder failed: %v", err)
		}
	}

	records, err := s.ListOrdersByUser("u1", 2)
	if err != nil {
		t.Fatalf("ListOrdersByUser failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Restaurant != "third" || records[1].Restaurant != "second" {
		t.Fatalf("expected newest first, got %s then %s", records[0].Restaurant, records[1].Restaurant)
	}
}
