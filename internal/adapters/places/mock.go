package places

import (
	"context"
	"fmt"
	"strings"

	"github.com/calio/food-agent/internal/domain"
)

// MockDirectory serves canned venues for local development. Names are
// derived from the requested cuisine so the flow reads naturally.
type MockDirectory struct{}

func NewMockDirectory() *MockDirectory {
	return &MockDirectory{}
}

func rating(v float64) *float64 { return &v }

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (m *MockDirectory) SearchByCuisine(
	ctx context.Context,
	loc domain.Location,
	cuisine string,
) ([]domain.Candidate, error) {
	label := titleCase(cuisine)
	return []domain.Candidate{
		{Name: fmt.Sprintf("%s House", label), Rating: rating(4.6), ETA: 20},
		{Name: fmt.Sprintf("Casa %s", label), Rating: rating(4.4), ETA: 25},
		{Name: fmt.Sprintf("The %s Spot", label), Rating: rating(4.2), ETA: 15},
		{Name: fmt.Sprintf("%s Express", label), Rating: rating(4.0), ETA: 30},
		{Name: fmt.Sprintf("Little %s Kitchen", label), Rating: rating(4.8), ETA: 35},
		{Name: fmt.Sprintf("%s Corner", label), Rating: rating(3.9), ETA: 20},
		{Name: fmt.Sprintf("Golden %s", label), Rating: rating(4.5), ETA: 25},
	}, nil
}

func (m *MockDirectory) SearchNearby(
	ctx context.Context,
	loc domain.Location,
	limit int,
) ([]domain.Candidate, error) {
	all := []domain.Candidate{
		{Name: "Corner Bistro", Rating: rating(4.5), ETA: 10},
		{Name: "Noodle Lane", Rating: rating(4.3), ETA: 15},
		{Name: "The Daily Grill", Rating: rating(4.1), ETA: 15},
		{Name: "Harbor Sushi", Rating: rating(4.7), ETA: 20},
		{Name: "Verde Cantina", Rating: rating(4.2), ETA: 20},
		{Name: "Brick Oven Co", Rating: rating(4.4), ETA: 25},
		{Name: "Spice Route", Rating: rating(4.6), ETA: 25},
		{Name: "Morning Fork", Rating: rating(3.8), ETA: 30},
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
