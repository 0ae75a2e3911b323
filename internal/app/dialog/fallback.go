package dialog

import "github.com/calio/food-agent/internal/domain"

// placeholderCandidates is the degraded-mode list shown when the
// directory fails or returns nothing. The conversation keeps moving;
// the lookup failure is only logged.
func placeholderCandidates() []domain.Candidate {
	r := func(v float64) *float64 { return &v }
	return []domain.Candidate{
		{Name: "Mock Sushi Bar", Rating: r(4.7), ETA: 25},
		{Name: "Demo Burger Joint", Rating: r(4.3), ETA: 20},
		{Name: "Test Vegan Cafe", Rating: r(4.5), ETA: 15},
		{Name: "Sample Pizza Place", Rating: r(4.2), ETA: 30},
		{Name: "Placeholder Diner", Rating: r(4.0), ETA: 18},
	}
}
