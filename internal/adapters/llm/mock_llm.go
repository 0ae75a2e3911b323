package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/calio/food-agent/internal/domain"
)

// MockLLM is a deterministic, rule-based stand-in for local development
// and tests. No network, no tokens, same contract.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

var mockCuisines = []string{
	"sushi", "pizza", "tacos", "ramen", "thai", "indian",
	"korean", "burgers", "mediterranean", "vietnamese",
}

func (m *MockLLM) GenerateReply(
	ctx context.Context,
	instruction string,
	convCtx domain.ConversationContext,
) (string, error) {
	last := ""
	for i := len(convCtx.History) - 1; i >= 0; i-- {
		if convCtx.History[i].Role == domain.RoleUser {
			last = convCtx.History[i].Text
			break
		}
	}
	if last == "" {
		return "Hey! What are you in the mood for today?", nil
	}
	return fmt.Sprintf("Got it, you said %q. Let's find you something good.", last), nil
}

// Extract keys off phrases in the classifier prompts to pick which
// object shape to return, then applies simple keyword rules.
func (m *MockLLM) Extract(
	ctx context.Context,
	system, assistantTurn, userTurn string,
) (string, error) {
	lower := strings.ToLower(userTurn)

	switch {
	case strings.Contains(system, `"intent"`):
		if containsAny(lower, "yes", "yeah", "sure", "sounds good", "ok", "yep") {
			return `{"intent": "affirm"}`, nil
		}
		return `{"intent": "deny"}`, nil

	case strings.Contains(system, `"action"`):
		switch {
		case containsAny(lower, "more", "another", "next"):
			return `{"action": "more"}`, nil
		case containsAny(lower, "change", "something else", "start over"):
			return `{"action": "change"}`, nil
		case containsAny(lower, "first", "1"):
			return `{"action": "pick", "selection": 1}`, nil
		case containsAny(lower, "second", "2"):
			return `{"action": "pick", "selection": 2}`, nil
		case containsAny(lower, "third", "3"):
			return `{"action": "pick", "selection": 3}`, nil
		case containsAny(lower, "no", "nah"):
			return `{"action": "none"}`, nil
		default:
			return fmt.Sprintf(`{"action": "pick", "selection": %q}`, strings.TrimSpace(userTurn)), nil
		}

	case strings.Contains(system, `"changeMind"`):
		if containsAny(lower, "change my mind", "start over", "not ready", "never mind") {
			return `{"changeMind": true}`, nil
		}
		return `{"changeMind": false}`, nil

	default:
		// Slot extraction.
		parts := []string{}
		for _, c := range mockCuisines {
			if strings.Contains(lower, c) {
				parts = append(parts, fmt.Sprintf(`"cuisine": %q`, c))
				break
			}
		}
		switch {
		case strings.Contains(lower, "deliver"):
			parts = append(parts, `"serviceType": "delivery"`)
		case containsAny(lower, "pickup", "pick up", "take out", "takeout"):
			parts = append(parts, `"serviceType": "pickup"`)
		case containsAny(lower, "dine", "eat out", "eat in"):
			parts = append(parts, `"serviceType": "dine-in"`)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
