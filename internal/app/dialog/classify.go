package dialog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calio/food-agent/internal/domain"
	"github.com/calio/food-agent/internal/observability"
)

const fullExtractorPrompt = `
You are a JSON extractor. Given a user's message, return EXACTLY a JSON object with these keys:
  - "cuisine": the name of any cuisine or dish the user is actively requesting or positively expressing a desire for; otherwise null.
  - "mood": a short adjective or phrase capturing the user's emotional state; otherwise null.
  - "occasion": a short phrase for the situation or reason for the meal; otherwise null.
  - "serviceType": one of "delivery", "pickup", or "dine-in" if the user explicitly mentions wanting that; otherwise null.

Rules:
1. Only fill "cuisine" if the user asks for, requests, or expresses a positive desire for a specific dish or cuisine.
2. If the user merely mentions a dish (e.g. "never recommend salad to me") or expresses dislike/rejection, "cuisine" must be null.
3. Do not hardcode any specific foods - apply rule #1 and #2 generally.
4. Do not output any text besides the JSON object.
`

const slimExtractorPrompt = `
You are a JSON extractor. Given a user's message, return EXACTLY a JSON object with:
  - "cuisine": the name of any cuisine or dish the user is actively requesting or positively expressing a desire for; otherwise null.
Respond with only the JSON object - no extra text.
`

const affirmationPrompt = `
You are a JSON classifier. I will give you two pieces of information:
1) The assistant's question.
2) The user's reply to that question.

Decide whether the user is affirming (agreeing/confirming) or denying
(refusing/rejecting) that specific question.

Return EXACTLY one JSON object with:
  "intent": either "affirm" or "deny"

Respond with only the JSON object - no extra text.
`

const restaurantReplyPrompt = `
You are a JSON classifier. The user has just been shown a short list of restaurants.

Return EXACTLY one JSON object with:
  "action": one of:
    - "pick"    (they are choosing one; e.g. "1", "two", "Pure Punjabi")
    - "more"    (they explicitly request MORE results with words like "more", "another", "show more")
    - "change"  (they want to start over or change cuisine: "I change my mind", "something else")
    - "none"    (any other reply, like follow-up questions)

If "pick", also include:
  "selection": the 1-based index (1,2,3) or the exact restaurant name.

Only return the JSON object - no extra text.
`

const changeOfMindPrompt = `
You are a JSON classifier. The user may say something that indicates they want
to restart the ordering flow - changing their mind, not ready to order, etc.

Return EXACTLY a JSON object with:
  { "changeMind": true } if they are asking to start over
  { "changeMind": false } otherwise

Respond with ONLY the JSON object - no extra text.
`

// slots is the structured guess extracted from one utterance. Null and
// missing keys both decode to the empty string: no new information.
type slots struct {
	Cuisine     string `json:"cuisine"`
	Mood        string `json:"mood"`
	Occasion    string `json:"occasion"`
	ServiceType string `json:"serviceType"`
}

// scanObject pulls the first brace-delimited object out of raw model
// text. Anything that does not contain one is treated as "{}".
func scanObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "{}"
	}
	return s[start : end+1]
}

// extractSlots runs the full or slim extractor over one utterance.
// Failures are swallowed: the turn proceeds with all slots unchanged.
func (o *Orchestrator) extractSlots(ctx context.Context, utterance string, slim bool) slots {
	prompt := fullExtractorPrompt
	if slim {
		prompt = slimExtractorPrompt
	}

	var out slots
	raw, err := o.llm.Extract(ctx, strings.TrimSpace(prompt), "", utterance)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("slot extraction failed", "error", err)
		return out
	}
	if err := json.Unmarshal([]byte(scanObject(raw)), &out); err != nil {
		observability.LoggerFromContext(ctx).Warn("slot extraction returned malformed JSON", "error", err)
		return slots{}
	}
	return out
}

// classifyAffirmation decides affirm vs deny against the last assistant
// line. Anything unrecognized defaults to deny.
func (o *Orchestrator) classifyAffirmation(ctx context.Context, lastAssistant, utterance string) string {
	raw, err := o.llm.Extract(ctx, strings.TrimSpace(affirmationPrompt), lastAssistant, utterance)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("affirmation classification failed", "error", err)
		return "deny"
	}
	var parsed struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(scanObject(raw)), &parsed); err != nil || parsed.Intent != "affirm" {
		return "deny"
	}
	return "affirm"
}

// restaurantDecision is the classified reply to a shown candidate page.
type restaurantDecision struct {
	Action    string
	Selection json.RawMessage
}

// classifyRestaurantReply resolves pick/more/change; anything else is none.
func (o *Orchestrator) classifyRestaurantReply(ctx context.Context, lastAssistant, utterance string) restaurantDecision {
	none := restaurantDecision{Action: "none"}

	raw, err := o.llm.Extract(ctx, strings.TrimSpace(restaurantReplyPrompt), lastAssistant, utterance)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("restaurant reply classification failed", "error", err)
		return none
	}
	var parsed struct {
		Action    string          `json:"action"`
		Selection json.RawMessage `json:"selection"`
	}
	if err := json.Unmarshal([]byte(scanObject(raw)), &parsed); err != nil {
		return none
	}
	switch parsed.Action {
	case "pick", "more", "change":
		return restaurantDecision{Action: parsed.Action, Selection: parsed.Selection}
	default:
		return none
	}
}

// classifyChangeOfMind reports whether the user wants to restart the
// flow. Defaults to false.
func (o *Orchestrator) classifyChangeOfMind(ctx context.Context, utterance string) bool {
	raw, err := o.llm.Extract(ctx, strings.TrimSpace(changeOfMindPrompt), "", utterance)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("change-of-mind classification failed", "error", err)
		return false
	}
	var parsed struct {
		ChangeMind bool `json:"changeMind"`
	}
	if err := json.Unmarshal([]byte(scanObject(raw)), &parsed); err != nil {
		return false
	}
	return parsed.ChangeMind
}

// resolveSelection turns a classifier selection (1-based ordinal or
// free-text name) into an index on the currently displayed page.
// Returns -1 when it does not resolve.
func resolveSelection(sel json.RawMessage, page []domain.Candidate) int {
	if len(sel) == 0 {
		return -1
	}

	var ordinal float64
	if err := json.Unmarshal(sel, &ordinal); err == nil {
		idx := int(ordinal) - 1
		if idx >= 0 && idx < len(page) {
			return idx
		}
		return -1
	}

	var name string
	if err := json.Unmarshal(sel, &name); err != nil {
		return -1
	}
	for i, c := range page {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}
