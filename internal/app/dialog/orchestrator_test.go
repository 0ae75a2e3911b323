package dialog

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calio/food-agent/internal/app/tools"
	"github.com/calio/food-agent/internal/domain"
)

// ── fakes ───────────────────────────────────────────────────

type fakeLLM struct {
	extractFn func(system, assistantTurn, userTurn string) (string, error)
	replyFn   func(instruction string, convCtx domain.ConversationContext) (string, error)
}

func (f *fakeLLM) GenerateReply(ctx context.Context, instruction string, convCtx domain.ConversationContext) (string, error) {
	if f.replyFn != nil {
		return f.replyFn(instruction, convCtx)
	}
	return "sure thing", nil
}

func (f *fakeLLM) Extract(ctx context.Context, system, assistantTurn, userTurn string) (string, error) {
	if f.extractFn != nil {
		return f.extractFn(system, assistantTurn, userTurn)
	}
	return "{}", nil
}

type fakeDirectory struct {
	byCuisine []domain.Candidate
	nearby    []domain.Candidate
	err       error

	lastCuisine string
}

func (f *fakeDirectory) SearchByCuisine(ctx context.Context, loc domain.Location, cuisine string) ([]domain.Candidate, error) {
	f.lastCuisine = cuisine
	return f.byCuisine, f.err
}

func (f *fakeDirectory) SearchNearby(ctx context.Context, loc domain.Location, limit int) ([]domain.Candidate, error) {
	return f.nearby, f.err
}

type fakeTool struct {
	calls []map[string]any
}

func (f *fakeTool) Name() string { return "order_store" }

func (f *fakeTool) Call(ctx context.Context, tctx tools.ToolContext, input map[string]any) (map[string]any, error) {
	f.calls = append(f.calls, input)
	return map[string]any{"status": "ok"}, nil
}

func newTestOrchestrator(llm domain.LLMClient, dir domain.RestaurantDirectory, tool tools.Tool) *Orchestrator {
	return NewOrchestrator(llm, dir, NewPicker(rand.NewSource(1)), tool)
}

func loc() *domain.Location {
	return &domain.Location{Lat: 43.65, Lon: -79.38}
}

func assistantHistory(texts ...string) []*domain.Message {
	out := make([]*domain.Message, 0, len(texts))
	for _, t := range texts {
		out = append(out, &domain.Message{Role: domain.RoleAssistant, Text: t})
	}
	return out
}

// ── extraction path ─────────────────────────────────────────

func TestTurnSurvivesExtractionFailure(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return "", errors.New("model unavailable")
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "something tasty"}, assistantHistory("hi", "x"))

	require.Len(t, res.Replies, 1)
	assert.NotEmpty(t, res.Replies[0].Text)
	// Only the raw utterance lands in memory; no slot guesses.
	assert.Nil(t, res.Update.Cuisine)
	assert.Nil(t, res.Update.ServiceType)
	require.NotNil(t, res.Update.LastOrder)
	assert.Equal(t, "something tasty", *res.Update.LastOrder)
}

func TestCuisineWithoutServiceAsksService(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"cuisine": "pizza"}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "pizza please"}, assistantHistory("hi", "x"))

	require.Len(t, res.Replies, 1)
	require.Len(t, res.Replies[0].Buttons, 3)
	assert.Equal(t, "Delivery", res.Replies[0].Buttons[0].Label)
	assert.True(t, st.AskedService)
	require.NotNil(t, res.Update.Cuisine)
	assert.Equal(t, "pizza", *res.Update.Cuisine)
}

func TestServiceKnownSkipsStraightToCandidates(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"cuisine": "ramen", "serviceType": "delivery"}`, nil
		},
	}
	dir := &fakeDirectory{byCuisine: candidates(7)}
	o := newTestOrchestrator(llm, dir, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "ramen delivered", Location: loc()}, assistantHistory("hi", "x"))

	assert.Equal(t, "ramen", dir.lastCuisine)
	require.Len(t, res.Cards, 3)
	assert.True(t, st.SuggestionsShown)
	assert.False(t, st.AskedService, "service question is skipped when the answer is known")
}

func TestDirectoryFailureFallsBackToPlaceholders(t *testing.T) {
	o := newTestOrchestrator(&fakeLLM{}, &fakeDirectory{err: errors.New("places down")}, nil)
	st := &SessionState{
		SessionID: "s1", UserID: "u1",
		Memory:       domain.Memory{Cuisine: "sushi", ServiceType: domain.ServiceDelivery},
		AskedService: true,
	}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "delivery", Location: loc()}, assistantHistory("hi", "x", "y"))

	require.NotEmpty(t, res.Cards)
	assert.Equal(t, placeholderCandidates()[0].Name, res.Cards[0].Name)
}

func TestMissingLocationDeniesGracefully(t *testing.T) {
	o := newTestOrchestrator(&fakeLLM{}, &fakeDirectory{byCuisine: candidates(5)}, nil)
	st := &SessionState{
		SessionID: "s1", UserID: "u1",
		Memory:       domain.Memory{Cuisine: "sushi", ServiceType: domain.ServiceDelivery},
		AskedService: true,
	}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "delivery please"}, assistantHistory("hi", "x", "y"))

	require.Len(t, res.Replies, 1)
	assert.Equal(t, locationDeniedReply, res.Replies[0].Text)
	assert.Empty(t, res.Cards)
}

func TestCuisineChangeResetsCycle(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"cuisine": "tacos"}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{
		SessionID: "s1", UserID: "u1",
		Memory:       domain.Memory{Cuisine: "sushi"},
		AskedService: true,
	}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "actually, tacos"}, assistantHistory("hi", "x", "y"))

	assert.Equal(t, "tacos", st.Memory.Cuisine)
	assert.Empty(t, st.CurrentPage(), "no stale candidates may survive the switch")
	// The service question is asked again for the new cuisine.
	require.Len(t, res.Replies, 1)
	assert.Len(t, res.Replies[0].Buttons, 3)
	assert.True(t, st.AskedService)
}

// ── remembered cuisine ──────────────────────────────────────

func TestRememberedCuisineAffirmed(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"intent": "affirm"}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{
		SessionID: "s1", UserID: "u1",
		Memory: domain.Memory{Cuisine: "sushi"},
	}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "yes!"}, assistantHistory("sushi again?"))

	require.Len(t, res.Replies, 1)
	assert.Len(t, res.Replies[0].Buttons, 3)
	require.NotNil(t, res.Update.Cuisine)
	assert.Equal(t, "sushi", *res.Update.Cuisine)
}

func TestRememberedCuisineDenied(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"intent": "deny"}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{
		SessionID: "s1", UserID: "u1",
		Memory: domain.Memory{Cuisine: "sushi"},
	}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "no, something new"}, assistantHistory("sushi again?"))

	require.Len(t, res.Replies, 1)
	assert.Empty(t, res.Replies[0].Buttons, "deny must not jump to the service question")
	assert.Empty(t, st.Memory.Cuisine)
	require.NotNil(t, res.Update.Cuisine)
	assert.Equal(t, "", *res.Update.Cuisine, "remembered cuisine is explicitly cleared")
}

// ── candidate pages ─────────────────────────────────────────

func TestMoreAdvancesToShortFinalPage(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"action": "more"}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}
	st.setCandidates(candidates(4), 3)

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "show me more"}, assistantHistory("a", "b", "list"))

	require.Len(t, res.Cards, 1)
	assert.Equal(t, "Venue 4", res.Cards[0].Name)

	// Exhausted now: the next "more" degrades to a free-form reply.
	res = o.HandleTurn(context.Background(), st, TurnInput{Utterance: "more"}, assistantHistory("a", "b", "list", "more"))
	require.Len(t, res.Replies, 1)
	assert.Empty(t, res.Cards)
}

func TestGenericInstructionChoice(t *testing.T) {
	// Falls that reopen cuisine picking steer with the order-details
	// prompt; plain small talk runs with no override at all.
	var captured string
	newLLM := func(extractJSON string) *fakeLLM {
		return &fakeLLM{
			extractFn: func(_, _, _ string) (string, error) {
				return extractJSON, nil
			},
			replyFn: func(instruction string, _ domain.ConversationContext) (string, error) {
				captured = instruction
				return "sure", nil
			},
		}
	}

	t.Run("exhausted more steers back to cuisine", func(t *testing.T) {
		o := newTestOrchestrator(newLLM(`{"action": "more"}`), &fakeDirectory{}, nil)
		st := &SessionState{SessionID: "s1", UserID: "u1"}
		st.setCandidates(candidates(3), 3)

		o.HandleTurn(context.Background(), st, TurnInput{Utterance: "more"}, assistantHistory("a", "b", "list"))
		assert.Equal(t, orderDetailsPrompt, captured)
	})

	t.Run("change steers back to cuisine", func(t *testing.T) {
		o := newTestOrchestrator(newLLM(`{"action": "change"}`), &fakeDirectory{}, nil)
		st := &SessionState{SessionID: "s1", UserID: "u1"}
		st.setCandidates(candidates(3), 3)

		o.HandleTurn(context.Background(), st, TurnInput{Utterance: "something else"}, assistantHistory("a", "b", "list"))
		assert.Equal(t, orderDetailsPrompt, captured)
	})

	t.Run("follow-up question stays free-form", func(t *testing.T) {
		o := newTestOrchestrator(newLLM(`{"action": "none"}`), &fakeDirectory{}, nil)
		st := &SessionState{SessionID: "s1", UserID: "u1"}
		st.setCandidates(candidates(3), 3)

		o.HandleTurn(context.Background(), st, TurnInput{Utterance: "do they have parking?"}, assistantHistory("a", "b", "list"))
		assert.Equal(t, "", captured)
	})

	t.Run("post-selection small talk stays free-form", func(t *testing.T) {
		o := newTestOrchestrator(newLLM(`{"changeMind": false}`), &fakeDirectory{}, nil)
		st := &SessionState{SessionID: "s1", UserID: "u1", Selected: "Venue 1"}

		o.HandleTurn(context.Background(), st, TurnInput{Utterance: "how long?"}, assistantHistory("a", "b", "c", "d"))
		assert.Equal(t, "", captured)
	})
}

func TestOrdinalPickResolvesAgainstDisplayedPage(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"action": "pick", "selection": 2}`, nil
		},
	}
	tool := &fakeTool{}
	o := newTestOrchestrator(llm, &fakeDirectory{}, tool)
	st := &SessionState{
		SessionID: "s1", UserID: "u1",
		Memory: domain.Memory{Cuisine: "sushi", ServiceType: domain.ServiceDelivery},
	}
	st.setCandidates(candidates(6), 3)
	st.cursor.Advance()
	st.current = st.cursor.Slice(st.all, 3) // page two: venues 4..6

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "the second one"}, assistantHistory("a", "b", "list"))

	assert.Equal(t, "Venue 5", st.Selected)
	require.NotNil(t, res.Update.SelectedRestaurant)
	assert.Equal(t, "Venue 5", *res.Update.SelectedRestaurant)

	// Vendor handoff buttons, not service buttons.
	require.Len(t, res.Replies, 1)
	require.Len(t, res.Replies[0].Buttons, 2)
	assert.NotEmpty(t, res.Replies[0].Buttons[0].URL)

	// The pick is recorded as an order.
	require.Len(t, tool.calls, 1)
	assert.Equal(t, "Venue 5", tool.calls[0]["restaurant"])
}

func TestNamePickIsCaseInsensitive(t *testing.T) {
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			return `{"action": "pick", "selection": "venue 2"}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}
	st.setCandidates(candidates(3), 3)

	o.HandleTurn(context.Background(), st, TurnInput{Utterance: "venue 2 please"}, assistantHistory("a", "b", "list"))

	assert.Equal(t, "Venue 2", st.Selected)
}

// ── selected ────────────────────────────────────────────────

func TestSelectedReopensOnlyOnChangeOfMind(t *testing.T) {
	calls := 0
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			calls++
			if calls == 1 {
				return `{"changeMind": false}`, nil
			}
			return `{"changeMind": true}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1", Selected: "Venue 1"}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "how long until it arrives?"}, assistantHistory("a", "b", "c", "d"))
	assert.Equal(t, "Venue 1", st.Selected, "small talk keeps the selection")
	assert.Nil(t, res.Update.SelectedRestaurant)

	res = o.HandleTurn(context.Background(), st, TurnInput{Utterance: "actually I changed my mind"}, assistantHistory("a", "b", "c", "d", "e"))
	assert.Empty(t, st.Selected)
	require.NotNil(t, res.Update.SelectedRestaurant)
	assert.Equal(t, "", *res.Update.SelectedRestaurant)
}

// ── surprise flow ───────────────────────────────────────────

func TestSurpriseRoundTrip(t *testing.T) {
	affirm := false
	llm := &fakeLLM{
		extractFn: func(_, _, _ string) (string, error) {
			if affirm {
				return `{"intent": "affirm"}`, nil
			}
			return `{"intent": "deny"}`, nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "surprise me"}, assistantHistory("hi", "x"))
	require.NotEmpty(t, st.PendingSurprise)
	first := st.PendingSurprise
	require.Len(t, res.Replies, 1)
	assert.Len(t, res.Replies[0].Buttons, 2)
	assert.Nil(t, res.Update.Cuisine, "an unconfirmed pick never reaches memory")

	// Deny re-rolls, excluding the rejected pick.
	res = o.HandleTurn(context.Background(), st, TurnInput{Utterance: "nah"}, assistantHistory("hi", "x", "roll"))
	require.NotEmpty(t, st.PendingSurprise)
	assert.NotEqual(t, first, st.PendingSurprise)

	// Affirm commits the pick and moves to the service question.
	affirm = true
	second := st.PendingSurprise
	res = o.HandleTurn(context.Background(), st, TurnInput{Utterance: "yes"}, assistantHistory("hi", "x", "roll", "roll2"))
	assert.Empty(t, st.PendingSurprise)
	assert.Equal(t, second, st.Memory.Cuisine)
	require.NotNil(t, res.Update.Cuisine)
	assert.Equal(t, second, *res.Update.Cuisine)
	require.Len(t, res.Replies, 1)
	assert.Len(t, res.Replies[0].Buttons, 3)
}

// ── nearby flow ─────────────────────────────────────────────

func TestNearbyTriggerShowsDistanceRankedPage(t *testing.T) {
	dir := &fakeDirectory{nearby: candidates(8)}
	o := newTestOrchestrator(&fakeLLM{}, dir, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}

	res := o.HandleTurn(context.Background(), st, TurnInput{Utterance: "what's nearby?", Location: loc()}, assistantHistory("hi", "x"))

	require.Len(t, res.Cards, 3)
	assert.True(t, st.SuggestionsShown)
}

func TestShowNearbyWithoutLocation(t *testing.T) {
	o := newTestOrchestrator(&fakeLLM{}, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}

	res := o.ShowNearby(context.Background(), st, nil)

	require.Len(t, res.Replies, 1)
	assert.Equal(t, locationDeniedReply, res.Replies[0].Text)
}

// ── greeting ────────────────────────────────────────────────

func TestGreetUsesFallbackWhenGeneratorFails(t *testing.T) {
	llm := &fakeLLM{
		replyFn: func(string, domain.ConversationContext) (string, error) {
			return "", errors.New("model down")
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{SessionID: "s1", UserID: "u1"}

	res := o.Greet(context.Background(), st, "Sam")

	require.Len(t, res.Replies, 1)
	assert.NotEmpty(t, res.Replies[0].Text)
	assert.NotEmpty(t, res.Suggestions)
}

func TestGreetingPromptReflectsMemory(t *testing.T) {
	var captured string
	llm := &fakeLLM{
		replyFn: func(instruction string, _ domain.ConversationContext) (string, error) {
			captured = instruction
			return "welcome back!", nil
		},
	}
	o := newTestOrchestrator(llm, &fakeDirectory{}, nil)
	st := &SessionState{
		SessionID: "s1", UserID: "u1",
		Memory: domain.Memory{Cuisine: "sushi", LastOrder: "salmon rolls"},
	}

	o.Greet(context.Background(), st, "Sam")

	assert.True(t, strings.Contains(captured, "sushi"))
	assert.True(t, strings.Contains(captured, "salmon rolls"))
}
