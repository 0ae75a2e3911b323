package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calio/food-agent/internal/app/tools"
	"github.com/calio/food-agent/internal/domain"
	"github.com/calio/food-agent/internal/observability"
)

const nearbyLimit = 30

// Orchestrator is the turn handler: given an incoming utterance and the
// live session state, it decides which collaborator to call, mutates
// the state, and emits the next assistant message plus any UI payload.
// Every turn appends exactly one assistant message; downstream failures
// degrade to the generic fallback rather than surfacing as errors.
type Orchestrator struct {
	llm       domain.LLMClient
	directory domain.RestaurantDirectory
	picker    *Picker
	orderTool tools.Tool
	pageSize  int
	now       func() time.Time
}

// NewOrchestrator wires the orchestrator's collaborators. orderTool may
// be nil when order history is disabled.
func NewOrchestrator(llm domain.LLMClient, directory domain.RestaurantDirectory, picker *Picker, orderTool tools.Tool) *Orchestrator {
	if picker == nil {
		picker = NewPicker(nil)
	}
	return &Orchestrator{
		llm:       llm,
		directory: directory,
		picker:    picker,
		orderTool: orderTool,
		pageSize:  DefaultPageSize,
		now:       time.Now,
	}
}

// TurnInput is one user turn.
type TurnInput struct {
	Utterance string
	Location  *domain.Location
}

// TurnResult is everything a turn produced: the assistant messages to
// append, the candidate page to render, quick-suggestion pills, and the
// memory update to persist fire-and-forget.
type TurnResult struct {
	Replies     []*domain.Message
	Cards       []domain.Candidate
	Suggestions []string
	Update      domain.MemoryUpdate
}

// Greet produces the opening assistant message for a fresh session,
// personalized from whatever Memory was loaded.
func (o *Orchestrator) Greet(ctx context.Context, st *SessionState, userName string) TurnResult {
	prompt := BuildGreetingPrompt(o.now(), st.Memory, userName)
	text := o.generate(ctx, prompt, nil, st, "Hey! What are you in the mood to eat today?")

	return TurnResult{
		Replies:     []*domain.Message{o.assistantMessage(st, text, nil)},
		Suggestions: GreetingSuggestions(st.Memory),
	}
}

// HandleTurn runs one dialogue turn. history is the transcript before
// this user turn; the utterance has already been validated non-empty.
func (o *Orchestrator) HandleTurn(ctx context.Context, st *SessionState, in TurnInput, history []*domain.Message) TurnResult {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", st.SessionID,
		"user_id", st.UserID,
	)

	utterance := strings.TrimSpace(in.Utterance)

	// Side flows trigger on the utterance itself, before any state logic.
	if st.PendingSurprise == "" && st.Selected == "" {
		if isSurpriseTrigger(utterance) {
			return o.startSurprise(ctx, st, "")
		}
		if isNearbyTrigger(utterance) {
			return o.ShowNearby(ctx, st, in.Location)
		}
	}

	state := st.Current(len(history))
	log.Info("handling turn", "state", state.String())

	switch state {
	case StateSurpriseConfirm:
		return o.handleSurpriseConfirm(ctx, st, utterance, history)
	case StateSelected:
		return o.handleSelected(ctx, st, utterance, history)
	case StateAffirmRememberedCuisine:
		return o.handleAffirmRemembered(ctx, st, utterance, history)
	case StateAwaitChoice:
		return o.handleAwaitChoice(ctx, st, utterance, history)
	default:
		return o.handleExtract(ctx, st, in, utterance, history)
	}
}

// ShowNearby is the distance-ranked browsing branch: no slot
// extraction, no service-type question, straight to a candidate page.
func (o *Orchestrator) ShowNearby(ctx context.Context, st *SessionState, loc *domain.Location) TurnResult {
	if loc == nil {
		return TurnResult{Replies: []*domain.Message{o.assistantMessage(st, locationDeniedReply, nil)}}
	}

	list, err := o.directory.SearchNearby(ctx, *loc, nearbyLimit)
	if err != nil || len(list) == 0 {
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("nearby search failed, using placeholders", "error", err)
		}
		list = placeholderCandidates()
	}

	st.Selected = ""
	st.setCandidates(list, o.pageSize)

	text := "Here's what's closest to you right now:\n" +
		formatCandidates(st.current, st.Memory.ServiceType) +
		"\nWhich one catches your eye?"
	return TurnResult{
		Replies: []*domain.Message{o.assistantMessage(st, text, nil)},
		Cards:   st.current,
	}
}

// ── state handlers ──────────────────────────────────────────

// handleAffirmRemembered runs when the greeting offered the remembered
// cuisine and this is the user's first reply.
func (o *Orchestrator) handleAffirmRemembered(ctx context.Context, st *SessionState, utterance string, history []*domain.Message) TurnResult {
	intent := o.classifyAffirmation(ctx, lastAssistantText(history), utterance)
	if intent == "affirm" {
		cuisine := st.Memory.Cuisine
		res := o.askService(ctx, st, cuisine, utterance, history)
		res.Update.Cuisine = domain.Set(cuisine)
		return res
	}

	// Deny clears the remembered cuisine and falls back to free-form
	// cuisine talk; ASK_SERVICE is not entered.
	st.Memory.Cuisine = ""
	res := o.genericReply(ctx, st, utterance, history, orderDetailsPrompt)
	res.Update.Cuisine = domain.Set("")
	return res
}

// handleSurpriseConfirm resolves a pending roulette pick.
func (o *Orchestrator) handleSurpriseConfirm(ctx context.Context, st *SessionState, utterance string, history []*domain.Message) TurnResult {
	intent := o.classifyAffirmation(ctx, lastAssistantText(history), utterance)
	if intent == "affirm" {
		cuisine := st.PendingSurprise
		st.PendingSurprise = ""
		st.resetCycle()
		st.Memory.Cuisine = cuisine
		res := o.askService(ctx, st, cuisine, utterance, history)
		res.Update.Cuisine = domain.Set(cuisine)
		return res
	}

	// Re-roll, excluding the pick they just turned down.
	return o.startSurprise(ctx, st, st.PendingSurprise)
}

func (o *Orchestrator) startSurprise(ctx context.Context, st *SessionState, exclude string) TurnResult {
	pick := o.picker.Pick(exclude)
	st.PendingSurprise = pick

	prompt := strings.ReplaceAll(surpriseConfirmPrompt, "{cuisine}", pick)
	text := o.generate(ctx, prompt, nil, st,
		fmt.Sprintf("Spinning the wheel... %s! Are you in? 🎲", pick))
	msg := o.assistantMessage(st, text, []domain.Button{
		{Label: "Let's do it", Value: "yes", Style: "secondary"},
		{Label: "Spin again", Value: "no", Style: "secondary"},
	})
	return TurnResult{Replies: []*domain.Message{msg}}
}

// handleSelected runs after a restaurant was chosen. The flow only
// reopens on an explicit change of mind; slot extraction stays off.
func (o *Orchestrator) handleSelected(ctx context.Context, st *SessionState, utterance string, history []*domain.Message) TurnResult {
	if o.classifyChangeOfMind(ctx, utterance) {
		st.Selected = ""
		st.resetCycle()
		res := o.genericReply(ctx, st, utterance, history, orderDetailsPrompt)
		res.Update.SelectedRestaurant = domain.Set("")
		return res
	}
	return o.genericReply(ctx, st, utterance, history, "")
}

// handleAwaitChoice resolves a reply to a shown candidate page.
func (o *Orchestrator) handleAwaitChoice(ctx context.Context, st *SessionState, utterance string, history []*domain.Message) TurnResult {
	decision := o.classifyRestaurantReply(ctx, lastAssistantText(history), utterance)

	switch decision.Action {
	case "change":
		st.clearCandidates()
		return o.genericReply(ctx, st, utterance, history, orderDetailsPrompt)

	case "more":
		st.cursor.Advance()
		next := st.cursor.Slice(st.all, o.pageSize)
		if len(next) == 0 {
			// Exhausted. The list is spent, so steer back toward
			// picking a cuisine rather than erroring.
			return o.genericReply(ctx, st, utterance, history, orderDetailsPrompt)
		}
		st.current = next
		text := "A few more spots for you:\n" +
			formatCandidates(next, st.Memory.ServiceType) +
			"\nAny of these?"
		return TurnResult{
			Replies: []*domain.Message{o.assistantMessage(st, text, nil)},
			Cards:   next,
		}

	case "pick":
		if idx := resolveSelection(decision.Selection, st.current); idx >= 0 {
			return o.selectCandidate(ctx, st, idx)
		}
		// A bare name typed without the classifier resolving it.
		for i, c := range st.current {
			if strings.EqualFold(c.Name, utterance) {
				return o.selectCandidate(ctx, st, i)
			}
		}
		return o.genericReply(ctx, st, utterance, history, "")

	default:
		return o.genericReply(ctx, st, utterance, history, "")
	}
}

// handleExtract is the default path: slot extraction, memory merge,
// then whichever question or fetch the merged state calls for.
func (o *Orchestrator) handleExtract(ctx context.Context, st *SessionState, in TurnInput, utterance string, history []*domain.Message) TurnResult {
	slim := st.Memory.Cuisine != "" && st.AskedService
	sl := o.extractSlots(ctx, utterance, slim)

	cuisineChanged := sl.Cuisine != "" && !strings.EqualFold(sl.Cuisine, st.Memory.Cuisine)
	if cuisineChanged {
		// Everything downstream of the previous cuisine is stale.
		st.resetCycle()
	}

	update := domain.MemoryUpdate{LastOrder: domain.Set(utterance)}
	if sl.Cuisine != "" {
		update.Cuisine = domain.Set(sl.Cuisine)
	}
	if sl.Mood != "" {
		update.Mood = domain.Set(sl.Mood)
	}
	if sl.Occasion != "" {
		update.Occasion = domain.Set(sl.Occasion)
	}
	if svc := domain.ParseServiceType(sl.ServiceType); svc != "" {
		update.ServiceType = domain.Set(svc)
	}
	st.Memory.Apply(update)

	switch {
	case st.Memory.Cuisine != "" && st.Memory.ServiceType == "" && !st.AskedService:
		res := o.askService(ctx, st, st.Memory.Cuisine, utterance, history)
		res.Update = update
		return res

	case st.Memory.Cuisine != "" && st.Memory.ServiceType != "" && !st.SuggestionsShown:
		res := o.fetchCandidates(ctx, st, in.Location)
		res.Update = update
		return res

	default:
		res := o.genericReply(ctx, st, utterance, history, "")
		res.Update = update
		return res
	}
}

// ── shared actions ──────────────────────────────────────────

// askService emits the service-type question with its three buttons.
func (o *Orchestrator) askService(ctx context.Context, st *SessionState, cuisine, utterance string, history []*domain.Message) TurnResult {
	st.AskedService = true

	prompt := strings.ReplaceAll(serviceTypePrompt, "{cuisine}", cuisine)
	text := o.generate(ctx, prompt, historyWith(history, st, utterance), st,
		fmt.Sprintf("%s, nice! Delivery, pickup, or dine-in? 🍽️", cuisine))
	return TurnResult{
		Replies: []*domain.Message{o.assistantMessage(st, text, ServiceButtons())},
	}
}

// fetchCandidates asks the directory for venues matching the confirmed
// cuisine and shows the first page. An empty or failed lookup degrades
// to the placeholder list so the user is never shown nothing.
func (o *Orchestrator) fetchCandidates(ctx context.Context, st *SessionState, loc *domain.Location) TurnResult {
	if loc == nil {
		return TurnResult{Replies: []*domain.Message{o.assistantMessage(st, locationDeniedReply, nil)}}
	}

	list, err := o.directory.SearchByCuisine(ctx, *loc, st.Memory.Cuisine)
	if err != nil || len(list) == 0 {
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("restaurant lookup failed, using placeholders", "error", err)
		}
		list = placeholderCandidates()
	}

	st.setCandidates(list, o.pageSize)

	text := fmt.Sprintf("Great - here are a few nearby %s spots for %s:\n", st.Memory.Cuisine, serviceLabel(st.Memory.ServiceType)) +
		formatCandidates(st.current, st.Memory.ServiceType) +
		"\nWhich one catches your eye?"
	return TurnResult{
		Replies: []*domain.Message{o.assistantMessage(st, text, nil)},
		Cards:   st.current,
	}
}

// selectCandidate commits a pick from the currently displayed page and
// hands off to the vendor apps.
func (o *Orchestrator) selectCandidate(ctx context.Context, st *SessionState, idx int) TurnResult {
	picked := st.current[idx]
	st.Selected = picked.Name

	if o.orderTool != nil {
		// Best-effort history write; never blocks the turn.
		tctx := tools.ToolContext{
			UserID:    string(st.UserID),
			SessionID: string(st.SessionID),
		}
		_, _ = o.orderTool.Call(ctx, tctx, map[string]any{
			"restaurant":   picked.Name,
			"cuisine":      st.Memory.Cuisine,
			"service_type": string(st.Memory.ServiceType),
		})
	}

	msg := o.assistantMessage(st,
		fmt.Sprintf("Great choice - **%s** it is! 😊", picked.Name),
		VendorButtons())
	return TurnResult{
		Replies: []*domain.Message{msg},
		Update:  domain.MemoryUpdate{SelectedRestaurant: domain.Set(picked.Name)},
	}
}

// genericReply forwards the conversation to the response generator.
// instruction "" means no override: the pure conversational fallback.
func (o *Orchestrator) genericReply(ctx context.Context, st *SessionState, utterance string, history []*domain.Message, instruction string) TurnResult {
	text := o.generate(ctx, instruction, historyWith(history, st, utterance), st, fallbackReply)
	return TurnResult{Replies: []*domain.Message{o.assistantMessage(st, text, nil)}}
}

// generate wraps the LLM call with the degraded-mode fallback text.
func (o *Orchestrator) generate(ctx context.Context, instruction string, history []*domain.Message, st *SessionState, fallback string) string {
	convCtx := domain.ConversationContext{
		SessionID: st.SessionID,
		UserID:    st.UserID,
		History:   history,
	}
	text, err := o.llm.GenerateReply(ctx, instruction, convCtx)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			observability.LoggerFromContext(ctx).Warn("response generation failed", "error", err)
		}
		return fallback
	}
	return text
}

// ── helpers ─────────────────────────────────────────────────

func (o *Orchestrator) assistantMessage(st *SessionState, text string, buttons []domain.Button) *domain.Message {
	return &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: st.SessionID,
		Role:      domain.RoleAssistant,
		Text:      text,
		Buttons:   buttons,
		CreatedAt: o.now(),
	}
}

// historyWith appends the current user turn to the prompt history
// without touching the stored transcript.
func historyWith(history []*domain.Message, st *SessionState, utterance string) []*domain.Message {
	out := make([]*domain.Message, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, &domain.Message{
		SessionID: st.SessionID,
		Role:      domain.RoleUser,
		Text:      utterance,
	})
	return out
}

func lastAssistantText(history []*domain.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleAssistant {
			return history[i].Text
		}
	}
	return ""
}

func isSurpriseTrigger(utterance string) bool {
	return strings.Contains(strings.ToLower(utterance), "surprise")
}

func isNearbyTrigger(utterance string) bool {
	lc := strings.ToLower(utterance)
	return strings.Contains(lc, "what's nearby") || strings.Contains(lc, "whats nearby") ||
		strings.Contains(lc, "show me nearby") || strings.Contains(lc, "closest restaurants")
}

func serviceLabel(svc domain.ServiceType) string {
	if svc == "" {
		return "you"
	}
	return string(svc)
}

// formatCandidates renders one page as the numbered list the
// restaurant-suggestions message shows.
func formatCandidates(page []domain.Candidate, svc domain.ServiceType) string {
	var b strings.Builder
	for i, c := range page {
		var details []string
		if c.Rating != nil {
			details = append(details, fmt.Sprintf("%.1f★", *c.Rating))
		}
		switch svc {
		case domain.ServiceDelivery:
			details = append(details, fmt.Sprintf("%d min delivery", c.ETA))
		case domain.ServicePickup:
			details = append(details, fmt.Sprintf("%d min pickup", c.ETA))
		default:
			details = append(details, fmt.Sprintf("%d min away", c.ETA))
		}
		b.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, c.Name, strings.Join(details, ", ")))
	}
	return b.String()
}
