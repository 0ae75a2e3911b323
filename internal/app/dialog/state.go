package dialog

import (
	"sync/atomic"
	"time"

	"github.com/calio/food-agent/internal/domain"
)

// State names the position of a conversation in the ordering flow. The
// state is fully determined by the session flags; Current derives it so
// illegal combinations are unrepresentable.
type State int

const (
	StateGreeting State = iota
	StateAffirmRememberedCuisine
	StateExtractSlots
	StateAskService
	StateSurpriseConfirm
	StateFetchCandidates
	StateAwaitChoice
	StateSelected
	StateGeneric
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateAffirmRememberedCuisine:
		return "affirm_remembered_cuisine"
	case StateExtractSlots:
		return "extract_slots"
	case StateAskService:
		return "ask_service"
	case StateSurpriseConfirm:
		return "surprise_confirm"
	case StateFetchCandidates:
		return "fetch_candidates"
	case StateAwaitChoice:
		return "await_choice"
	case StateSelected:
		return "selected"
	default:
		return "generic"
	}
}

// SessionState is the live, per-session dialogue state: the in-process
// view of the user's Memory plus the ephemeral flags for the current
// cuisine cycle. It is owned exclusively by the orchestrator; there are
// no concurrent writers beyond the single-flight gate.
type SessionState struct {
	SessionID domain.SessionID
	UserID    domain.UserID

	// Memory is the authoritative in-process copy for the session's
	// lifetime; persistence writes are fire-and-forget.
	Memory domain.Memory

	AskedService     bool
	SuggestionsShown bool
	PendingSurprise  string // roulette pick awaiting confirmation
	Selected         string // chosen restaurant name

	all     []domain.Candidate // full fetched list for this cycle
	cursor  PageCursor
	current []domain.Candidate // the page on screen

	LastActivity time.Time

	busy atomic.Bool
}

// Current derives the named state the next turn will be handled in.
// historyLen counts transcript messages before the incoming user turn.
func (st *SessionState) Current(historyLen int) State {
	switch {
	case st.PendingSurprise != "":
		return StateSurpriseConfirm
	case st.Selected != "":
		return StateSelected
	case historyLen == 1 && st.Memory.Cuisine != "":
		return StateAffirmRememberedCuisine
	case st.SuggestionsShown:
		return StateAwaitChoice
	default:
		return StateExtractSlots
	}
}

// TryAcquire flips the busy flag for a turn. Returns false when a turn
// is already in flight; the caller must drop the new one, not queue it.
func (st *SessionState) TryAcquire() bool {
	return st.busy.CompareAndSwap(false, true)
}

// Release clears the busy flag. Always runs on the turn's exit path.
func (st *SessionState) Release() {
	st.busy.Store(false)
}

// CurrentPage returns the candidate cards currently on screen.
func (st *SessionState) CurrentPage() []domain.Candidate {
	return st.current
}

// setCandidates replaces the fetched list and shows its first page.
func (st *SessionState) setCandidates(all []domain.Candidate, pageSize int) {
	st.all = all
	st.cursor.Reset()
	st.current = st.cursor.Slice(all, pageSize)
	st.SuggestionsShown = true
}

// clearCandidates drops all candidate state for the cycle.
func (st *SessionState) clearCandidates() {
	st.all = nil
	st.current = nil
	st.cursor.Reset()
	st.SuggestionsShown = false
}

// resetCycle invalidates every downstream flag when the cuisine
// changes, so the list shown always matches the confirmed cuisine.
func (st *SessionState) resetCycle() {
	st.AskedService = false
	st.Selected = ""
	st.clearCandidates()
}
