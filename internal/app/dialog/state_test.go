package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calio/food-agent/internal/domain"
)

func TestCurrentStateDerivation(t *testing.T) {
	tests := []struct {
		name       string
		state      SessionState
		historyLen int
		want       State
	}{
		{
			name:       "fresh session, no memory",
			state:      SessionState{},
			historyLen: 1,
			want:       StateExtractSlots,
		},
		{
			name:       "first reply with remembered cuisine",
			state:      SessionState{Memory: domain.Memory{Cuisine: "sushi"}},
			historyLen: 1,
			want:       StateAffirmRememberedCuisine,
		},
		{
			name:       "remembered cuisine but past the first reply",
			state:      SessionState{Memory: domain.Memory{Cuisine: "sushi"}},
			historyLen: 3,
			want:       StateExtractSlots,
		},
		{
			name:       "pending surprise wins over everything",
			state:      SessionState{PendingSurprise: "Ethiopian", Selected: "Spot", SuggestionsShown: true},
			historyLen: 5,
			want:       StateSurpriseConfirm,
		},
		{
			name:       "selection sticks",
			state:      SessionState{Selected: "Pure Punjabi", SuggestionsShown: true},
			historyLen: 7,
			want:       StateSelected,
		},
		{
			name:       "suggestions on screen",
			state:      SessionState{SuggestionsShown: true},
			historyLen: 5,
			want:       StateAwaitChoice,
		},
	}

	for i := range tests {
		tc := &tests[i]
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.Current(tc.historyLen))
		})
	}
}

func TestSingleFlightGate(t *testing.T) {
	var st SessionState

	assert.True(t, st.TryAcquire())
	assert.False(t, st.TryAcquire(), "second acquire must fail while busy")

	st.Release()
	assert.True(t, st.TryAcquire(), "released state accepts the next turn")
}

func TestResetCycleClearsDownstreamFlags(t *testing.T) {
	st := SessionState{
		AskedService:    true,
		Selected:        "Pure Punjabi",
		PendingSurprise: "",
	}
	st.setCandidates(candidates(5), 3)

	st.resetCycle()

	assert.False(t, st.AskedService)
	assert.False(t, st.SuggestionsShown)
	assert.Empty(t, st.Selected)
	assert.Empty(t, st.CurrentPage())
}
