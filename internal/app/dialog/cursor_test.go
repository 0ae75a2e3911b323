package dialog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calio/food-agent/internal/domain"
)

func candidates(n int) []domain.Candidate {
	out := make([]domain.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Candidate{Name: fmt.Sprintf("Venue %d", i+1), ETA: 20})
	}
	return out
}

func TestCursorPagesOfThree(t *testing.T) {
	all := candidates(7)
	var c PageCursor

	page := c.Slice(all, 3)
	require.Len(t, page, 3)
	assert.Equal(t, "Venue 1", page[0].Name)

	c.Advance()
	page = c.Slice(all, 3)
	require.Len(t, page, 3)
	assert.Equal(t, "Venue 4", page[0].Name)

	// Final page is short, not padded.
	c.Advance()
	page = c.Slice(all, 3)
	require.Len(t, page, 1)
	assert.Equal(t, "Venue 7", page[0].Name)

	// Past the end: exhausted.
	c.Advance()
	assert.Empty(t, c.Slice(all, 3))
}

func TestCursorResetIsIdempotent(t *testing.T) {
	var c PageCursor
	c.Advance()
	c.Advance()

	c.Reset()
	assert.Equal(t, 0, c.Page())

	c.Reset()
	assert.Equal(t, 0, c.Page())
}

func TestCursorSliceDefaultsPageSize(t *testing.T) {
	all := candidates(5)
	var c PageCursor

	assert.Len(t, c.Slice(all, 0), DefaultPageSize)
}
