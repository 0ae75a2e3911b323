package dialog

import "github.com/calio/food-agent/internal/domain"

// DefaultPageSize is how many candidate cards one page shows.
const DefaultPageSize = 3

// PageCursor tracks a zero-based page index into the last fetched
// candidate list. It is owned by the session and reset whenever the
// candidate list is replaced.
type PageCursor struct {
	page int
}

// Advance moves the cursor to the next page.
func (c *PageCursor) Advance() {
	c.page++
}

// Reset zeroes the cursor. Calling it twice is a no-op the second time.
func (c *PageCursor) Reset() {
	c.page = 0
}

// Page returns the current zero-based page index.
func (c *PageCursor) Page() int {
	return c.page
}

// Slice returns the candidates on the current page. The final page may
// be shorter than pageSize; an empty slice signals exhaustion.
func (c *PageCursor) Slice(all []domain.Candidate, pageSize int) []domain.Candidate {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	start := c.page * pageSize
	if start >= len(all) {
		return nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
