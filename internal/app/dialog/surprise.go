package dialog

import "math/rand"

// surprisePool is the fixed set of cuisines the roulette draws from.
var surprisePool = []string{
	"Sichuan hot pot",
	"Ethiopian",
	"Korean fried chicken",
	"Neapolitan pizza",
	"Vietnamese pho",
	"Greek souvlaki",
	"Lebanese mezze",
	"Japanese ramen",
	"Mexican street tacos",
	"Indian thali",
}

// Picker draws a random cuisine for the "surprise me" flow. A pick is
// held as pending until the user confirms it; Memory never sees an
// unconfirmed guess.
type Picker struct {
	pool []string
	rand *rand.Rand
}

// NewPicker builds a picker over the default pool. src may be nil for
// the global source; tests inject a seeded one.
func NewPicker(src rand.Source) *Picker {
	p := &Picker{pool: surprisePool}
	if src != nil {
		p.rand = rand.New(src)
	}
	return p
}

// Pick returns a uniformly random cuisine, excluding the just-rejected
// label on a re-roll.
func (p *Picker) Pick(exclude string) string {
	candidates := make([]string, 0, len(p.pool))
	for _, c := range p.pool {
		if c != exclude {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[p.intn(len(candidates))]
}

func (p *Picker) intn(n int) int {
	if p.rand != nil {
		return p.rand.Intn(n)
	}
	return rand.Intn(n)
}
