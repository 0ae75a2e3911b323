package dialog

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickComesFromPool(t *testing.T) {
	p := NewPicker(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		pick := p.Pick("")
		assert.Contains(t, surprisePool, pick)
	}
}

func TestPickExcludesRejectedCuisine(t *testing.T) {
	p := NewPicker(rand.NewSource(42))
	rejected := surprisePool[0]

	for i := 0; i < 100; i++ {
		assert.NotEqual(t, rejected, p.Pick(rejected))
	}
}
