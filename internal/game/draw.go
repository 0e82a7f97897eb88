package game

import (
	"math/rand/v2"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
)

// DefaultItemsPerSession is how many items a play-through draws.
const DefaultItemsPerSession = 10

// Rand is the random source used for shuffling.
type Rand interface {
	IntN(n int) int
}

type randFunc func(int) int

func (f randFunc) IntN(n int) int { return f(n) }

// GlobalRand draws from the process-wide math/rand/v2 source, which is safe for concurrent use.
var GlobalRand Rand = randFunc(rand.IntN)

// Draw returns a uniformly shuffled copy of pool truncated to n items.
func Draw(pool []catalog.FinancialItem, n int, rng Rand) []catalog.FinancialItem {
	if rng == nil {
		rng = GlobalRand
	}
	shuffled := make([]catalog.FinancialItem, len(pool))
	copy(shuffled, pool)

	// Fisher-Yates
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	if n >= 0 && n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}
