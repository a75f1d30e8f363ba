package draw

import (
	"math/rand/v2"
	"sync"
)

// Source supplies uniformly distributed integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// lockedSource serializes access to a seeded generator.
type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource returns a reproducible Source seeded with seed.
func NewSource(seed uint64) Source {
	return &lockedSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}

// shuffle permutes names in place. Each of the n! orderings is equally
// likely provided src is uniform.
func shuffle(src Source, names []string) {
	for i := len(names) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		names[i], names[j] = names[j], names[i]
	}
}
