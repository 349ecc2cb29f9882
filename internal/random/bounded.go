// Package random provides the injected random source used for pool sizing
// and payload generation.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Bounded draws integers in [1, bound]. It is constructed once per run and
// passed to every component that needs randomness. Safe for concurrent use.
type Bounded struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Bounded seeded from seed. The same seed always yields the
// same sequence.
func New(seed uint64) *Bounded {
	return &Bounded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewFromTime returns a Bounded seeded from the wall clock.
func NewFromTime() *Bounded {
	return New(uint64(time.Now().UnixNano()))
}

// Next returns a value in [1, bound]. A bound below 1 is treated as 1.
func (b *Bounded) Next(bound int) int {
	if bound < 1 {
		return 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.r.IntN(bound) + 1
}
