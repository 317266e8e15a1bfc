package randutil

import (
	rand "math/rand/v2"
	"sync"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed. rand/v2's PCG
// wants two 64-bit words, so the single seed is run through a splitmix64
// finalizer once per word.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Source hands out independent generators from one root seed. Forks are
// serialized, so concurrent callers never receive the same stream.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSource(seed int64) *Source {
	return &Source{rng: New(seed)}
}

// Fork derives a fresh generator from the source.
func (s *Source) Fork() *rand.Rand {
	s.mu.Lock()
	seed := s.rng.Int64()
	s.mu.Unlock()
	return New(seed)
}

// splitmix64 finalizer
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
