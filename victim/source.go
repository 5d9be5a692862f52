package victim

import "math/rand"

// A Source provides the randomness the victim consumes when it picks its
// base address and secret. It is a capability handed to the builder so that
// tests can inject fully deterministic sequences.
type Source interface {
	Uint64() uint64
}

type randSource struct {
	r *rand.Rand
}

// NewRandSource returns a Source backed by a seeded PRNG.
func NewRandSource(seed int64) Source {
	return &randSource{r: rand.New(rand.NewSource(seed))}
}

func (s *randSource) Uint64() uint64 {
	return s.r.Uint64()
}
