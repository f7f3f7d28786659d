package sim

import (
	"math/rand"
	"time"
)

// Rand is the source of randomness of a simulation. All the draws of a
// simulation come from one Rand, in a fixed call order, so that a seeded
// source reproduces a run exactly.
type Rand interface {
	// Float64 returns a uniform random value in [0, 1).
	Float64() float64

	// Intn returns a uniform random value in [0, n).
	Intn(n int) int
}

// NewRand creates a Rand backed by math/rand with the given seed.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSeededRand creates a Rand seeded with the current time. Runs that
// use it are not reproducible.
func NewTimeSeededRand() Rand {
	return NewRand(time.Now().UnixNano())
}
