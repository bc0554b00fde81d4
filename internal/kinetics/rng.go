package kinetics

import "math/rand"

// RandomSource supplies independent uniform draws in [0, 1). The step loop
// calls it in a fixed order (two draws per step), so any deterministic
// source reproduces the full trajectory.
type RandomSource interface {
	Float64() float64
}

// NewSeededSource returns a deterministic source for the given seed.
// Two runs with the same seed and initial state produce identical
// event histories.
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}
