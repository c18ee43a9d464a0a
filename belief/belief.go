// Package belief implements the particle-filter belief representation used
// at each V-node: an unordered multiset of owned environment states sampled
// from the planner's current posterior over the true state.
package belief

import (
	"math/rand/v2"

	"github.com/fairpomcp/planner/env"
)

// Belief is an unordered multiset of owned state samples of bounded size.
// Every sample is a legitimate state produced by the environment, never a
// partial or placeholder value.
type Belief struct {
	samples []env.State
}

// New returns an empty Belief.
func New() *Belief {
	return &Belief{}
}

// AddSample takes ownership of s and appends it to the particle set.
func (b *Belief) AddSample(s env.State) {
	b.samples = append(b.samples, s)
}

// GetSample borrows (read-only) the sample at index i.
func (b *Belief) GetSample(i int) env.State {
	return b.samples[i]
}

// CreateSample returns a fresh owned copy of a uniformly-random particle.
// Panics if the belief is empty.
func (b *Belief) CreateSample(rng *rand.Rand, e env.Environment) env.State {
	if len(b.samples) == 0 {
		panic("belief.CreateSample: empty belief")
	}
	i := rng.IntN(len(b.samples))
	return e.Copy(b.samples[i])
}

// NumSamples returns the number of particles currently held.
func (b *Belief) NumSamples() int {
	return len(b.samples)
}

// Empty reports whether the belief holds no particles.
func (b *Belief) Empty() bool {
	return len(b.samples) == 0
}

// CopyFrom replaces b's contents with deep copies of other's particles,
// via e.Copy, first freeing whatever b already held.
func (b *Belief) CopyFrom(other *Belief, e env.Environment) {
	b.FreeAll(e)
	b.samples = make([]env.State, len(other.samples))
	for i, s := range other.samples {
		b.samples[i] = e.Copy(s)
	}
}

// FreeAll releases every owned sample via e.FreeState and empties the
// belief.
func (b *Belief) FreeAll(e env.Environment) {
	for _, s := range b.samples {
		e.FreeState(s)
	}
	b.samples = nil
}
