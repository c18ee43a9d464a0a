// Package tworandom implements a small synthetic two-state, two-action,
// two-observation, two-objective POMDP used to exercise the planner
// without the bookkeeping of a larger domain. Transition, observation and
// reward tables are fixed constants taken from the reference RANDOMENV
// generator.
package tworandom

import (
	"math/rand/v2"

	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/history"
)

const (
	numStates      = 2
	numActions     = 2
	numObs         = 2
	numObjectives  = 2
	discount       = 0.95
)

// transFunc[s][a][s'] is the probability of moving to s' from s under a.
var transFunc = [numStates][numActions][numStates]float64{
	{{0.9, 0.1}, {0.4, 0.6}},
	{{0.35, 0.65}, {0.8, 0.2}},
}

// obsFunc[s][a][o] is the probability of observing o after acting a and
// landing in s (the reference indexes by the post-transition state).
var obsFunc = [numStates][numActions][numObs]float64{
	{{0.8, 0.2}, {0.4, 0.6}},
	{{0.3, 0.7}, {0.5, 0.5}},
}

// rewFunc[s][a] is the reward vector earned for acting a in pre-transition
// state s.
var rewFunc = [numStates][numActions][numObjectives]float64{
	{{3, 7}, {4, 4}},
	{{5, 5}, {8, 2}},
}

// State is a single discrete index in {0, 1}.
type State struct {
	Index int
}

// Env is the two-state random POMDP.
type Env struct{}

// New returns a ready-to-use Env.
func New() *Env { return &Env{} }

var _ env.Environment = (*Env)(nil)

func (e *Env) NumActions() int      { return numActions }
func (e *Env) NumObservations() int { return numObs }
func (e *Env) NumObjectives() int   { return numObjectives }
func (e *Env) Discount() float64    { return discount }
func (e *Env) RewardRange() float64 { return 8 }

func (e *Env) CreateStartState(rng *rand.Rand) env.State {
	return &State{Index: rng.IntN(numStates)}
}

func (e *Env) Copy(s env.State) env.State {
	orig := s.(*State)
	return &State{Index: orig.Index}
}

func (e *Env) FreeState(env.State) {}

func (e *Env) Step(rng *rand.Rand, s env.State, a int) (int, []float64, bool) {
	st := s.(*State)
	idx := st.Index
	reward := append([]float64(nil), rewFunc[idx][a][:]...)

	if rng.Float64() < transFunc[idx][a][0] {
		st.Index = 0
	} else {
		st.Index = 1
	}
	obs := observation(rng, st.Index, a)
	return obs, reward, false
}

func observation(rng *rand.Rand, stateIndex, action int) int {
	if rng.Float64() < obsFunc[stateIndex][action][0] {
		return 0
	}
	return 1
}

func (e *Env) GenerateLegal(s env.State, h *history.History) []int {
	legal := make([]int, numActions)
	for a := range legal {
		legal[a] = a
	}
	return legal
}

func (e *Env) LocalMove(rng *rand.Rand, s env.State, h *history.History, lastStep history.Step) bool {
	st := s.(*State)
	st.Index = 1 - st.Index
	newObs := observation(rng, st.Index, lastStep.Action)
	return newObs == lastStep.Observation
}

func (e *Env) SelectRandom(rng *rand.Rand, s env.State, h *history.History, status *env.Status) int {
	return rng.IntN(numActions)
}

func (e *Env) GetHorizon(accuracy float64, undiscountedHorizon int) int {
	return env.DiscountedHorizon(discount, accuracy, undiscountedHorizon)
}
