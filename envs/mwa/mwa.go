// Package mwa implements "multi-product web advertising": a visitor
// browses a site showing ads for one of NumObjectives products (or a
// generic ad); on each step they either keep browsing, buy the product
// just advertised, or leave. Buying product i earns reward 5 on
// objective i only, so a fair policy must spread advertising across
// products rather than always pushing whichever one a naive scalar
// objective favors.
package mwa

import (
	"math"
	"math/rand/v2"

	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/history"
)

const discount = 0.95

// State is a single discrete index: 0..NumVisit-1 are "browsing, last
// shown product i", NumVisit..NumVisit+NumBuy-1 are "just bought product
// i", and the final index is "left the site".
type State struct {
	Index int
}

// Env is the multi-product web-advertising POMDP.
type Env struct {
	numObjectives int
	numStates     int
	numActions    int
	numVisit      int // == numBuy == numObjectives

	// transFunc[s][a][s'] is the probability of moving from s to s' under a.
	transFunc [][][]float64
	// obsFunc[s][o] is the probability of observing o while in state s.
	obsFunc [][]float64
	// rewFunc[s][a][s'] is the reward vector earned transitioning s->s'.
	rewFunc [][][][]float64
}

var _ env.Environment = (*Env)(nil)

// New returns an MWA environment with the given number of products
// (objectives). There are 2*numObjectives+1 states (visit_i, buy_i for
// each product, plus one leave state) and numObjectives+1 actions (show
// ad for product i, or show a generic ad).
func New(numObjectives int) *Env {
	e := &Env{numObjectives: numObjectives}
	e.numVisit = numObjectives
	e.numStates = 2*numObjectives + 1
	e.numActions = numObjectives + 1
	e.generateTransFunc()
	e.generateObsFunc()
	e.generateRewFunc()
	return e
}

func (e *Env) leaveState() int { return e.numStates - 1 }

func (e *Env) generateTransFunc() {
	n := e.numStates
	a := e.numActions
	e.transFunc = make([][][]float64, n)
	for s := range e.transFunc {
		e.transFunc[s] = make([][]float64, a)
		for act := range e.transFunc[s] {
			e.transFunc[s][act] = make([]float64, n)
		}
	}

	leave := e.leaveState()
	for s := 0; s < e.numVisit; s++ {
		for act := 0; act < e.numActions; act++ {
			switch {
			case act == s:
				e.transFunc[s][act][s] = 0.8
				e.transFunc[s][act][s+e.numVisit] = 0.05
				e.transFunc[s][act][leave] = 0.15
			case act == e.numActions-1:
				e.transFunc[s][act][s] = 2.0 / 3.0
				e.transFunc[s][act][leave] = 1.0 / 3.0
			default:
				e.transFunc[s][act][s] = 0.5
				e.transFunc[s][act][leave] = 0.5
			}
		}
	}
	for s := e.numVisit; s < e.numStates-1; s++ {
		for act := 0; act < e.numActions; act++ {
			for next := 0; next < e.numVisit; next++ {
				e.transFunc[s][act][next] = 1.0 / float64(e.numVisit)
			}
		}
	}
	for act := 0; act < e.numActions; act++ {
		for next := 0; next < e.numVisit; next++ {
			e.transFunc[leave][act][next] = 1.0 / float64(e.numVisit)
		}
	}
}

func (e *Env) generateObsFunc() {
	e.obsFunc = make([][]float64, e.numStates)
	for s := range e.obsFunc {
		e.obsFunc[s] = make([]float64, e.numStates)
	}
	for s := 0; s < e.numVisit; s++ {
		sum := 0.0
		for obs := 0; obs < e.numVisit; obs++ {
			v := math.Exp(-math.Abs(float64(s - obs)))
			e.obsFunc[s][obs] = v
			sum += v
		}
		for obs := 0; obs < e.numVisit; obs++ {
			e.obsFunc[s][obs] /= sum
		}
	}
	for s := e.numVisit; s < e.numStates-1; s++ {
		e.obsFunc[s][s] = 1.0
	}
	e.obsFunc[e.leaveState()][e.leaveState()] = 1.0
}

func (e *Env) generateRewFunc() {
	n, a := e.numStates, e.numActions
	e.rewFunc = make([][][][]float64, n)
	for s := range e.rewFunc {
		e.rewFunc[s] = make([][][]float64, a)
		for act := range e.rewFunc[s] {
			e.rewFunc[s][act] = make([][]float64, n)
			for next := range e.rewFunc[s][act] {
				e.rewFunc[s][act][next] = make([]float64, e.numObjectives)
			}
		}
	}
	for r := 0; r < e.numObjectives; r++ {
		for s := 0; s < e.numVisit; s++ {
			for act := 0; act < e.numActions-1; act++ {
				if e.transFunc[s][act][r+e.numVisit] > 0 {
					e.rewFunc[s][act][r+e.numVisit][r] = 5.0
				}
			}
		}
	}
}

func (e *Env) NumActions() int      { return e.numActions }
func (e *Env) NumObservations() int { return e.numStates }
func (e *Env) NumObjectives() int   { return e.numObjectives }
func (e *Env) Discount() float64    { return discount }
func (e *Env) RewardRange() float64 { return 5 }

func (e *Env) CreateStartState(rng *rand.Rand) env.State {
	return &State{Index: rng.IntN(e.numStates)}
}

func (e *Env) Copy(s env.State) env.State {
	orig := s.(*State)
	return &State{Index: orig.Index}
}

func (e *Env) FreeState(env.State) {}

func sampleCategorical(rng *rand.Rand, probs []float64) int {
	r := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}

func (e *Env) Step(rng *rand.Rand, s env.State, a int) (int, []float64, bool) {
	st := s.(*State)
	from := st.Index
	next := sampleCategorical(rng, e.transFunc[from][a])
	reward := append([]float64(nil), e.rewFunc[from][a][next]...)
	st.Index = next
	obs := sampleCategorical(rng, e.obsFunc[next])
	return obs, reward, false
}

func (e *Env) GenerateLegal(s env.State, h *history.History) []int {
	legal := make([]int, e.numActions)
	for a := range legal {
		legal[a] = a
	}
	return legal
}

func (e *Env) LocalMove(rng *rand.Rand, s env.State, h *history.History, lastStep history.Step) bool {
	st := s.(*State)
	st.Index = rng.IntN(e.numStates)
	newObs := sampleCategorical(rng, e.obsFunc[st.Index])
	return newObs == lastStep.Observation
}

func (e *Env) SelectRandom(rng *rand.Rand, s env.State, h *history.History, status *env.Status) int {
	return rng.IntN(e.numActions)
}

func (e *Env) GetHorizon(accuracy float64, undiscountedHorizon int) int {
	return env.DiscountedHorizon(discount, accuracy, undiscountedHorizon)
}
