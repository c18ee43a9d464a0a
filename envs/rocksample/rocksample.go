// Package rocksample implements the classic RockSample POMDP extended to a
// two-objective reward: each rock is one of two types, and sampling a good
// rock of type 0 pays {1, 9} while a good rock of type 1 pays {9, 1} — so
// the two objectives pull toward collecting different rock types, and a
// social-welfare-fair policy must balance between them rather than always
// chasing whichever type happens to dominate a naive sum.
package rocksample

import (
	"math"
	"math/rand/v2"

	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/history"
)

// Move actions, matching the reference COORD compass ordering.
const (
	ActionNorth = iota
	ActionEast
	ActionSouth
	ActionWest
	ActionSample
)

// Observations.
const (
	ObsNone = iota
	ObsType1
	ObsType2
)

const numObservations = 3
const numObjectives = 2

// Coord is an (x, y) grid position.
type Coord struct {
	X, Y int
}

func euclideanDistance(a, b Coord) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// rockEntry tracks one rock's hidden type and the measurement evidence
// accumulated about it.
type rockEntry struct {
	Type                                  int
	Collected                             bool
	Count                                 int
	Measured                              int
	LikelihoodValuable, LikelihoodWorthless float64
	ProbValuable                          float64
}

// State is a RockSample state: the agent's position and the hidden/latent
// status of every rock.
type State struct {
	AgentPos Coord
	Rocks    []rockEntry
}

// Env is a RockSample environment of a given grid size and rock count. Grid
// is size x size; checkAction action; values < ActionSample are moves.
type Env struct {
	size                 int
	numRocks             int
	startPos             Coord
	rockPos              []Coord
	grid                 [][]int // grid[x][y] = rock index, or -1
	halfEfficiencyDist   float64
}

var _ env.Environment = (*Env)(nil)

// New returns a RockSample environment for the given size/rocks pair,
// using a fixed reference layout for the well-known (3,3), (7,8), and
// (11,11) configurations, and a uniformly-random non-overlapping layout
// (seeded by rng) otherwise.
func New(rng *rand.Rand, size, numRocks int) *Env {
	e := &Env{
		size:               size,
		numRocks:           numRocks,
		halfEfficiencyDist: 20,
		grid:               newGrid(size),
	}
	switch {
	case size == 3 && numRocks == 3:
		e.startPos = Coord{0, 1}
		e.setLayout([]Coord{{1, 0}, {1, 2}, {2, 1}})
	case size == 7 && numRocks == 8:
		e.startPos = Coord{0, 3}
		e.setLayout([]Coord{
			{2, 0}, {0, 1}, {3, 1}, {6, 3}, {2, 4}, {3, 4}, {5, 5}, {1, 6},
		})
	case size == 11 && numRocks == 11:
		e.startPos = Coord{0, 5}
		e.setLayout([]Coord{
			{0, 3}, {0, 7}, {1, 8}, {2, 4}, {3, 3}, {3, 8}, {4, 3}, {5, 8},
			{6, 1}, {9, 3}, {9, 9},
		})
	default:
		e.startPos = Coord{0, size / 2}
		e.randomLayout(rng)
	}
	return e
}

func newGrid(size int) [][]int {
	grid := make([][]int, size)
	for x := range grid {
		grid[x] = make([]int, size)
		for y := range grid[x] {
			grid[x][y] = -1
		}
	}
	return grid
}

func (e *Env) setLayout(positions []Coord) {
	e.rockPos = positions
	for i, p := range positions {
		e.grid[p.X][p.Y] = i
	}
}

func (e *Env) randomLayout(rng *rand.Rand) {
	e.rockPos = make([]Coord, 0, e.numRocks)
	for i := 0; i < e.numRocks; i++ {
		var p Coord
		for {
			p = Coord{rng.IntN(e.size), rng.IntN(e.size)}
			if e.grid[p.X][p.Y] < 0 {
				break
			}
		}
		e.grid[p.X][p.Y] = i
		e.rockPos = append(e.rockPos, p)
	}
}

func (e *Env) NumActions() int      { return e.numRocks + 5 }
func (e *Env) NumObservations() int { return numObservations }
func (e *Env) NumObjectives() int   { return numObjectives }
func (e *Env) Discount() float64    { return 1.0 }
func (e *Env) RewardRange() float64 { return 10 }

func (e *Env) CreateStartState(rng *rand.Rand) env.State {
	s := &State{
		AgentPos: e.startPos,
		Rocks:    make([]rockEntry, e.numRocks),
	}
	for i := range s.Rocks {
		s.Rocks[i] = rockEntry{ProbValuable: 0.5, LikelihoodValuable: 1.0, LikelihoodWorthless: 1.0}
	}
	// Half the rocks (by random assignment) are type 1, the rest type 0.
	order := rng.Perm(e.numRocks)
	for i := 0; i < e.numRocks/2; i++ {
		s.Rocks[order[i]].Type = 1
	}
	return s
}

func (e *Env) Copy(s env.State) env.State {
	orig := s.(*State)
	cp := &State{AgentPos: orig.AgentPos, Rocks: make([]rockEntry, len(orig.Rocks))}
	copy(cp.Rocks, orig.Rocks)
	return cp
}

func (e *Env) FreeState(env.State) {}

func (e *Env) Step(rng *rand.Rand, s env.State, a int) (int, []float64, bool) {
	st := s.(*State)
	reward := make([]float64, numObjectives)
	obs := ObsNone

	switch {
	case a < ActionSample:
		switch a {
		case ActionEast:
			if st.AgentPos.X+1 < e.size {
				st.AgentPos.X++
			} else {
				return ObsNone, reward, true
			}
		case ActionNorth:
			if st.AgentPos.Y+1 < e.size {
				st.AgentPos.Y++
			} else {
				reward[0], reward[1] = -100, -100
			}
		case ActionSouth:
			if st.AgentPos.Y-1 >= 0 {
				st.AgentPos.Y--
			} else {
				reward[0], reward[1] = -100, -100
			}
		case ActionWest:
			if st.AgentPos.X-1 >= 0 {
				st.AgentPos.X--
			} else {
				reward[0], reward[1] = -100, -100
			}
		}
	case a == ActionSample:
		rock := e.grid[st.AgentPos.X][st.AgentPos.Y]
		if rock >= 0 && !st.Rocks[rock].Collected {
			st.Rocks[rock].Collected = true
			if st.Rocks[rock].Type == 0 {
				reward[0], reward[1] = 1, 9
			} else {
				reward[0], reward[1] = 9, 1
			}
		} else {
			reward[0], reward[1] = -100, -100
		}
	default: // check
		rock := a - ActionSample - 1
		obs = e.observation(rng, st, rock)
		st.Rocks[rock].Measured++

		distance := euclideanDistance(st.AgentPos, e.rockPos[rock])
		efficiency := (1 + math.Pow(2, -distance/e.halfEfficiencyDist)) * 0.5
		if obs == ObsType1 {
			st.Rocks[rock].Count++
			st.Rocks[rock].LikelihoodValuable *= efficiency
			st.Rocks[rock].LikelihoodWorthless *= 1.0 - efficiency
		} else {
			st.Rocks[rock].Count--
			st.Rocks[rock].LikelihoodWorthless *= efficiency
			st.Rocks[rock].LikelihoodValuable *= 1.0 - efficiency
		}
		denom := 0.5*st.Rocks[rock].LikelihoodValuable + 0.5*st.Rocks[rock].LikelihoodWorthless
		if denom != 0 {
			st.Rocks[rock].ProbValuable = (0.5 * st.Rocks[rock].LikelihoodValuable) / denom
		}
	}
	return obs, reward, false
}

func (e *Env) observation(rng *rand.Rand, st *State, rock int) int {
	distance := euclideanDistance(st.AgentPos, e.rockPos[rock])
	efficiency := (1 + math.Pow(2, -distance/e.halfEfficiencyDist)) * 0.5
	correct := rng.Float64() < efficiency
	if st.Rocks[rock].Type == 1 {
		if correct {
			return ObsType2
		}
		return ObsType1
	}
	if correct {
		return ObsType1
	}
	return ObsType2
}

func (e *Env) GenerateLegal(s env.State, h *history.History) []int {
	st := s.(*State)
	var legal []int
	if st.AgentPos.Y+1 < e.size {
		legal = append(legal, ActionNorth)
	}
	legal = append(legal, ActionEast)
	if st.AgentPos.Y-1 >= 0 {
		legal = append(legal, ActionSouth)
	}
	if st.AgentPos.X-1 >= 0 {
		legal = append(legal, ActionWest)
	}
	if rock := e.grid[st.AgentPos.X][st.AgentPos.Y]; rock >= 0 && !st.Rocks[rock].Collected {
		legal = append(legal, ActionSample)
	}
	for rock := 0; rock < e.numRocks; rock++ {
		if !st.Rocks[rock].Collected {
			legal = append(legal, rock+1+ActionSample)
		}
	}
	return legal
}

func (e *Env) LocalMove(rng *rand.Rand, s env.State, h *history.History, lastStep history.Step) bool {
	st := s.(*State)
	flip := rng.IntN(e.numRocks)
	st.Rocks[flip].Type = 1 - st.Rocks[flip].Type

	if lastStep.Action > ActionSample {
		rock := lastStep.Action - ActionSample - 1
		realObs := lastStep.Observation
		newObs := e.observation(rng, st, rock)
		if newObs != realObs {
			return false
		}
		if realObs == ObsType1 && newObs == ObsType2 {
			st.Rocks[rock].Count += 2
		}
		if realObs == ObsType2 && newObs == ObsType1 {
			st.Rocks[rock].Count -= 2
		}
	}
	return true
}

func (e *Env) SelectRandom(rng *rand.Rand, s env.State, h *history.History, status *env.Status) int {
	legal := e.GenerateLegal(s, h)
	return legal[rng.IntN(len(legal))]
}

func (e *Env) GetHorizon(accuracy float64, undiscountedHorizon int) int {
	return env.DiscountedHorizon(e.Discount(), accuracy, undiscountedHorizon)
}
