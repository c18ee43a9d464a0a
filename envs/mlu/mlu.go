// Package mlu implements "multi-load-unload": an agent must pick up a
// load at a single fixed cell and carry it to one of N fixed unload
// cells scattered around a small maze. Each unload cell is its own
// reward objective (rewarded 100 on a successful unload there), so a
// fair policy has to keep visiting all of them rather than camping next
// to whichever is closest. The agent only senses the open/wall pattern
// of its four neighboring cells plus whether it's currently carrying a
// load — never its own position — so the grid's symmetric cells are
// genuinely indistinguishable from a single observation.
package mlu

import (
	"math/rand/v2"

	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/history"
)

const discount = 0.95

// Move and actuator actions.
const (
	ActionNorth = iota
	ActionEast
	ActionSouth
	ActionWest
	ActionLoad
	ActionUnload
)

const numActions = 6

// Coord is an (x, y) grid position.
type Coord struct {
	X, Y int
}

// cellKind values stored in the maze grid.
const (
	cellWall = -1
	cellOpen = 0
	// cellUnloadBase + i marks the i-th unload cell.
	cellUnloadBase = 1
)

// State is the agent's position and whether it is currently carrying a
// load.
type State struct {
	AgentPos Coord
	IsLoaded bool
}

// Env is the multi-load-unload maze.
type Env struct {
	width, height int
	grid          [][]int // grid[x][y]; cellWall, cellOpen, or cellUnloadBase+i
	loadPos       Coord
	unloadPos     []Coord
	startPos      Coord
	numUnload     int
}

var _ env.Environment = (*Env)(nil)

// New builds a maze with numUnload unload cells alternating above and
// below a single open corridor, with the load cell at the corridor's far
// end and the start position at its near end — the shape documented for
// this domain: one load point, N unload points, 4-directional movement
// plus load/unload, and only local wall-sensing observations.
func New(numUnload int) *Env {
	if numUnload < 1 {
		numUnload = 1
	}
	width := numUnload + 2
	height := 3
	e := &Env{width: width, height: height, numUnload: numUnload}

	e.grid = make([][]int, width)
	for x := range e.grid {
		e.grid[x] = make([]int, height)
		for y := range e.grid[x] {
			e.grid[x][y] = cellWall
		}
	}
	// The middle row is an open corridor running the full width.
	for x := 0; x < width; x++ {
		e.grid[x][1] = cellOpen
	}

	e.unloadPos = make([]Coord, numUnload)
	for i := 0; i < numUnload; i++ {
		x := i + 1
		y := 0
		if i%2 == 1 {
			y = 2
		}
		e.grid[x][y] = cellUnloadBase + i
		e.unloadPos[i] = Coord{x, y}
	}

	e.loadPos = Coord{width - 1, 1}
	e.startPos = Coord{0, 1}
	return e
}

func (e *Env) inBounds(c Coord) bool {
	return c.X >= 0 && c.X < e.width && c.Y >= 0 && c.Y < e.height
}

func (e *Env) open(c Coord) bool {
	return e.inBounds(c) && e.grid[c.X][c.Y] != cellWall
}

func (e *Env) unloadIndexAt(c Coord) int {
	if !e.inBounds(c) {
		return -1
	}
	v := e.grid[c.X][c.Y]
	if v >= cellUnloadBase {
		return v - cellUnloadBase
	}
	return -1
}

func (e *Env) NumActions() int      { return numActions }
func (e *Env) NumObservations() int { return 32 } // 4 wall bits + 1 loaded bit
func (e *Env) NumObjectives() int   { return e.numUnload }
func (e *Env) Discount() float64    { return discount }
func (e *Env) RewardRange() float64 { return 100 }

func (e *Env) CreateStartState(rng *rand.Rand) env.State {
	return &State{AgentPos: e.startPos, IsLoaded: false}
}

func (e *Env) Copy(s env.State) env.State {
	orig := s.(*State)
	return &State{AgentPos: orig.AgentPos, IsLoaded: orig.IsLoaded}
}

func (e *Env) FreeState(env.State) {}

func neighbors(c Coord) [4]Coord {
	return [4]Coord{
		{c.X, c.Y + 1}, // north
		{c.X + 1, c.Y}, // east
		{c.X, c.Y - 1}, // south
		{c.X - 1, c.Y}, // west
	}
}

// observation packs the 4-neighbor open/wall pattern into the low 4 bits
// and whether the agent is loaded into bit 4.
func (e *Env) observation(st *State) int {
	obs := 0
	for i, n := range neighbors(st.AgentPos) {
		if e.open(n) {
			obs |= 1 << uint(i)
		}
	}
	if st.IsLoaded {
		obs |= 1 << 4
	}
	return obs
}

func (e *Env) Step(rng *rand.Rand, s env.State, a int) (int, []float64, bool) {
	st := s.(*State)
	reward := make([]float64, e.numUnload)

	switch a {
	case ActionNorth, ActionEast, ActionSouth, ActionWest:
		ns := neighbors(st.AgentPos)[a]
		if e.open(ns) {
			st.AgentPos = ns
		}
	case ActionLoad:
		if !st.IsLoaded && st.AgentPos == e.loadPos {
			st.IsLoaded = true
		}
	case ActionUnload:
		if st.IsLoaded {
			if idx := e.unloadIndexAt(st.AgentPos); idx >= 0 {
				reward[idx] = 100
				st.IsLoaded = false
			}
		}
	}
	return e.observation(st), reward, false
}

func (e *Env) GenerateLegal(s env.State, h *history.History) []int {
	st := s.(*State)
	var legal []int
	for a, n := range neighbors(st.AgentPos) {
		if e.open(n) {
			legal = append(legal, a)
		}
	}
	if !st.IsLoaded && st.AgentPos == e.loadPos {
		legal = append(legal, ActionLoad)
	}
	if st.IsLoaded {
		if idx := e.unloadIndexAt(st.AgentPos); idx >= 0 {
			legal = append(legal, ActionUnload)
			_ = idx
		}
	}
	if len(legal) == 0 {
		legal = []int{ActionLoad}
	}
	return legal
}

func (e *Env) LocalMove(rng *rand.Rand, s env.State, h *history.History, lastStep history.Step) bool {
	st := s.(*State)
	var candidates []Coord
	for x := 0; x < e.width; x++ {
		for y := 0; y < e.height; y++ {
			if e.grid[x][y] != cellWall {
				candidates = append(candidates, Coord{x, y})
			}
		}
	}
	st.AgentPos = candidates[rng.IntN(len(candidates))]
	newObs := e.observation(st)
	return newObs == lastStep.Observation
}

func (e *Env) SelectRandom(rng *rand.Rand, s env.State, h *history.History, status *env.Status) int {
	legal := e.GenerateLegal(s, h)
	return legal[rng.IntN(len(legal))]
}

func (e *Env) GetHorizon(accuracy float64, undiscountedHorizon int) int {
	return env.DiscountedHorizon(discount, accuracy, undiscountedHorizon)
}
