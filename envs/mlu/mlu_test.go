package mlu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairpomcp/planner/history"
)

func TestNewBuildsCorridorWithUnloadPoints(t *testing.T) {
	e := New(4)
	require.Equal(t, 4, e.NumObjectives())
	require.Len(t, e.unloadPos, 4)
	require.Equal(t, Coord{e.width - 1, 1}, e.loadPos)
	require.Equal(t, Coord{0, 1}, e.startPos)
}

func TestLoadThenUnloadPaysCorrectObjective(t *testing.T) {
	e := New(2)
	rng := rand.New(rand.NewPCG(1, 1))
	s := &State{AgentPos: e.loadPos, IsLoaded: false}
	_, reward, _ := e.Step(rng, s, ActionLoad)
	require.True(t, s.IsLoaded)
	require.Equal(t, []float64{0, 0}, reward)

	s.AgentPos = e.unloadPos[0]
	_, reward2, _ := e.Step(rng, s, ActionUnload)
	require.Equal(t, []float64{100, 0}, reward2)
	require.False(t, s.IsLoaded)
}

func TestUnloadingWithoutLoadDoesNothing(t *testing.T) {
	e := New(2)
	rng := rand.New(rand.NewPCG(1, 1))
	s := &State{AgentPos: e.unloadPos[1], IsLoaded: false}
	_, reward, _ := e.Step(rng, s, ActionUnload)
	require.Equal(t, []float64{0, 0}, reward)
}

func TestMovingIntoWallIsANoOp(t *testing.T) {
	e := New(2)
	rng := rand.New(rand.NewPCG(1, 1))
	s := &State{AgentPos: e.unloadPos[0]}
	before := s.AgentPos
	// From an unload alcove, moving east/west typically hits a wall.
	e.Step(rng, s, ActionEast)
	if !e.open(Coord{before.X + 1, before.Y}) {
		require.Equal(t, before, s.AgentPos)
	}
}

func TestObservationEncodesWallsAndLoadedBit(t *testing.T) {
	e := New(3)
	loaded := &State{AgentPos: e.startPos, IsLoaded: true}
	unloaded := &State{AgentPos: e.startPos, IsLoaded: false}
	require.NotEqual(t, e.observation(loaded), e.observation(unloaded))
	require.Equal(t, 1<<4, e.observation(loaded)&(1<<4))
}

func TestGenerateLegalAlwaysNonEmpty(t *testing.T) {
	e := New(3)
	s := &State{AgentPos: e.startPos}
	legal := e.GenerateLegal(s, history.New())
	require.NotEmpty(t, legal)
}

func TestCopyIsIndependent(t *testing.T) {
	e := New(2)
	s := &State{AgentPos: e.loadPos, IsLoaded: true}
	c := e.Copy(s).(*State)
	c.IsLoaded = false
	require.True(t, s.IsLoaded)
}
