package tworandom

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairpomcp/planner/history"
)

func TestStepRewardMatchesTable(t *testing.T) {
	e := New()
	rng := rand.New(rand.NewPCG(1, 1))
	s := &State{Index: 0}
	_, reward, terminal := e.Step(rng, s, 0)
	require.False(t, terminal)
	require.Equal(t, []float64{3, 7}, reward)

	s = &State{Index: 1}
	_, reward, _ = e.Step(rng, s, 1)
	require.Equal(t, []float64{8, 2}, reward)
}

func TestCopyIsIndependent(t *testing.T) {
	e := New()
	s := &State{Index: 1}
	c := e.Copy(s).(*State)
	c.Index = 0
	require.Equal(t, 1, s.Index)
}

func TestGenerateLegalReturnsAllActions(t *testing.T) {
	e := New()
	legal := e.GenerateLegal(&State{Index: 0}, history.New())
	require.ElementsMatch(t, []int{0, 1}, legal)
}

func TestNeverTerminal(t *testing.T) {
	e := New()
	rng := rand.New(rand.NewPCG(2, 2))
	s := e.CreateStartState(rng)
	for i := 0; i < 50; i++ {
		_, _, terminal := e.Step(rng, s, i%2)
		require.False(t, terminal)
	}
}
