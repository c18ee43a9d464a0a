package mwa

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairpomcp/planner/history"
)

func TestNewShapesMatchFormula(t *testing.T) {
	e := New(5)
	require.Equal(t, 11, e.numStates) // 2*5+1
	require.Equal(t, 6, e.NumActions())
	require.Equal(t, 11, e.NumObservations())
	require.Equal(t, 5, e.NumObjectives())
}

func TestTransFuncRowsSumToOne(t *testing.T) {
	e := New(3)
	for s := 0; s < e.numStates; s++ {
		for a := 0; a < e.numActions; a++ {
			sum := 0.0
			for _, p := range e.transFunc[s][a] {
				sum += p
			}
			require.InDelta(t, 1.0, sum, 1e-9)
		}
	}
}

func TestObsFuncRowsSumToOne(t *testing.T) {
	e := New(3)
	for s := 0; s < e.numStates; s++ {
		sum := 0.0
		for _, p := range e.obsFunc[s] {
			sum += p
		}
		require.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestBuyingProductRewardsOnlyThatObjective(t *testing.T) {
	e := New(3)
	s := &State{Index: 0} // visiting product 0
	found := false
	rng := rand.New(rand.NewPCG(1, 1))
	for i := 0; i < 500 && !found; i++ {
		trial := &State{Index: 0}
		_, reward, _ := e.Step(rng, trial, 0) // show ad for product 0
		if trial.Index == e.numVisit {        // bought product 0
			require.Equal(t, []float64{5, 0, 0}, reward)
			found = true
		}
	}
	require.True(t, found, "buying product 0 never observed in 500 trials")
	_ = s
}

func TestGenerateLegalReturnsAllActions(t *testing.T) {
	e := New(4)
	legal := e.GenerateLegal(&State{Index: 0}, history.New())
	require.Len(t, legal, 5)
}

func TestCopyIsIndependent(t *testing.T) {
	e := New(3)
	s := &State{Index: 2}
	c := e.Copy(s).(*State)
	c.Index = 0
	require.Equal(t, 2, s.Index)
}
