package lpsolve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectReturnsValidDistribution(t *testing.T) {
	q := [][]float64{
		{10, 0},
		{0, 10},
		{5, 5},
	}
	p := []float64{0.5, 0.5}
	pi, err := Select(q, p)
	require.NoError(t, err)
	require.Len(t, pi, 3)
	sum := 0.0
	for _, v := range pi {
		require.GreaterOrEqual(t, v, -1e-6)
		sum += v
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}

func TestSelectPrefersBalancedActionOverLopsided(t *testing.T) {
	// Action 0 is the fair choice; actions 1/2 each max out one objective
	// while zeroing the other.
	q := [][]float64{
		{5, 5},
		{10, 0},
		{0, 10},
	}
	p := []float64{0.5, 0.5}
	pi, err := Select(q, p)
	require.NoError(t, err)
	require.GreaterOrEqual(t, pi[0], pi[1]-1e-6)
	require.GreaterOrEqual(t, pi[0], pi[2]-1e-6)
}

func TestSelectRejectsMismatchedDimensions(t *testing.T) {
	_, err := Select([][]float64{{1, 2}}, []float64{1})
	require.Error(t, err)
}

func TestSelectRejectsEmptyInput(t *testing.T) {
	_, err := Select(nil, nil)
	require.Error(t, err)
}
