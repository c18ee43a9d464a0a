package belief

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/history"
)

// intState is a minimal env.Environment used only to exercise ownership
// semantics (Copy/FreeState call counts), matching how the teacher's unit
// tests stub out game state for pool/ownership tests.
type intState struct {
	value int
	freed *bool
}

type countingEnv struct {
	copies int
	frees  int
}

func (c *countingEnv) NumActions() int                       { return 1 }
func (c *countingEnv) NumObservations() int                  { return 1 }
func (c *countingEnv) NumObjectives() int                    { return 1 }
func (c *countingEnv) Discount() float64                      { return 0.95 }
func (c *countingEnv) RewardRange() float64                   { return 1 }
func (c *countingEnv) CreateStartState(rng *rand.Rand) env.State {
	return &intState{value: 0}
}
func (c *countingEnv) Copy(s env.State) env.State {
	c.copies++
	orig := s.(*intState)
	return &intState{value: orig.value}
}
func (c *countingEnv) FreeState(s env.State) {
	c.frees++
	st := s.(*intState)
	if st.freed != nil {
		*st.freed = true
	}
}
func (c *countingEnv) Step(rng *rand.Rand, s env.State, a int) (int, []float64, bool) {
	return 0, []float64{0}, false
}
func (c *countingEnv) GenerateLegal(s env.State, h *history.History) []int { return []int{0} }
func (c *countingEnv) LocalMove(rng *rand.Rand, s env.State, h *history.History, last history.Step) bool {
	return true
}
func (c *countingEnv) SelectRandom(rng *rand.Rand, s env.State, h *history.History, status *env.Status) int {
	return 0
}
func (c *countingEnv) GetHorizon(accuracy float64, undiscountedHorizon int) int { return 100 }

func TestAddSampleAndNumSamples(t *testing.T) {
	b := New()
	require.True(t, b.Empty())
	b.AddSample(&intState{value: 1})
	b.AddSample(&intState{value: 2})
	require.Equal(t, 2, b.NumSamples())
	require.False(t, b.Empty())
	require.Equal(t, 1, b.GetSample(0).(*intState).value)
	require.Equal(t, 2, b.GetSample(1).(*intState).value)
}

func TestCreateSampleReturnsOwnedCopy(t *testing.T) {
	e := &countingEnv{}
	b := New()
	b.AddSample(&intState{value: 7})
	rng := rand.New(rand.NewPCG(1, 2))
	sample := b.CreateSample(rng, e)
	require.Equal(t, 1, e.copies)
	require.Equal(t, 7, sample.(*intState).value)
	require.NotSame(t, b.samples[0], sample)
}

func TestCreateSampleEmptyPanics(t *testing.T) {
	b := New()
	e := &countingEnv{}
	rng := rand.New(rand.NewPCG(1, 2))
	require.Panics(t, func() { b.CreateSample(rng, e) })
}

func TestCopyFromDeepCopies(t *testing.T) {
	e := &countingEnv{}
	src := New()
	src.AddSample(&intState{value: 1})
	src.AddSample(&intState{value: 2})

	dst := New()
	dst.CopyFrom(src, e)
	require.Equal(t, 2, dst.NumSamples())
	require.Equal(t, 2, e.copies)
	require.Equal(t, 1, dst.GetSample(0).(*intState).value)
	require.Equal(t, 2, dst.GetSample(1).(*intState).value)
}

func TestFreeAllReleasesAndEmpties(t *testing.T) {
	e := &countingEnv{}
	freed1, freed2 := false, false
	b := New()
	b.AddSample(&intState{value: 1, freed: &freed1})
	b.AddSample(&intState{value: 2, freed: &freed2})
	b.FreeAll(e)
	require.True(t, freed1)
	require.True(t, freed2)
	require.Equal(t, 2, e.frees)
	require.True(t, b.Empty())
}
