package rocksample

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/history"
	"github.com/fairpomcp/planner/planner"
	"github.com/fairpomcp/planner/welfare"
)

func TestNewUsesFixedLayoutFor3x3(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	require.Equal(t, Coord{0, 1}, e.startPos)
	require.Len(t, e.rockPos, 3)
	require.Equal(t, 8, e.NumActions()) // 5 + 3 rocks
	require.Equal(t, 3, e.NumObservations())
	require.Equal(t, 2, e.NumObjectives())
	require.Equal(t, 1.0, e.Discount())
}

func TestMovingOffEastEdgeIsTerminal(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	s := &State{AgentPos: Coord{2, 1}, Rocks: make([]rockEntry, 3)}
	_, reward, terminal := e.Step(rng, s, ActionEast)
	require.True(t, terminal)
	require.Equal(t, []float64{0, 0}, reward)
}

func TestIllegalMoveIntoWallPenalizesBothObjectives(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	s := &State{AgentPos: Coord{0, 0}, Rocks: make([]rockEntry, 3)}
	_, reward, terminal := e.Step(rng, s, ActionSouth)
	require.False(t, terminal)
	require.Equal(t, []float64{-100, -100}, reward)
}

func TestSamplingRockGivesTypeDependentReward(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	// Rock 0 is at (1, 0).
	s := &State{AgentPos: Coord{1, 0}, Rocks: make([]rockEntry, 3)}
	s.Rocks[0].Type = 0
	_, reward, _ := e.Step(rng, s, ActionSample)
	require.Equal(t, []float64{1, 9}, reward)
	require.True(t, s.Rocks[0].Collected)

	s2 := &State{AgentPos: Coord{1, 0}, Rocks: make([]rockEntry, 3)}
	s2.Rocks[0].Type = 1
	_, reward2, _ := e.Step(rng, s2, ActionSample)
	require.Equal(t, []float64{9, 1}, reward2)
}

func TestSamplingEmptyCellOrCollectedRockPenalizes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	s := &State{AgentPos: Coord{0, 0}, Rocks: make([]rockEntry, 3)}
	_, reward, _ := e.Step(rng, s, ActionSample)
	require.Equal(t, []float64{-100, -100}, reward)

	s2 := &State{AgentPos: Coord{1, 0}, Rocks: make([]rockEntry, 3)}
	s2.Rocks[0].Collected = true
	_, reward2, _ := e.Step(rng, s2, ActionSample)
	require.Equal(t, []float64{-100, -100}, reward2)
}

func TestCheckActionCloseToRockIsUsuallyAccurate(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	e := New(rng, 3, 3)
	// Rock 0 sits at (1, 0); stand right on top of it so efficiency is ~1.
	s := &State{AgentPos: Coord{1, 0}, Rocks: make([]rockEntry, 3)}
	s.Rocks[0].Type = 1
	s.Rocks[0].LikelihoodValuable, s.Rocks[0].LikelihoodWorthless = 1, 1

	correct := 0
	const trials = 200
	for i := 0; i < trials; i++ {
		obs, _, _ := e.Step(rng, s, ActionSample+1) // check rock 0
		if obs == ObsType2 {
			correct++
		}
	}
	require.Greater(t, correct, trials*3/4)
}

func TestGenerateLegalExcludesOutOfBoundsMoves(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	s := &State{AgentPos: Coord{0, 0}, Rocks: make([]rockEntry, 3)}
	legal := e.GenerateLegal(s, history.New())
	require.NotContains(t, legal, ActionSouth)
	require.NotContains(t, legal, ActionWest)
	require.Contains(t, legal, ActionNorth)
	require.Contains(t, legal, ActionEast)
}

func TestGenerateLegalOffersSampleOnlyOnUncollectedRock(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	s := &State{AgentPos: Coord{1, 0}, Rocks: make([]rockEntry, 3)}
	legal := e.GenerateLegal(s, history.New())
	require.Contains(t, legal, ActionSample)

	s.Rocks[0].Collected = true
	legal2 := e.GenerateLegal(s, history.New())
	require.NotContains(t, legal2, ActionSample)
}

func TestCopyIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := New(rng, 3, 3)
	s := &State{AgentPos: Coord{1, 1}, Rocks: make([]rockEntry, 3)}
	s.Rocks[0].Type = 1
	c := e.Copy(s).(*State)
	c.AgentPos.X = 2
	c.Rocks[0].Type = 0
	require.Equal(t, 1, s.AgentPos.X)
	require.Equal(t, 1, s.Rocks[0].Type)
}

func TestLocalMoveRejectsInconsistentObservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	// With a single rock, LocalMove always flips that rock (type 0 -> 1);
	// standing on it makes the check observation exact (ObsType2 for type
	// 1), which contradicts the recorded ObsType1.
	e := New(rng, 2, 1)
	s := &State{AgentPos: e.rockPos[0], Rocks: make([]rockEntry, 1)}
	ok := e.LocalMove(rng, s, history.New(), history.Step{Action: ActionSample + 1, Observation: ObsType1})
	require.False(t, ok)
}

func TestRandomLayoutForUnknownSizeProducesNonOverlappingRocks(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	e := New(rng, 5, 4)
	require.Len(t, e.rockPos, 4)
	seen := map[Coord]bool{}
	for _, p := range e.rockPos {
		require.False(t, seen[p])
		seen[p] = true
	}
}

// runRockSampleEpisode drives one full planner-controlled episode on the 7x8
// (8-rock) layout starting at (0,3), falling back to a random rollout once
// the planner reports particle starvation, and returns how many rocks of
// each type were ultimately collected.
func runRockSampleEpisode(t *testing.T, strategy welfare.Strategy, seed uint64) (type0, type1 int) {
	t.Helper()
	envRng := rand.New(rand.NewPCG(seed, seed^0xabcdef))
	e := New(envRng, 7, 8)
	require.Equal(t, Coord{0, 3}, e.startPos)

	cfg := planner.DefaultConfig()
	cfg.NumSimulations = 4096
	cfg.Strategy = strategy
	cfg.NumStartStates = 100
	cfg.MaxDepth = 50

	planRng := rand.New(rand.NewPCG(seed^0x9e3779b9, seed))
	p, err := planner.New(e, cfg, planRng)
	require.NoError(t, err)

	st := e.CreateStartState(planRng).(*State)
	localHist := history.New()
	status := env.NewStatus()
	pastReward := make([]float64, e.NumObjectives())

	starved := false
	horizon := e.GetHorizon(1e-3, 100)
	for step := 0; step < horizon; step++ {
		var a int
		if !starved {
			a, err = p.SelectAction(pastReward)
			require.NoError(t, err)
		} else {
			a = e.SelectRandom(planRng, st, localHist, status)
		}

		obs, reward, terminal := e.Step(planRng, st, a)
		for i := range pastReward {
			pastReward[i] += reward[i]
		}
		localHist.Add(a, obs)
		if terminal {
			break
		}

		if !starved {
			ok, uerr := p.Update(a, obs, reward)
			require.NoError(t, uerr)
			if !ok {
				starved = true
			}
		}
	}

	for _, r := range st.Rocks {
		if !r.Collected {
			continue
		}
		if r.Type == 0 {
			type0++
		} else {
			type1++
		}
	}
	return type0, type1
}

// TestGGFBalancesRockTypeCollectionBetterThanWS reproduces the RockSample
// 7x8 GGF-vs-WS fairness scenario: after 4096 simulations per step and 50
// episodes, GGF's per-rock-type collection counts should be closer to equal
// than WS's, and GGF's imbalance ratio should satisfy
// |type1-type2|/total < 0.25.
func TestGGFBalancesRockTypeCollectionBetterThanWS(t *testing.T) {
	const numEpisodes = 50

	var ggfType0, ggfType1, wsType0, wsType1 int
	for ep := 0; ep < numEpisodes; ep++ {
		seed := uint64(ep) + 1
		t0, t1 := runRockSampleEpisode(t, welfare.GGFStrategy, seed)
		ggfType0 += t0
		ggfType1 += t1
		t0, t1 = runRockSampleEpisode(t, welfare.WSStrategy, seed)
		wsType0 += t0
		wsType1 += t1
	}

	ggfTotal := ggfType0 + ggfType1
	require.Greater(t, ggfTotal, 0)
	ggfImbalance := math.Abs(float64(ggfType0-ggfType1)) / float64(ggfTotal)
	require.Lessf(t, ggfImbalance, 0.25,
		"GGF collected %d type-0 vs %d type-1 rocks, imbalance %.3f exceeds 0.25", ggfType0, ggfType1, ggfImbalance)

	wsTotal := wsType0 + wsType1
	if wsTotal > 0 {
		wsImbalance := math.Abs(float64(wsType0-wsType1)) / float64(wsTotal)
		require.LessOrEqualf(t, ggfImbalance, wsImbalance,
			"GGF imbalance %.3f should be no worse than WS imbalance %.3f", ggfImbalance, wsImbalance)
	}
}
