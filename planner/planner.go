// Package planner implements the Fair-POMCP tree search: belief-state
// Monte Carlo planning over a vector-valued reward with non-linear
// social-welfare scalarization (see welfare.GGF/WS) driving both UCB
// selection and the final greedy action choice.
package planner

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/fairpomcp/planner/env"
	"github.com/fairpomcp/planner/history"
	"github.com/fairpomcp/planner/stats"
	"github.com/fairpomcp/planner/welfare"
)

// Planner is a Fair-POMCP search tree bound to one environment instance. It
// is not safe for concurrent use: per §5 of the design it is single-
// threaded, and a SelectAction call owns the arena and history exclusively
// until it returns.
type Planner struct {
	env    env.Environment
	cfg    Config
	rng    *rand.Rand
	arena  *arena
	ucb    *fastUCB
	root   *vNode
	h      *history.History
	status *env.Status

	treeDepth     int
	peakTreeDepth int

	StatTreeDepth    *stats.Accumulator
	StatRolloutDepth *stats.Accumulator
	StatTotalReward  *stats.VectorAccumulator
}

// New constructs a Planner: it creates the root V-node via the
// environment's optional prior, fills its belief with cfg.NumStartStates
// independent start-state samples, and precomputes the UCB lookup table.
func New(e env.Environment, cfg Config, rng *rand.Rand) (*Planner, error) {
	if cfg.NumStartStates <= 0 {
		return nil, errors.Errorf("planner: NumStartStates must be positive, got %d", cfg.NumStartStates)
	}
	numObjectives := e.NumObjectives()
	if numObjectives <= 0 {
		return nil, errors.Errorf("planner: environment reports non-positive NumObjectives %d", numObjectives)
	}

	exploration := cfg.ExplorationConstant
	if cfg.AutoExploration {
		if cfg.UseRave {
			exploration = 0
		} else {
			exploration = e.RewardRange()
		}
	}

	p := &Planner{
		env:    e,
		cfg:    cfg,
		rng:    rng,
		arena:  newArena(numObjectives, e.NumActions(), e.NumObservations()),
		ucb:    newFastUCB(exploration),
		h:      history.New(),
		status: env.NewStatus(),

		StatTreeDepth:    stats.NewAccumulator(),
		StatRolloutDepth: stats.NewAccumulator(),
		StatTotalReward:  stats.NewVectorAccumulator(numObjectives),
	}

	startState := e.CreateStartState(rng)
	p.root = p.expandNode(startState, numObjectives)
	e.FreeState(startState)
	for i := 0; i < cfg.NumStartStates; i++ {
		p.root.belief.AddSample(e.CreateStartState(rng))
	}
	return p, nil
}

// History returns the planner's shared history record (read-only use by
// callers; the planner itself appends/truncates during search).
func (p *Planner) History() *history.History { return p.h }

// expandNode allocates a fresh V-node from the arena and seeds it via the
// environment's optional AlphaEnvironment.Prior, mirroring ExpandNode.
func (p *Planner) expandNode(s env.State, numObjectives int) *vNode {
	v := p.arena.allocate()
	if alphaEnv, ok := p.env.(env.AlphaEnvironment); ok && alphaEnv.HasAlpha() {
		visits, values := alphaEnv.Prior(s, p.h, p.status)
		for a := range v.children {
			if a < len(visits) && visits[a] > 0 {
				q := v.children[a]
				q.value.count = visits[a]
				if a < len(values) {
					copy(q.value.total, values[a])
				}
			}
		}
	}
	return v
}

// SelectAction runs the configured search (full UCT or rollout-only) and
// returns the root action: the greedy (no-exploration) UCB argmax, or, when
// cfg.ActionSelector is set, an action sampled from the distribution it
// returns over the root's per-action mean Q-vectors.
func (p *Planner) SelectAction(cumulativePastReward []float64) (int, error) {
	if p.cfg.DisableTree {
		if err := p.rolloutSearch(); err != nil {
			return 0, err
		}
	} else {
		p.uctSearch(cumulativePastReward)
	}
	if p.cfg.ActionSelector != nil {
		return p.selectByDistribution()
	}
	return p.greedyUCB(p.root, false)
}

// selectByDistribution asks cfg.ActionSelector for a distribution over the
// root's actions given their mean Q-vectors and samples one action from it.
func (p *Planner) selectByDistribution() (int, error) {
	numActions := len(p.root.children)
	qValues := make([][]float64, numActions)
	for a, q := range p.root.children {
		qValues[a] = q.value.Mean()
	}
	weights := p.cfg.ImportanceWeight
	if len(weights) != p.env.NumObjectives() {
		weights = uniformWeights(p.env.NumObjectives())
	}
	dist, err := p.cfg.ActionSelector(qValues, weights)
	if err != nil {
		return 0, errors.Wrap(err, "planner: ActionSelector")
	}
	return sampleFromDistribution(p.rng, dist), nil
}

// uniformWeights returns a length-n vector of 1/n, used as ActionSelector's
// reference weight vector when Config.ImportanceWeight is unset.
func uniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

// sampleFromDistribution draws an index from probs via inverse-CDF
// comparison, falling back to the last index against floating-point
// rounding that leaves the cumulative sum just short of 1.
func sampleFromDistribution(rng *rand.Rand, probs []float64) int {
	r := rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}

// uctSearch runs cfg.NumSimulations independent tree descents from the
// root belief, each sampling its own particle and restoring history to its
// pre-search length before returning — even though the core never errors
// mid-simulation, this keeps the invariant exact under every path.
func (p *Planner) uctSearch(cumulativePastReward []float64) {
	p.StatTreeDepth.Clear()
	p.StatRolloutDepth.Clear()
	p.StatTotalReward.Clear()

	historyDepth := p.h.Size()
	for n := 0; n < p.cfg.NumSimulations; n++ {
		s := p.root.belief.CreateSample(p.rng, p.env)
		p.status.Phase = env.PhaseTree

		p.treeDepth = 0
		p.peakTreeDepth = 0
		total := p.simulateV(s, p.root, cumulativePastReward, false)
		p.StatTotalReward.Add(total)
		p.StatTreeDepth.Add(float64(p.peakTreeDepth))

		p.env.FreeState(s)
		p.h.Resize(historyDepth)
	}

	if klog.V(2).Enabled() {
		klog.Infof("uctSearch: %d simulations, mean tree depth %.2f, mean total reward %v",
			p.cfg.NumSimulations, p.StatTreeDepth.Mean(), p.StatTotalReward.Mean())
	}
}

// simulateV descends through a V-node: select the UCB-greedy action, run
// simulateQ for it, and fold the returned vector back into the node's
// value estimate.
func (p *Planner) simulateV(s env.State, v *vNode, past []float64, stop bool) []float64 {
	if p.treeDepth > p.peakTreeDepth {
		p.peakTreeDepth = p.treeDepth
	}
	if p.treeDepth >= p.cfg.MaxDepth {
		return make([]float64, p.env.NumObjectives())
	}
	if p.treeDepth == 1 {
		v.belief.AddSample(p.env.Copy(s))
	}
	if stop {
		return make([]float64, p.env.NumObjectives())
	}

	a, err := p.greedyUCB(v, true)
	if err != nil {
		// generateLegal/shape invariants guarantee at least one action;
		// a violation here is a domain contract bug, not recoverable.
		panic(err)
	}
	q := v.children[a]
	total := p.simulateQ(s, q, a, past)
	v.value.Add(total)
	return total
}

// simulateQ applies action a to s, appends the resulting step to history,
// expands or recurses into the observed V-child (or falls back to
// rollout), and folds the resulting vector return — optionally combined
// with already-accumulated past reward — into q's value estimate.
func (p *Planner) simulateQ(s env.State, q *qNode, a int, past []float64) []float64 {
	numObjectives := p.env.NumObjectives()
	pastOld := append([]float64(nil), past...)
	pastNext := append([]float64(nil), past...)

	if alphaEnv, ok := p.env.(env.AlphaEnvironment); ok && alphaEnv.HasAlpha() {
		alphaEnv.UpdateAlpha(q.value.Mean(), s)
	}

	obs, reward, terminal := p.env.Step(p.rng, s, a)

	// Positive-signal early-stop: any positive-sum reward step signals the
	// sub-episode's relevant event has fired, so further recursion below
	// this point must not compound it.
	stop := sum(reward) > 0

	discount := p.env.Discount()
	for i := range pastNext {
		pastNext[i] += discount * reward[i]
	}
	p.h.Add(a, obs)

	var delayed []float64
	child := q.children[obs]
	if !terminal {
		if child == nil && q.value.Count() >= p.cfg.ExpandCount {
			child = p.expandNode(s, numObjectives)
			q.children[obs] = child
		}
		p.treeDepth++
		if child != nil {
			delayed = p.simulateV(s, child, pastNext, stop)
		} else {
			delayed = p.rollout(s)
		}
		p.treeDepth--
	} else {
		delayed = make([]float64, numObjectives)
	}

	total := make([]float64, numObjectives)
	for i := range total {
		total[i] = reward[i] + discount*delayed[i]
	}
	if p.cfg.ConsiderPast {
		for i := range total {
			total[i] = pastOld[i] + discount*total[i]
		}
	}
	q.value.Add(total)
	return total
}

// rollout runs the environment's default (random) policy from s until
// maxDepth is reached, the episode terminates, or the positive-signal
// early-stop rule fires, accumulating discounted reward along the way.
func (p *Planner) rollout(s env.State) []float64 {
	p.status.Phase = env.PhaseRollout
	numObjectives := p.env.NumObjectives()
	total := make([]float64, numObjectives)
	discountAcc := 1.0
	terminal := false
	steps := 0
	for ; steps+p.treeDepth < p.cfg.MaxDepth && !terminal; steps++ {
		a := p.env.SelectRandom(p.rng, s, p.h, p.status)
		obs, reward, term := p.env.Step(p.rng, s, a)
		terminal = term
		p.h.Add(a, obs)
		for i := range total {
			total[i] += discountAcc * reward[i]
		}
		if sum(reward) > 0 {
			break
		}
		discountAcc *= p.env.Discount()
	}
	p.StatRolloutDepth.Add(float64(steps))
	return total
}

// greedyUCB scores every action at v by its scalarized mean value, adding
// the UCB exploration bonus when ucb is true, and returns one action
// chosen uniformly at random among those tied for the best score.
func (p *Planner) greedyUCB(v *vNode, ucb bool) (int, error) {
	numActions := len(v.children)
	if numActions == 0 {
		return 0, errors.Errorf("planner: V-node has no actions")
	}
	N := v.value.Count()
	var best []int
	bestScore := math.Inf(-1)
	for a, q := range v.children {
		qMean := q.value.Mean()
		score := welfare.Scalarize(p.cfg.Strategy, qMean)
		if ucb {
			score += p.ucb.bonus(N, q.value.Count())
		}
		switch {
		case score > bestScore:
			bestScore = score
			best = best[:0]
			best = append(best, a)
		case score == bestScore:
			best = append(best, a)
		}
	}
	return best[p.rng.IntN(len(best))], nil
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}
