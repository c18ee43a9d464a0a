package planner

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/fairpomcp/planner/belief"
	"github.com/fairpomcp/planner/env"
)

// rolloutSearch is the disableTree search path: rather than descending a
// tree, it spends the simulation budget round-robin over the legal
// actions, sampling a fresh particle and a rollout for each, and
// accumulating directly into the root's per-action value. The first time an
// (action, observation) pair is seen it creates that depth-1 V-node holding
// the stepped particle; deeper nodes are never created.
func (p *Planner) rolloutSearch() error {
	if p.root.belief.Empty() {
		return errors.Errorf("planner: root belief is empty, cannot rollout-search")
	}
	legal := p.env.GenerateLegal(p.root.belief.GetSample(0), p.h)
	if len(legal) == 0 {
		return errors.Errorf("planner: GenerateLegal returned no actions for a non-terminal state")
	}
	p.rng.Shuffle(len(legal), func(i, j int) { legal[i], legal[j] = legal[j], legal[i] })

	historyDepth := p.h.Size()
	p.treeDepth = 0
	for i := 0; i < p.cfg.NumSimulations; i++ {
		a := legal[i%len(legal)]
		s := p.root.belief.CreateSample(p.rng, p.env)

		obs, immediateReward, terminal := p.env.Step(p.rng, s, a)
		q := p.root.children[a]
		child := q.children[obs]
		if child == nil && !terminal {
			child = p.expandNode(s, p.env.NumObjectives())
			child.belief.AddSample(p.env.Copy(s))
			q.children[obs] = child
		}
		p.h.Add(a, obs)

		delayed := p.rollout(s)
		discount := p.env.Discount()
		total := make([]float64, p.env.NumObjectives())
		for k := range total {
			total[k] = immediateReward[k] + discount*delayed[k]
		}
		q.value.Add(total)

		p.env.FreeState(s)
		p.h.Resize(historyDepth)
	}
	return nil
}

// Update advances the planner past one real environment step (action,
// observation), reusing the matching subtree as the new root's belief
// when possible. It reports false on particle starvation — when neither
// the matched subtree nor belief transformation yields any particles —
// in which case the driver should fall back to a random rollout policy
// until the episode ends. reward is accepted for interface symmetry with
// the driver's own bookkeeping; the core itself does not need it to
// rebuild the tree.
func (p *Planner) Update(action, observation int, reward []float64) (bool, error) {
	p.h.Add(action, observation)

	oldRootBelief := p.root.belief
	q := p.root.children[action]
	matched := q.children[observation]

	b := belief.New()
	if matched != nil {
		if klog.V(1).Enabled() {
			klog.Infof("Update: matched %d states", matched.belief.NumSamples())
		}
		b.CopyFrom(matched.belief, p.env)
	} else if klog.V(1).Enabled() {
		klog.Infof("Update: no matching node found")
	}

	if p.cfg.UseTransforms {
		p.addTransforms(oldRootBelief, b)
	}

	matchedEmpty := matched == nil || matched.belief.Empty()
	if b.Empty() && matchedEmpty {
		return false, nil
	}

	// Copy the seed state out before releasing the old tree: the matched
	// V-node's belief (if that's where the seed comes from) is owned by
	// the tree we are about to free, so the seed must outlive that free.
	var seed env.State
	if matched != nil && !matched.belief.Empty() {
		seed = p.env.Copy(matched.belief.GetSample(0))
	} else {
		seed = p.env.Copy(b.GetSample(0))
	}

	p.arena.release(p.root, func(blf *belief.Belief) { blf.FreeAll(p.env) })
	newRoot := p.expandNode(seed, p.env.NumObjectives())
	p.env.FreeState(seed)
	newRoot.belief = b
	p.root = newRoot
	return true, nil
}

// addTransforms runs belief transformation up to cfg.MaxAttempts times,
// adding perturbed-but-history-consistent particles to b until it gains
// cfg.NumTransforms new samples or attempts run out.
func (p *Planner) addTransforms(oldRootBelief *belief.Belief, b *belief.Belief) {
	attempts, added := 0, 0
	for added < p.cfg.NumTransforms && attempts < p.cfg.MaxAttempts {
		s := p.createTransform(oldRootBelief)
		if s != nil {
			b.AddSample(s)
			added++
		}
		attempts++
	}
	if klog.V(1).Enabled() {
		klog.Infof("Created %d local transformations out of %d attempts", added, attempts)
	}
}

// createTransform samples a particle from the old root's belief, advances
// it one step with the just-taken action, and perturbs it with the
// environment's local move; it returns the perturbed state if the move
// remains consistent with the latest observation, or nil (after freeing
// the sample) otherwise.
func (p *Planner) createTransform(oldRootBelief *belief.Belief) env.State {
	s := oldRootBelief.CreateSample(p.rng, p.env)
	lastStep := p.h.Back()
	p.env.Step(p.rng, s, lastStep.Action)
	if p.env.LocalMove(p.rng, s, p.h, lastStep) {
		return s
	}
	p.env.FreeState(s)
	return nil
}
