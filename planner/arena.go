package planner

import (
	"github.com/fairpomcp/planner/belief"
)

// vectorValue is an incremental count/total accumulator over reward
// vectors, mirroring the reference VALUE<COUNT> template: Total is kept
// rather than the mean so that Add is O(numObjectives) with no
// division-by-count drift across many additions.
type vectorValue struct {
	count int
	total []float64
}

func newVectorValue(dim int) vectorValue {
	return vectorValue{total: make([]float64, dim)}
}

// Add folds totalReward into the running count/total.
func (v *vectorValue) Add(totalReward []float64) {
	v.count++
	for i, r := range totalReward {
		v.total[i] += r
	}
}

// Mean returns total/count per coordinate, or the zero vector if count is 0.
func (v *vectorValue) Mean() []float64 {
	mean := make([]float64, len(v.total))
	if v.count == 0 {
		return mean
	}
	for i, t := range v.total {
		mean[i] = t / float64(v.count)
	}
	return mean
}

// Count returns the number of vectors folded into this accumulator.
func (v *vectorValue) Count() int { return v.count }

// qNode is one action edge below a vNode: its Value tracks the return
// observed for taking that action, and Children indexes by observation to
// the vNode reached (nil until expanded).
type qNode struct {
	value    vectorValue
	children []*vNode
}

func newQNode(numObjectives, numObservations int) *qNode {
	return &qNode{
		value:    newVectorValue(numObjectives),
		children: make([]*vNode, numObservations),
	}
}

// vNode is a belief node: a scalarized value estimate over its action
// children plus the particle belief reached by the path leading to it.
type vNode struct {
	value    vectorValue
	children []*qNode
	belief   *belief.Belief
}

func newVNode(numObjectives, numActions, numObservations int) *vNode {
	v := &vNode{
		value:  newVectorValue(numObjectives),
		belief: belief.New(),
	}
	v.children = make([]*qNode, numActions)
	for a := range v.children {
		v.children[a] = newQNode(numObjectives, numObservations)
	}
	return v
}

// arena is a free-list pool of vNodes, recycling the struct (and its
// pre-sized qNode/children slices) across SelectAction calls instead of
// letting the garbage collector reclaim and re-allocate them every episode,
// matching the reference's single-threaded MEMORY_POOL<VNODE>.
type arena struct {
	numObjectives   int
	numActions      int
	numObservations int
	free            []*vNode
}

func newArena(numObjectives, numActions, numObservations int) *arena {
	return &arena{
		numObjectives:   numObjectives,
		numActions:      numActions,
		numObservations: numObservations,
	}
}

// allocate returns a vNode ready for use, either recycled from the free
// list or freshly constructed.
func (a *arena) allocate() *vNode {
	if n := len(a.free); n > 0 {
		v := a.free[n-1]
		a.free = a.free[:n-1]
		v.value = newVectorValue(a.numObjectives)
		for _, q := range v.children {
			q.value = newVectorValue(a.numObjectives)
			for i := range q.children {
				q.children[i] = nil
			}
		}
		return v
	}
	return newVNode(a.numObjectives, a.numActions, a.numObservations)
}

// release frees v and, recursively, its belief particles and its
// children's child vNodes, returning v itself to the free list. It does
// not free e's states owned elsewhere (callers free a belief exactly
// once).
func (a *arena) release(v *vNode, freeBelief func(*belief.Belief)) {
	if v == nil {
		return
	}
	freeBelief(v.belief)
	v.belief = belief.New()
	for _, q := range v.children {
		for i, child := range q.children {
			if child != nil {
				a.release(child, freeBelief)
				q.children[i] = nil
			}
		}
	}
	a.free = append(a.free, v)
}
