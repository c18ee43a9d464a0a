// Package env defines the environment capability interface the planner
// searches against: a POMDP with a vector-valued reward, plus the handful
// of domain-specific hooks (legal-action generation, local-move belief
// repair, rollout policy) the tree search needs. Concrete domains live
// under the sibling envs/ tree and each implement Environment.
package env

import (
	"math/rand/v2"

	"github.com/fairpomcp/planner/history"
)

// State is an opaque environment state. Concrete environments define their
// own struct and type-assert it back out of this interface, the same way
// callers down-cast an interface{} in Go rather than relying on a template
// parameter.
type State any

// Phase identifies which part of a simulation is currently executing, so a
// domain's SelectRandom or LocalMove can behave differently during tree
// descent versus rollout.
type Phase int

const (
	PhaseTree Phase = iota
	PhaseRollout
)

// Status carries free-form rollout-policy state a domain may want to track
// across a simulated trajectory (legal-move caches, phase flags). Each
// planner keeps a single *Status for its lifetime and passes it to every
// step of every simulation, resetting only Phase; Fields is never cleared.
// Domains that need none may ignore it.
type Status struct {
	Phase  Phase
	Fields map[string]any
}

// NewStatus returns an empty Status.
func NewStatus() *Status {
	return &Status{Fields: make(map[string]any)}
}

// Environment is the capability interface a domain must implement to be
// searched by the planner.
type Environment interface {
	// NumActions returns the size of the (fixed) action space.
	NumActions() int
	// NumObservations returns the size of the (fixed) observation space.
	NumObservations() int
	// NumObjectives returns the dimensionality of the reward vector.
	NumObjectives() int
	// Discount returns the per-step discount factor, in (0, 1].
	Discount() float64
	// RewardRange returns a scalar bound used to size the UCB exploration
	// constant when auto-exploration is enabled.
	RewardRange() float64

	// CreateStartState returns a fresh owned state sampled from the
	// initial-state distribution.
	CreateStartState(rng *rand.Rand) State
	// Copy returns a fresh owned deep copy of s.
	Copy(s State) State
	// FreeState releases resources held by an owned state. Safe to no-op
	// for environments whose states carry no external resources.
	FreeState(s State)

	// Step mutates s in place, applying action a, and returns the
	// resulting observation, reward vector (length NumObjectives), and
	// whether s is now terminal. The reward vector must be populated even
	// when terminal is true.
	Step(rng *rand.Rand, s State, a int) (obs int, reward []float64, terminal bool)

	// GenerateLegal returns the list of actions legal in s given history h.
	// Must be non-empty unless s is terminal.
	GenerateLegal(s State, h *history.History) []int

	// LocalMove perturbs s in place to a nearby consistent state, for
	// belief transformation when particle reinvigoration is needed.
	// lastStep is the most recent (action, observation) pair in the
	// simulated history; LocalMove returns whether the perturbed state
	// remains consistent with it.
	LocalMove(rng *rand.Rand, s State, h *history.History, lastStep history.Step) bool

	// SelectRandom returns an action for the rollout (default) policy,
	// optionally using per-trajectory status to bias the choice.
	SelectRandom(rng *rand.Rand, s State, h *history.History, status *Status) int

	// GetHorizon returns the effective search/episode horizon: the number
	// of steps after which discounting makes further reward negligible
	// relative to accuracy, capped by undiscountedHorizon when the
	// discount is 1.
	GetHorizon(accuracy float64, undiscountedHorizon int) int
}

// AlphaEnvironment is an optional extension an Environment may also
// implement to seed newly expanded V-nodes with informed priors instead of
// all-zero action statistics.
type AlphaEnvironment interface {
	Environment

	// HasAlpha reports whether prior-seeding is available (and enabled).
	HasAlpha() bool
	// UpdateAlpha adjusts any internal prior model using real experience
	// Q observed at state S. Optional bookkeeping; most domains no-op it.
	UpdateAlpha(q []float64, s State)
	// Prior seeds per-action visit counts and value vectors for a newly
	// created V-node at state s with history h and rollout status.
	Prior(s State, h *history.History, status *Status) (visits []int, values [][]float64)
}
