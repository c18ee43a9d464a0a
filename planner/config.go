package planner

import (
	"github.com/pkg/errors"

	"github.com/fairpomcp/planner/config"
	"github.com/fairpomcp/planner/welfare"
)

// Config holds every tunable recognized by the planner. NewConfigFromParams
// starts from DefaultConfig and applies overrides popped out of
// params, mirroring how the teacher's searchers build up a Searcher from
// parameters.Params in players_params.go.
type Config struct {
	NumSimulations int
	NumStartStates int
	MaxDepth       int
	ExpandCount    int

	UseTransforms bool
	NumTransforms int
	MaxAttempts   int

	ExplorationConstant float64
	AutoExploration     bool

	Strategy         welfare.Strategy
	ImportanceWeight []float64
	ConsiderPast     bool

	DisableTree bool

	// ActionSelector, when set, overrides the final root action choice:
	// instead of the deterministic greedy-UCB argmax, it is handed the
	// root's per-action mean Q-vectors plus ImportanceWeight (or a uniform
	// fallback) and must return a probability distribution over actions,
	// which SelectAction then samples from. lpsolve.Select implements this
	// signature as the GGF-maximizing alternative; nil keeps the default
	// greedy-UCB behavior.
	ActionSelector func(qValues [][]float64, weights []float64) ([]float64, error)

	// RAVE fields are accepted for configuration compatibility but are
	// no-ops in this planner; the reference path never exercises them.
	UseRave      bool
	RaveDiscount float64
	RaveConstant float64
}

// DefaultConfig returns the planner's baseline configuration, matching the
// reference implementation's PARAMS constructor defaults.
func DefaultConfig() Config {
	return Config{
		NumSimulations:      1000,
		NumStartStates:      1000,
		MaxDepth:            100,
		ExpandCount:         1,
		UseTransforms:       true,
		NumTransforms:       0,
		MaxAttempts:         0,
		ExplorationConstant: 1,
		AutoExploration:     false,
		Strategy:            welfare.GGFStrategy,
		ConsiderPast:        true,
		DisableTree:         false,
		UseRave:             false,
		RaveDiscount:        1.0,
		RaveConstant:        0.01,
	}
}

// NewConfigFromParams overlays DefaultConfig with any recognized keys
// present in params, popping each one it consumes.
func NewConfigFromParams(params config.Params) (Config, error) {
	cfg := DefaultConfig()
	var err error

	cfg.NumSimulations, err = config.PopOr(params, "numsimulations", cfg.NumSimulations)
	if err != nil {
		return cfg, err
	}
	cfg.NumStartStates, err = config.PopOr(params, "numstartstates", cfg.NumStartStates)
	if err != nil {
		return cfg, err
	}
	cfg.MaxDepth, err = config.PopOr(params, "maxdepth", cfg.MaxDepth)
	if err != nil {
		return cfg, err
	}
	cfg.ExpandCount, err = config.PopOr(params, "expandcount", cfg.ExpandCount)
	if err != nil {
		return cfg, err
	}
	cfg.UseTransforms, err = config.PopOr(params, "usetransforms", cfg.UseTransforms)
	if err != nil {
		return cfg, err
	}
	cfg.NumTransforms, err = config.PopOr(params, "numtransforms", cfg.NumTransforms)
	if err != nil {
		return cfg, err
	}
	cfg.MaxAttempts, err = config.PopOr(params, "maxattempts", cfg.MaxAttempts)
	if err != nil {
		return cfg, err
	}
	cfg.ExplorationConstant, err = config.PopOr(params, "exploration", cfg.ExplorationConstant)
	if err != nil {
		return cfg, err
	}
	cfg.AutoExploration, err = config.PopOr(params, "autoexploration", cfg.AutoExploration)
	if err != nil {
		return cfg, err
	}
	strategy, err := config.PopOr(params, "strategy", string(cfg.Strategy))
	if err != nil {
		return cfg, err
	}
	switch welfare.Strategy(strategy) {
	case welfare.GGFStrategy, welfare.WSStrategy:
		cfg.Strategy = welfare.Strategy(strategy)
	default:
		return cfg, errors.Errorf("unrecognized strategy %q, expected GGF or WS", strategy)
	}
	cfg.ConsiderPast, err = config.PopOr(params, "considerpast", cfg.ConsiderPast)
	if err != nil {
		return cfg, err
	}
	cfg.DisableTree, err = config.PopOr(params, "disabletree", cfg.DisableTree)
	if err != nil {
		return cfg, err
	}
	cfg.UseRave, err = config.PopOr(params, "userave", cfg.UseRave)
	if err != nil {
		return cfg, err
	}
	cfg.RaveDiscount, err = config.PopOr(params, "ravediscount", cfg.RaveDiscount)
	if err != nil {
		return cfg, err
	}
	cfg.RaveConstant, err = config.PopOr(params, "raveconstant", cfg.RaveConstant)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}
