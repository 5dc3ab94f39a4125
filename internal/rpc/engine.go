// Package rpc serves the roll engine and the simulation driver over gRPC and
// plain HTTP.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
	"github.com/xtding233/pokeslots-stats/internal/logger"
	"github.com/xtding233/pokeslots-stats/internal/metrics"
	"github.com/xtding233/pokeslots-stats/internal/results"
	"github.com/xtding233/pokeslots-stats/internal/scenario"
)

var (
	ErrBadRequest       = errors.New("bad request")
	ErrScenarioDisabled = errors.New("scenarios are not configured")
)

// Options configures an Engine.
type Options struct {
	Catalog       *gacha.Catalog
	Probabilities gacha.ProbabilitySet
	RNG           gacha.RandomSource // used by Roll; nil means crypto random
	Scenarios     *scenario.Loader   // optional
	Store         *results.Store     // optional; simulations are saved when set
	MaxRolls      int                // cap on rolls per Roll call and on cases*rolls per Simulate
	Defaults      scenario.Resolved  // simulation parameters when nothing overrides them
}

// Engine holds the live catalog and probabilities. Roll shares one rng and is
// serialized; simulations get their own seeded rng.
type Engine struct {
	mu    sync.Mutex
	cat   *gacha.Catalog
	probs gacha.ProbabilitySet
	rng   gacha.RandomSource

	scenarios *scenario.Loader
	store     *results.Store
	maxRolls  int
	defaults  scenario.Resolved
}

func NewEngine(o Options) (*Engine, error) {
	if err := o.Probabilities.Validate(); err != nil {
		return nil, err
	}
	if err := gacha.CheckRollable(o.Catalog, o.Probabilities); err != nil {
		return nil, err
	}
	if o.RNG == nil {
		o.RNG = gacha.DefaultRNG()
	}
	if o.MaxRolls <= 0 {
		o.MaxRolls = 100000
	}
	metrics.SetProbabilities(o.Probabilities)
	return &Engine{
		cat:       o.Catalog,
		probs:     o.Probabilities,
		rng:       o.RNG,
		scenarios: o.Scenarios,
		store:     o.Store,
		maxRolls:  o.MaxRolls,
		defaults:  o.Defaults,
	}, nil
}

// Probabilities returns the active probability set.
func (e *Engine) Probabilities() gacha.ProbabilitySet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.probs
}

// Reload swaps in a new probability set if the catalog can roll it.
func (e *Engine) Reload(ps gacha.ProbabilitySet) error {
	err := ps.Validate()
	if err == nil {
		err = gacha.CheckRollable(e.cat, ps)
	}
	metrics.RecordReload(err)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.probs = ps
	e.mu.Unlock()
	metrics.SetProbabilities(ps)
	logger.WithFields(logger.Fields{"probabilities": ps}).Info("probabilities reloaded")
	return nil
}

// Roll performs n independent rolls.
func (e *Engine) Roll(n int) ([]gacha.Outcome, error) {
	if n < 1 || n > e.maxRolls {
		return nil, fmt.Errorf("%w: count must be in [1,%d], got %d", ErrBadRequest, e.maxRolls, n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]gacha.Outcome, 0, n)
	for i := 0; i < n; i++ {
		o, err := gacha.Roll(e.cat, e.probs, e.rng)
		if err != nil {
			return nil, err
		}
		metrics.RecordOutcome(o)
		out = append(out, o)
	}
	return out, nil
}

// SimulateRequest names an optional scenario and explicit overrides.
type SimulateRequest struct {
	Scenario  string
	Overrides scenario.Overrides
}

// SimulateResult is a finished simulation.
type SimulateResult struct {
	Run           scenario.Resolved
	Probabilities gacha.ProbabilitySet
	Summary       gacha.Summary
	RunID         string // set when the run was stored
}

// Simulate runs the Monte Carlo driver with a seeded rng of its own.
func (e *Engine) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error) {
	e.mu.Lock()
	cat, probs := e.cat, e.probs
	e.mu.Unlock()

	raw := scenario.RawScenario{}
	if req.Scenario != "" {
		if e.scenarios == nil {
			return nil, ErrScenarioDisabled
		}
		var err error
		raw, err = e.scenarios.LoadMerged(req.Scenario)
		if err != nil {
			return nil, err
		}
		if probs, err = scenario.ApplyProbabilities(raw, probs); err != nil {
			return nil, err
		}
	}
	run := scenario.Resolve(req.Scenario, raw, e.defaults, req.Overrides)
	if !withinCap(run.Cases, run.Rolls, e.maxRolls) {
		return nil, fmt.Errorf("%w: cases, rolls and cases*rolls must be in [0,%d], got %d*%d",
			ErrBadRequest, e.maxRolls, run.Cases, run.Rolls)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := gacha.Run(cat, probs, run.Params(), gacha.NewSeededRNG(run.Seed))
	if err != nil {
		return nil, err
	}
	summary := gacha.Summarize(data)
	metrics.RecordSimulation(summary.Cases, totalDraws(data))

	res := &SimulateResult{Run: run, Probabilities: probs, Summary: summary}
	if e.store != nil {
		saved, err := e.store.SaveRun(ctx, results.Run{
			Scenario:      run.Name,
			Seed:          run.Seed,
			Params:        run.Params(),
			Probabilities: probs,
			CatalogSize:   cat.Len(),
		}, data)
		if err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		res.RunID = saved.ID
	}
	return res, nil
}

// withinCap reports whether cases, rolls and cases*rolls all lie in
// [0,limit], without computing a product that could overflow.
func withinCap(cases, rolls, limit int) bool {
	if cases < 0 || rolls < 0 || cases > limit || rolls > limit {
		return false
	}
	return rolls == 0 || cases <= limit/rolls
}

func totalDraws(d *gacha.SimulationData) int {
	n := 0
	for _, idx := range d.Indices() {
		if c, _ := d.Case(idx); len(c) > 0 {
			n += c[len(c)-1].Draws
		}
	}
	return n
}
