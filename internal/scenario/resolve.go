// resolve.go
package scenario

import (
	"fmt"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

// Overrides carries explicit caller choices (CLI flags, RPC fields); they win
// over the scenario file.
type Overrides struct {
	Cases       *int
	Rolls       *int
	Autorelease *bool
	Seed        *uint64
}

// Resolve layers defaults ← scenario ← overrides into run parameters.
func Resolve(name string, raw RawScenario, defaults Resolved, o Overrides) Resolved {
	out := defaults
	out.Name = name
	out.Version = raw.Version

	if raw.Simulate.Cases != nil {
		out.Cases = *raw.Simulate.Cases
	}
	if raw.Simulate.Rolls != nil {
		out.Rolls = *raw.Simulate.Rolls
	}
	if raw.Simulate.Autorelease != nil {
		out.Autorelease = *raw.Simulate.Autorelease
	}
	if raw.Simulate.Seed != nil {
		out.Seed = *raw.Simulate.Seed
	}

	if o.Cases != nil {
		out.Cases = *o.Cases
	}
	if o.Rolls != nil {
		out.Rolls = *o.Rolls
	}
	if o.Autorelease != nil {
		out.Autorelease = *o.Autorelease
	}
	if o.Seed != nil {
		out.Seed = *o.Seed
	}
	return out
}

// Params converts the resolved run into engine parameters.
func (r Resolved) Params() gacha.SimParams {
	return gacha.SimParams{Cases: r.Cases, RollsPerCase: r.Rolls, Autorelease: r.Autorelease}
}

// ApplyProbabilities returns base with the scenario's replacements and
// scales applied. A scaled rate above 1 is an error.
func ApplyProbabilities(raw RawScenario, base gacha.ProbabilitySet) (gacha.ProbabilitySet, error) {
	out := base
	for k, p := range raw.Probabilities {
		t, ok := gacha.TierFromKey(k)
		if !ok {
			return base, fmt.Errorf("unknown tier %q", k)
		}
		out[t] = p
	}
	for k, f := range raw.Scale {
		t, ok := gacha.TierFromKey(k)
		if !ok {
			return base, fmt.Errorf("unknown tier %q", k)
		}
		out[t] = base[t] * f
	}
	if err := out.Validate(); err != nil {
		return base, fmt.Errorf("scenario probabilities: %w", err)
	}
	return out, nil
}
