package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

// ValidateRaw checks semantic constraints of a RawScenario.
func ValidateRaw(cfg RawScenario) error {
	var errs []string

	// simulate
	if cfg.Simulate.Cases != nil && *cfg.Simulate.Cases < 0 {
		errs = append(errs, "simulate.cases must be >= 0")
	}
	if cfg.Simulate.Rolls != nil && *cfg.Simulate.Rolls < 0 {
		errs = append(errs, "simulate.rolls must be >= 0")
	}

	// probabilities
	for _, k := range sortedKeys(cfg.Probabilities) {
		if _, ok := gacha.TierFromKey(k); !ok {
			errs = append(errs, fmt.Sprintf("probabilities.%s is not a tier", k))
			continue
		}
		if p := cfg.Probabilities[k]; !(p >= 0 && p <= 1) {
			errs = append(errs, fmt.Sprintf("probabilities.%s must be in [0,1]", k))
		}
	}

	// scale
	for _, k := range sortedKeys(cfg.Scale) {
		if _, ok := gacha.TierFromKey(k); !ok {
			errs = append(errs, fmt.Sprintf("scale.%s is not a tier", k))
			continue
		}
		if f := cfg.Scale[k]; !(f >= 0) {
			errs = append(errs, fmt.Sprintf("scale.%s must be >= 0", k))
		}
		if _, both := cfg.Probabilities[k]; both {
			errs = append(errs, fmt.Sprintf("tier %s has both a probability and a scale", k))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("scenario validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
