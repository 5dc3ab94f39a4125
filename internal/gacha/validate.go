package gacha

import (
	"fmt"
	"math"
)

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}

// Validate checks every tier probability is within [0,1].
func (ps ProbabilitySet) Validate() error {
	for _, t := range Tiers {
		if err := validateProb(ps[t]); err != nil {
			return fmt.Errorf("%s probability %v: %w", t.Key(), ps[t], err)
		}
	}
	return nil
}

// CheckRollable reports a ConfigurationError for any tier that can win but has
// nothing to award.
func CheckRollable(cat *Catalog, probs ProbabilitySet) error {
	if cat == nil {
		return &ConfigurationError{Tier: Common, Reason: "catalog is nil"}
	}
	for _, t := range Tiers {
		if probs[t] > 0 && len(cat.Names(t)) == 0 {
			return &ConfigurationError{Tier: t, Reason: fmt.Sprintf("probability %v but no names in catalog", probs[t])}
		}
	}
	return nil
}
