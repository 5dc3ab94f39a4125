package gacha

// Win is one tier's award within a roll.
type Win struct {
	Tier Tier   `json:"tier"`
	Name string `json:"name"`
}

// Outcome is the result of one roll: at most one win per tier, in tier order.
type Outcome []Win

// Names returns the won item names.
func (o Outcome) Names() []string {
	out := make([]string, len(o))
	for i, w := range o {
		out[i] = w.Name
	}
	return out
}

// Roll draws every tier once, Common through UltraBeast.
// Per tier it consumes one value for the hit test and, on a hit, one more to
// choose the name. The order is fixed so a seeded rng replays exactly.
func Roll(cat *Catalog, probs ProbabilitySet, rng RandomSource) (Outcome, error) {
	if err := CheckRollable(cat, probs); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return roll(cat, probs, rng)
}

// roll skips the configuration checks; callers validate once up front.
func roll(cat *Catalog, probs ProbabilitySet, rng RandomSource) (Outcome, error) {
	var out Outcome
	for _, t := range Tiers {
		hit, err := Draw(probs[t], rng)
		if err != nil {
			return nil, err
		}
		if !hit {
			continue
		}
		names := cat.Names(t)
		out = append(out, Win{Tier: t, Name: names[pick(rng, len(names))]})
	}
	return out, nil
}
