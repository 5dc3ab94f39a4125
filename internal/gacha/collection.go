package gacha

// Collection counts owned units per item name. Present entries are >= 1.
type Collection struct {
	owned map[string]int
}

func NewCollection() *Collection {
	return &Collection{owned: make(map[string]int)}
}

// Extend adds one unit for every name in the outcome.
func (c *Collection) Extend(o Outcome) {
	for _, w := range o {
		c.owned[w.Name]++
	}
}

// Count returns the owned units of name (0 when absent).
func (c *Collection) Count(name string) int { return c.owned[name] }

// UniqueCount is the number of distinct owned names.
func (c *Collection) UniqueCount() int { return len(c.owned) }

// MissingByTier counts, per tier, catalog names not owned.
// Duplicate catalog rows are counted once per row.
func (c *Collection) MissingByTier(cat *Catalog) [NumTiers]int {
	var out [NumTiers]int
	for _, t := range Tiers {
		for _, n := range cat.Names(t) {
			if c.owned[n] == 0 {
				out[t]++
			}
		}
	}
	return out
}

// ChanceOfNewByTier is, per tier, the probability that the next roll awards a
// name not yet owned: missing/size * p. A tier that cannot win (p == 0) with an
// empty catalog list reports 0; an empty list with p > 0 is a ConfigurationError.
func (c *Collection) ChanceOfNewByTier(cat *Catalog, probs ProbabilitySet) ([NumTiers]float64, error) {
	var out [NumTiers]float64
	missing := c.MissingByTier(cat)
	for _, t := range Tiers {
		size := len(cat.Names(t))
		if size == 0 {
			if probs[t] > 0 {
				return out, &ConfigurationError{Tier: t, Reason: "chance of new over an empty catalog list"}
			}
			continue
		}
		out[t] = float64(missing[t]) / float64(size) * probs[t]
	}
	return out, nil
}

// Autorelease drops every count above 1 back to 1 and returns the number of
// units released.
func (c *Collection) Autorelease() int {
	released := 0
	for name, n := range c.owned {
		if n > 1 {
			released += n - 1
			c.owned[name] = 1
		}
	}
	return released
}
