package gacha

// Draw under p, return if it is hit.
// One value is always consumed from rng so that the stream stays aligned
// across tiers regardless of p. p == 0 never hits; otherwise hit when r <= p.

func Draw(p float64, rng RandomSource) (bool, error) {
	if err := validateProb(p); err != nil {
		return false, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	r := rng.Float64()
	if p <= 0 {
		return false, nil
	}
	return r <= p, nil
}
