package gacha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullCatalog() *Catalog {
	return NewCatalog(map[Tier][]string{
		Common:     {"Pidgey", "Rattata", "Caterpie"},
		Uncommon:   {"Pikachu", "Eevee"},
		Rare:       {"Dratini"},
		VeryRare:   {"Lapras", "Snorlax"},
		Legendary:  {"Mewtwo"},
		UltraBeast: {"Nihilego"},
	})
}

func uniform(p float64) ProbabilitySet {
	var ps ProbabilitySet
	for _, t := range Tiers {
		ps[t] = p
	}
	return ps
}

func TestRollNoWinsAtZero(t *testing.T) {
	rng := NewSeededRNG(1)
	for i := 0; i < 100; i++ {
		out, err := Roll(fullCatalog(), uniform(0), rng)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestRollOneWinPerTierAtOne(t *testing.T) {
	cat := fullCatalog()
	rng := NewSeededRNG(1)
	for i := 0; i < 100; i++ {
		out, err := Roll(cat, uniform(1), rng)
		require.NoError(t, err)
		require.Len(t, out, NumTiers)
		for j, w := range out {
			assert.Equal(t, Tiers[j], w.Tier)
			assert.Contains(t, cat.Names(w.Tier), w.Name)
		}
	}
}

func TestRollAtMostOnePerTier(t *testing.T) {
	rng := NewSeededRNG(9)
	for i := 0; i < 500; i++ {
		out, err := Roll(fullCatalog(), uniform(0.5), rng)
		require.NoError(t, err)
		seen := make(map[Tier]bool)
		for _, w := range out {
			assert.False(t, seen[w.Tier], "tier %s won twice", w.Tier)
			seen[w.Tier] = true
		}
	}
}

func TestRollEmptyTierWithProbability(t *testing.T) {
	cat := NewCatalog(map[Tier][]string{Common: {"A"}})
	probs := ProbabilitySet{Common: 1, Legendary: 0.1}

	_, err := Roll(cat, probs, NewSeededRNG(1))
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, Legendary, cerr.Tier)
	assert.ErrorIs(t, err, ErrConfiguration)

	// an empty tier that cannot win is fine
	probs[Legendary] = 0
	out, err := Roll(cat, probs, NewSeededRNG(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, out.Names())
}

func TestRollReplaysWithSameSeed(t *testing.T) {
	a, b := NewSeededRNG(123), NewSeededRNG(123)
	for i := 0; i < 200; i++ {
		x, err := Roll(fullCatalog(), uniform(0.4), a)
		require.NoError(t, err)
		y, err := Roll(fullCatalog(), uniform(0.4), b)
		require.NoError(t, err)
		require.Equal(t, x, y)
	}
}
