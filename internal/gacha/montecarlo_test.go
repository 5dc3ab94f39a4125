package gacha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDeterministic(t *testing.T) {
	p := SimParams{Cases: 5, RollsPerCase: 50, Autorelease: true}
	a, err := Run(fullCatalog(), uniform(0.3), p, NewSeededRNG(42))
	require.NoError(t, err)
	b, err := Run(fullCatalog(), uniform(0.3), p, NewSeededRNG(42))
	require.NoError(t, err)

	require.Equal(t, a.Indices(), b.Indices())
	for _, idx := range a.Indices() {
		ca, _ := a.Case(idx)
		cb, _ := b.Case(idx)
		require.Equal(t, ca, cb, "case %d", idx)
	}
}

func TestRunDrawsEqualRollsWithoutAutorelease(t *testing.T) {
	p := SimParams{Cases: 3, RollsPerCase: 37}
	data, err := Run(fullCatalog(), uniform(0.9), p, NewSeededRNG(1))
	require.NoError(t, err)
	require.Equal(t, 3, data.Len())
	for _, idx := range data.Indices() {
		c, ok := data.Case(idx)
		require.True(t, ok)
		require.Len(t, c, 37)
		for i, snap := range c {
			assert.Equal(t, i+1, snap.Draws)
		}
	}
}

func TestRunTwoCommonNames(t *testing.T) {
	cat := NewCatalog(map[Tier][]string{Common: {"A", "B"}})
	probs := ProbabilitySet{Common: 1.0}
	data, err := Run(cat, probs, SimParams{Cases: 20, RollsPerCase: 4}, NewSeededRNG(5))
	require.NoError(t, err)

	for _, idx := range data.Indices() {
		c, _ := data.Case(idx)
		require.Len(t, c, 4)
		seen := make(map[string]bool)
		for _, snap := range c {
			require.Len(t, snap.Last, 1)
			assert.Equal(t, Common, snap.Last[0].Tier)
			seen[snap.Last[0].Name] = true
			assert.Contains(t, []int{1, 2}, snap.Unique)
			assert.Equal(t, len(seen), snap.Unique)
			assert.Equal(t, 2-len(seen), snap.Missing[Common])
		}
		assert.Equal(t, 4, c[3].Draws)
	}
}

func TestRunAutoreleaseExtraRolls(t *testing.T) {
	// a single name always wins: from the second draw on every draw releases
	// one unit, so N nominal rolls turn into 2N-2 draws
	cat := NewCatalog(map[Tier][]string{Common: {"A"}})
	data, err := Run(cat, ProbabilitySet{Common: 1}, SimParams{Cases: 1, RollsPerCase: 5, Autorelease: true}, NewSeededRNG(1))
	require.NoError(t, err)
	c, _ := data.Case(0)
	draws := make([]int, len(c))
	for i, s := range c {
		draws[i] = s.Draws
	}
	assert.Equal(t, []int{1, 2, 4, 6, 8}, draws)
	assert.Equal(t, 1, c[4].Unique)
	assert.True(t, c[4].Complete())
}

func TestRunRejectsRunawayCredit(t *testing.T) {
	_, err := Run(fullCatalog(), uniform(0.5), SimParams{Cases: 1, RollsPerCase: 1, Autorelease: true}, NewSeededRNG(1))
	assert.ErrorIs(t, err, ErrConfiguration)

	// same probabilities are fine without autorelease
	_, err = Run(fullCatalog(), uniform(0.5), SimParams{Cases: 1, RollsPerCase: 1}, NewSeededRNG(1))
	assert.NoError(t, err)
}

func TestRunRejectsBadParams(t *testing.T) {
	_, err := Run(fullCatalog(), uniform(0.1), SimParams{Cases: -1}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = Run(fullCatalog(), ProbabilitySet{Common: 2}, SimParams{Cases: 1, RollsPerCase: 1}, nil)
	assert.ErrorIs(t, err, ErrInvalidProb)
}

func TestRegisterDuplicateCase(t *testing.T) {
	d := NewSimulationData()
	require.NoError(t, d.Register(3, nil))
	assert.ErrorIs(t, d.Register(3, nil), ErrDuplicateCase)
	assert.Equal(t, []int{3}, d.Indices())
}

func TestSummarizeAndMeanSeries(t *testing.T) {
	d := NewSimulationData()
	require.NoError(t, d.Register(0, Case{
		{Unique: 1, Missing: [NumTiers]int{1}, Draws: 1},
		{Unique: 2, Draws: 2},
	}))
	require.NoError(t, d.Register(1, Case{
		{Unique: 1, Missing: [NumTiers]int{1}, Draws: 1},
		{Unique: 1, Missing: [NumTiers]int{1}, Draws: 3},
	}))

	s := Summarize(d)
	assert.Equal(t, 2, s.Cases)
	assert.Equal(t, 1.5, s.FinalUnique.Mean)
	assert.Equal(t, 2.5, s.Draws.Mean)
	assert.Equal(t, 1, s.CompletedCases)
	assert.Equal(t, 2.0, s.RollsToComplete.P50)

	m := MeanSeries(d)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, []float64{1, 1.5}, m.Unique)
	assert.Equal(t, []float64{1, 0.5}, m.Missing[Common])
}

func TestCalcStats(t *testing.T) {
	s := calcStats([]int{4, 1, 3, 2})
	assert.Equal(t, 4, s.N)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 1.25, s.Var)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.P50)
	assert.Equal(t, Stats{}, calcStats(nil))
}
