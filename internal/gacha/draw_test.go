package gacha

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawBounds(t *testing.T) {
	got, err := Draw(0, NewSeededRNG(1))
	require.NoError(t, err)
	assert.False(t, got, "p=0 should never hit")

	got, err = Draw(1, NewSeededRNG(1))
	require.NoError(t, err)
	assert.True(t, got, "p=1 should always hit")

	for _, p := range []float64{-0.1, 1.1, math.NaN(), math.Inf(1)} {
		_, err := Draw(p, nil)
		assert.ErrorIs(t, err, ErrInvalidProb, "p=%v", p)
	}
}

func TestDrawStatApprox(t *testing.T) {
	const p = 0.3
	const n = 100000
	rng := NewSeededRNG(42)
	hit := 0
	for i := 0; i < n; i++ {
		ok, err := Draw(p, rng)
		require.NoError(t, err)
		if ok {
			hit++
		}
	}
	// should be around 0.3
	assert.InDelta(t, p, float64(hit)/float64(n), 0.01)
}

func TestDrawAlwaysConsumesOneValue(t *testing.T) {
	a, b := NewSeededRNG(7), NewSeededRNG(7)
	for _, p := range []float64{0, 1, 0.5} {
		_, err := Draw(p, a)
		require.NoError(t, err)
		b.Float64()
	}
	assert.Equal(t, b.Float64(), a.Float64())
}

func TestPickInRange(t *testing.T) {
	rng := NewSeededRNG(3)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		k := pick(rng, 4)
		require.GreaterOrEqual(t, k, 0)
		require.Less(t, k, 4)
		seen[k] = true
	}
	assert.Len(t, seen, 4)
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestPickClampsTopValue(t *testing.T) {
	assert.Equal(t, 0, pick(fixedSource(0), 3))
	assert.Equal(t, 2, pick(fixedSource(math.Nextafter(1, 0)), 3))
	assert.Equal(t, 0, pick(fixedSource(0.5), 1))
}

func TestDefaultRNGStreamsAreIndependent(t *testing.T) {
	a, b := DefaultRNG(), DefaultRNG()
	same := true
	for i := 0; i < 8; i++ {
		x, y := a.Float64(), b.Float64()
		assert.True(t, x >= 0 && x < 1)
		if x != y {
			same = false
		}
	}
	assert.False(t, same, "two unseeded streams produced identical values")
}
