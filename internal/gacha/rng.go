package gacha

import (
	cryptorand "crypto/rand"
	"math/rand/v2"
)

// RandomSource yields uniform values in [0, 1). Roll and Run consume it in a
// fixed order, so equal seeds give equal outcomes.
type RandomSource interface {
	Float64() float64
}

// stream adapts a math/rand/v2 generator. It is not safe for concurrent use.
type stream struct{ r *rand.Rand }

func (s *stream) Float64() float64 { return s.r.Float64() }

// NewSeededRNG returns a reproducible PCG stream for simulations.
func NewSeededRNG(seed uint64) RandomSource {
	return &stream{r: rand.New(rand.NewPCG(seed, 0))}
}

// DefaultRNG returns an unpredictable ChaCha8 stream keyed from crypto/rand,
// used for live rolls when no seed is configured.
func DefaultRNG() RandomSource {
	var key [32]byte
	if _, err := cryptorand.Read(key[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic("gacha: read random key: " + err.Error())
	}
	return &stream{r: rand.New(rand.NewChaCha8(key))}
}

// pick maps one value from rng to an index in [0, n).
func pick(rng RandomSource, n int) int {
	return min(int(rng.Float64()*float64(n)), n-1)
}
