package gacha

import (
	"fmt"
	"math"
	"sort"
)

// SimParams describes one simulation run.
type SimParams struct {
	Cases        int  // independent cases, run in index order
	RollsPerCase int  // nominal rolls per case
	Autorelease  bool // recycle duplicates into extra roll credit
}

// Snapshot is the state of a case after one nominal roll and all the extra
// rolls its credit paid for.
type Snapshot struct {
	Unique      int               `json:"unique"`
	Missing     [NumTiers]int     `json:"missing"`
	ChanceOfNew [NumTiers]float64 `json:"chance_of_new"`
	Draws       int               `json:"draws"` // rolls performed so far in this case
	Last        Outcome           `json:"last,omitempty"`
}

// Complete reports whether nothing is missing in any tier.
func (s Snapshot) Complete() bool {
	for _, m := range s.Missing {
		if m > 0 {
			return false
		}
	}
	return true
}

// Case is the time series of one simulated run, one snapshot per nominal roll.
type Case []Snapshot

// SimulationData maps case index to its series. Indices are unique.
type SimulationData struct {
	cases map[int]Case
	order []int
}

func NewSimulationData() *SimulationData {
	return &SimulationData{cases: make(map[int]Case)}
}

// Register stores a case under idx; an index can only be registered once.
func (d *SimulationData) Register(idx int, c Case) error {
	if _, ok := d.cases[idx]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateCase, idx)
	}
	d.cases[idx] = c
	d.order = append(d.order, idx)
	return nil
}

// Case returns the series registered under idx.
func (d *SimulationData) Case(idx int) (Case, bool) {
	c, ok := d.cases[idx]
	return c, ok
}

// Indices returns case indices in registration order.
func (d *SimulationData) Indices() []int {
	return append([]int(nil), d.order...)
}

func (d *SimulationData) Len() int { return len(d.order) }

// maxExpectedWins bounds the expected wins per roll under autorelease. Once a
// collection is complete every win is a released unit, so at 2 or more the
// credit never drains.
const maxExpectedWins = 2.0

func checkParams(cat *Catalog, probs ProbabilitySet, p SimParams) error {
	if p.Cases < 0 {
		return fmt.Errorf("%w: cases must be >= 0, got %d", ErrConfiguration, p.Cases)
	}
	if p.RollsPerCase < 0 {
		return fmt.Errorf("%w: rolls per case must be >= 0, got %d", ErrConfiguration, p.RollsPerCase)
	}
	if err := probs.Validate(); err != nil {
		return err
	}
	if err := CheckRollable(cat, probs); err != nil {
		return err
	}
	if p.Autorelease {
		sum := 0.0
		for _, v := range probs {
			sum += v
		}
		if sum >= maxExpectedWins {
			return fmt.Errorf("%w: expected wins per roll %.3f >= %.0f, autorelease credit would never drain",
				ErrConfiguration, sum, maxExpectedWins)
		}
	}
	return nil
}

// Run simulates p.Cases cases of p.RollsPerCase nominal rolls each, all on the
// same rng stream, case 0 first.
func Run(cat *Catalog, probs ProbabilitySet, p SimParams, rng RandomSource) (*SimulationData, error) {
	if err := checkParams(cat, probs, p); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	data := NewSimulationData()
	for i := 0; i < p.Cases; i++ {
		c, err := simulateCase(cat, probs, p, rng)
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i, err)
		}
		if err := data.Register(i, c); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// simulateCase runs one case:
//   - each nominal roll adds one roll of credit
//   - while credit covers a roll: spend, roll, extend, and under autorelease
//     release duplicates back into credit
//   - then record one snapshot with the last outcome rolled
func simulateCase(cat *Catalog, probs ProbabilitySet, p SimParams, rng RandomSource) (Case, error) {
	coll := NewCollection()
	var credits Credits
	series := make(Case, 0, p.RollsPerCase)
	draws := 0
	for i := 0; i < p.RollsPerCase; i++ {
		credits.AddRoll()
		var last Outcome
		for credits.Spend() {
			out, err := roll(cat, probs, rng)
			if err != nil {
				return nil, err
			}
			draws++
			coll.Extend(out)
			if p.Autorelease {
				credits.AddReleased(coll.Autorelease())
			}
			last = out
		}
		chance, err := coll.ChanceOfNewByTier(cat, probs)
		if err != nil {
			return nil, err
		}
		series = append(series, Snapshot{
			Unique:      coll.UniqueCount(),
			Missing:     coll.MissingByTier(cat),
			ChanceOfNew: chance,
			Draws:       draws,
			Last:        last,
		})
	}
	return series, nil
}

// Stats summarizes integer samples.
type Stats struct {
	N      int
	Mean   float64
	Var    float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P90    float64
	P99    float64
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	// mean
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	// percentiles
	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(pos)
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		N:       n,
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		Min:     float64(cp[0]),
		Max:     float64(cp[n-1]),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}
