package gacha

// Summary aggregates a simulation run across its cases.
type Summary struct {
	Cases           int
	FinalUnique     Stats // unique count after the last nominal roll
	Draws           Stats // rolls performed per case, extra rolls included
	CompletedCases  int
	RollsToComplete Stats // nominal roll at which a completed case first had nothing missing
}

// Summarize computes per-case end-of-run statistics.
func Summarize(d *SimulationData) Summary {
	s := Summary{Cases: d.Len()}
	var finals, draws, complete []int
	for _, idx := range d.Indices() {
		c, _ := d.Case(idx)
		if len(c) == 0 {
			finals = append(finals, 0)
			draws = append(draws, 0)
			continue
		}
		last := c[len(c)-1]
		finals = append(finals, last.Unique)
		draws = append(draws, last.Draws)
		for i, snap := range c {
			if snap.Complete() {
				complete = append(complete, i+1)
				break
			}
		}
	}
	s.FinalUnique = calcStats(finals)
	s.Draws = calcStats(draws)
	s.CompletedCases = len(complete)
	s.RollsToComplete = calcStats(complete)
	return s
}

// Series is the per-nominal-roll mean across cases.
type Series struct {
	Unique      []float64
	Missing     [NumTiers][]float64
	ChanceOfNew [NumTiers][]float64
}

// Len is the number of points in the series.
func (s Series) Len() int { return len(s.Unique) }

// MeanSeries averages every snapshot field by roll index. Cases shorter than
// the longest one only contribute to the points they have.
func MeanSeries(d *SimulationData) Series {
	n := 0
	for _, idx := range d.Indices() {
		c, _ := d.Case(idx)
		if len(c) > n {
			n = len(c)
		}
	}
	var s Series
	s.Unique = make([]float64, n)
	for _, t := range Tiers {
		s.Missing[t] = make([]float64, n)
		s.ChanceOfNew[t] = make([]float64, n)
	}
	counts := make([]int, n)
	for _, idx := range d.Indices() {
		c, _ := d.Case(idx)
		for i, snap := range c {
			counts[i]++
			s.Unique[i] += float64(snap.Unique)
			for _, t := range Tiers {
				s.Missing[t][i] += float64(snap.Missing[t])
				s.ChanceOfNew[t][i] += snap.ChanceOfNew[t]
			}
		}
	}
	for i, k := range counts {
		if k == 0 {
			continue
		}
		f := float64(k)
		s.Unique[i] /= f
		for _, t := range Tiers {
			s.Missing[t][i] /= f
			s.ChanceOfNew[t][i] /= f
		}
	}
	return s
}
