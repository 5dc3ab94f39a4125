package slotlog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

// TimeRange keeps events with From <= t < To. A zero bound is open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// Select sorts events by time and keeps those in r. The input is not modified.
func Select(events []Event, r TimeRange) []Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int { return a.Time.Compare(b.Time) })
	out := sorted[:0]
	for _, ev := range sorted {
		if r.Contains(ev.Time) {
			out = append(out, ev)
		}
	}
	return out
}

// Tally holds the raw counts behind an estimate.
type Tally struct {
	Events      int
	First, Last time.Time
	Wins        [gacha.NumTiers]int
	Shiny       [gacha.NumTiers]int
	Intercepted [gacha.NumTiers]int
}

// Count tallies events, which must already be sorted and filtered.
func Count(events []Event, shinyMarker string) Tally {
	var t Tally
	t.Events = len(events)
	if len(events) > 0 {
		t.First = events[0].Time
		t.Last = events[len(events)-1].Time
	}
	for _, ev := range events {
		for _, tier := range gacha.Tiers {
			r := ev.Results[tier]
			if r.Won() {
				t.Wins[tier]++
				if shinyMarker != "" && strings.Contains(r.Item, shinyMarker) {
					t.Shiny[tier]++
				}
			}
			if r.Intercepted {
				t.Intercepted[tier]++
			}
		}
	}
	return t
}

func (t Tally) perEvent(n int, tier gacha.Tier, what string) (float64, error) {
	if t.Events == 0 {
		return 0, fmt.Errorf("%w: %s %s rate: %w", ErrEmptyDataset, tier, what, ErrDivisionUndefined)
	}
	return float64(n) / float64(t.Events), nil
}

// WinRate is wins / events for the tier.
func (t Tally) WinRate(tier gacha.Tier) (float64, error) {
	return t.perEvent(t.Wins[tier], tier, "win")
}

// InterceptRate is intercepted / events for the tier.
func (t Tally) InterceptRate(tier gacha.Tier) (float64, error) {
	return t.perEvent(t.Intercepted[tier], tier, "intercept")
}

// ShinyRate is shiny wins / wins for the tier, 0 when the tier never won.
func (t Tally) ShinyRate(tier gacha.Tier) float64 {
	if t.Wins[tier] == 0 {
		return 0
	}
	return float64(t.Shiny[tier]) / float64(t.Wins[tier])
}

// Interval is a two-sided confidence interval.
type Interval struct {
	Lo, Hi float64
}

// DefaultConfidence is the coverage of estimated win-rate intervals.
const DefaultConfidence = 0.95

// clopperPearson returns the exact binomial interval for k successes in n.
func clopperPearson(k, n int, confidence float64) Interval {
	if n <= 0 {
		return Interval{0, 1}
	}
	alpha := 1 - confidence
	var ci Interval
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return ci
}

// Estimate is the derived probability set plus the statistics around it.
type Estimate struct {
	Tally
	Probabilities gacha.ProbabilitySet
	ShinyRate     [gacha.NumTiers]float64
	InterceptRate [gacha.NumTiers]float64
	Interval      [gacha.NumTiers]Interval
	Confidence    float64
}

// EstimateProbabilities sorts, filters, and tallies events, then derives the
// per-tier rates. It fails with ErrEmptyDataset when nothing is in range.
// The selected events are returned for the results table.
func EstimateProbabilities(events []Event, r TimeRange, shinyMarker string) (*Estimate, []Event, error) {
	selected := Select(events, r)
	t := Count(selected, shinyMarker)
	est := &Estimate{Tally: t, Confidence: DefaultConfidence}
	for _, tier := range gacha.Tiers {
		p, err := t.WinRate(tier)
		if err != nil {
			return nil, selected, err
		}
		ip, err := t.InterceptRate(tier)
		if err != nil {
			return nil, selected, err
		}
		est.Probabilities[tier] = p
		est.InterceptRate[tier] = ip
		est.ShinyRate[tier] = t.ShinyRate(tier)
		est.Interval[tier] = clopperPearson(t.Wins[tier], t.Events, est.Confidence)
	}
	return est, selected, nil
}
