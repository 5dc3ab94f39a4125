// Package report renders catalog, estimate and simulation summaries as
// aligned text tables.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
	"github.com/xtding233/pokeslots-stats/internal/results"
	"github.com/xtding233/pokeslots-stats/internal/scenario"
	"github.com/xtding233/pokeslots-stats/internal/slotlog"
)

const timeLayout = "2006-01-02 15:04:05"

// Writer formats numbers with English digit grouping.
type Writer struct {
	w io.Writer
	p *message.Printer
}

func New(w io.Writer) *Writer {
	return &Writer{w: w, p: message.NewPrinter(language.English)}
}

func (r *Writer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
}

// Catalog prints per-tier counts, the total and any duplicate entries.
func (r *Writer) Catalog(cat *gacha.Catalog) error {
	tw := r.table()
	r.p.Fprintf(tw, "rarity\tcount\n")
	sizes := cat.TierSizes()
	for _, t := range gacha.Tiers {
		r.p.Fprintf(tw, "%s\t%d\n", t, sizes[t])
	}
	r.p.Fprintf(tw, "total\t%d\n", cat.Len())
	if err := tw.Flush(); err != nil {
		return err
	}

	dups := cat.Duplicates()
	if len(dups) == 0 {
		return nil
	}
	r.p.Fprintf(r.w, "\nThere are duplicate pokemon entries, these are the 2nd+ entries for each duplicate\n")
	tw = r.table()
	r.p.Fprintf(tw, "name\trarity\n")
	for _, d := range dups {
		r.p.Fprintf(tw, "%s\t%s\n", d.Name, d.Tier)
	}
	return tw.Flush()
}

// Estimate prints the estimated rates with their intervals.
func (r *Writer) Estimate(est *slotlog.Estimate, rejected int) error {
	r.p.Fprintf(r.w, "events: %d (rejected %d)\n", est.Events, rejected)
	r.p.Fprintf(r.w, "range: %s .. %s\n", est.First.Format(timeLayout), est.Last.Format(timeLayout))

	tw := r.table()
	r.p.Fprintf(tw, "rarity\twins\tprobability\t%.0f%% interval\tshiny\tshiny rate\tintercepted\tintercept rate\n",
		est.Confidence*100)
	for _, t := range gacha.Tiers {
		iv := est.Interval[t]
		r.p.Fprintf(tw, "%s\t%d\t%.5f\t[%.5f, %.5f]\t%d\t%.4f\t%d\t%.5f\n",
			t, est.Wins[t], est.Probabilities[t], iv.Lo, iv.Hi,
			est.Shiny[t], est.ShinyRate[t], est.Intercepted[t], est.InterceptRate[t])
	}
	return tw.Flush()
}

// Simulation prints the run parameters and the cross-case summary.
func (r *Writer) Simulation(run scenario.Resolved, probs gacha.ProbabilitySet, catalogSize int, s gacha.Summary) error {
	name := run.Name
	if name == "" {
		name = "-"
	}
	r.p.Fprintf(r.w, "catalog: %d names\n", catalogSize)
	r.p.Fprintf(r.w, "scenario: %s  seed: %d  cases: %d  rolls: %d  autorelease: %t\n",
		name, run.Seed, run.Cases, run.Rolls, run.Autorelease)

	tw := r.table()
	r.p.Fprintf(tw, "rarity\tprobability\n")
	for _, t := range gacha.Tiers {
		r.p.Fprintf(tw, "%s\t%g\n", t, probs[t])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	tw = r.table()
	r.p.Fprintf(tw, "\nmetric\tmean\tstddev\tp50\tp90\tp99\tmin\tmax\n")
	r.stats(tw, "final unique", s.FinalUnique)
	r.stats(tw, "draws", s.Draws)
	r.stats(tw, "rolls to complete", s.RollsToComplete)
	if err := tw.Flush(); err != nil {
		return err
	}
	r.p.Fprintf(r.w, "completed: %d of %d cases\n", s.CompletedCases, s.Cases)
	return nil
}

func (r *Writer) stats(w io.Writer, label string, st gacha.Stats) {
	if st.N == 0 {
		r.p.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t-\n", label)
		return
	}
	r.p.Fprintf(w, "%s\t%.2f\t%.2f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n",
		label, st.Mean, st.StdDev, st.P50, st.P90, st.P99, st.Min, st.Max)
}

// Roll prints one snapshot, for verbose simulations.
func (r *Writer) Roll(caseIdx, rollIdx int, snap gacha.Snapshot) {
	won := "-"
	if len(snap.Last) > 0 {
		parts := make([]string, len(snap.Last))
		for i, w := range snap.Last {
			parts[i] = fmt.Sprintf("%s (%s)", w.Name, w.Tier)
		}
		won = strings.Join(parts, ", ")
	}
	r.p.Fprintf(r.w, "case %d roll %d: %s  unique=%d draws=%d\n", caseIdx, rollIdx+1, won, snap.Unique, snap.Draws)
}

// Runs lists stored simulation runs.
func (r *Writer) Runs(runs []results.Run) error {
	tw := r.table()
	r.p.Fprintf(tw, "id\tcreated\tscenario\tseed\tcases\trolls\tautorelease\n")
	for _, run := range runs {
		r.p.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%t\n",
			run.ID, run.CreatedAt.UTC().Format(timeLayout), orDash(run.Scenario),
			run.Seed, run.Params.Cases, run.Params.RollsPerCase, run.Params.Autorelease)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
