package slotlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

// InterceptedCell is written for a stolen tier in the results table.
const InterceptedCell = "intercepted"

// WriteResults writes one row per event: timestamp, then one cell per tier
// holding the item won, InterceptedCell, or nothing.
func WriteResults(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, gacha.NumTiers+1)
	header = append(header, "timestamp")
	for _, t := range gacha.Tiers {
		header = append(header, t.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, gacha.NumTiers+1)
	for _, ev := range events {
		row[0] = ev.Time.Format(TimeLayout)
		for _, t := range gacha.Tiers {
			r := ev.Results[t]
			switch {
			case r.Won():
				row[t+1] = r.Item
			case r.Intercepted:
				row[t+1] = InterceptedCell
			default:
				row[t+1] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsFile writes the results table to path.
func WriteResultsFile(path string, events []Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	if err := WriteResults(f, events); err != nil {
		f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}
