// Package chart draws simulation mean series as PNG line charts.
package chart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

// ErrNoData is returned for a series with no points.
var ErrNoData = errors.New("series has no points")

const (
	UniqueFile  = "unique_count.png"
	MissingFile = "missing_by_tier.png"
	ChanceFile  = "chance_of_new_by_tier.png"
)

var (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

func points(ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(ys))
	for i, y := range ys {
		pts[i].X = float64(i + 1)
		pts[i].Y = y
	}
	return pts
}

func newPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "roll"
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// perTier adds one line per tier, in tier order.
func perTier(p *plot.Plot, series [gacha.NumTiers][]float64) error {
	args := make([]any, 0, 2*gacha.NumTiers)
	for _, t := range gacha.Tiers {
		args = append(args, t.String(), points(series[t]))
	}
	return plotutil.AddLines(p, args...)
}

// UniqueCount plots the mean number of distinct names owned.
func UniqueCount(s gacha.Series, path string) error {
	if s.Len() == 0 {
		return ErrNoData
	}
	p := newPlot("Unique pokemon", "unique")
	if err := plotutil.AddLines(p, "unique", points(s.Unique)); err != nil {
		return err
	}
	return p.Save(width, height, path)
}

// MissingByTier plots the mean count of names not yet owned per tier.
func MissingByTier(s gacha.Series, path string) error {
	if s.Len() == 0 {
		return ErrNoData
	}
	p := newPlot("Missing pokemon by rarity", "missing")
	if err := perTier(p, s.Missing); err != nil {
		return err
	}
	return p.Save(width, height, path)
}

// ChanceOfNewByTier plots the mean chance that the next roll wins a new name
// in each tier.
func ChanceOfNewByTier(s gacha.Series, path string) error {
	if s.Len() == 0 {
		return ErrNoData
	}
	p := newPlot("Chance of a new pokemon by rarity", "chance")
	p.Y.Min = 0
	if err := perTier(p, s.ChanceOfNew); err != nil {
		return err
	}
	return p.Save(width, height, path)
}

// WriteAll renders the three charts into dir and returns their paths.
func WriteAll(dir string, s gacha.Series) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}
	draw := []struct {
		file string
		fn   func(gacha.Series, string) error
	}{
		{UniqueFile, UniqueCount},
		{MissingFile, MissingByTier},
		{ChanceFile, ChanceOfNewByTier},
	}
	paths := make([]string, 0, len(draw))
	for _, d := range draw {
		path := filepath.Join(dir, d.file)
		if err := d.fn(s, path); err != nil {
			return paths, fmt.Errorf("plot %s: %w", d.file, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
