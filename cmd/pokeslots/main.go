package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/xtding233/pokeslots-stats/internal/chart"
	"github.com/xtding233/pokeslots-stats/internal/config"
	"github.com/xtding233/pokeslots-stats/internal/gacha"
	"github.com/xtding233/pokeslots-stats/internal/logger"
	"github.com/xtding233/pokeslots-stats/internal/report"
	"github.com/xtding233/pokeslots-stats/internal/results"
	"github.com/xtding233/pokeslots-stats/internal/scenario"
	"github.com/xtding233/pokeslots-stats/internal/slotlog"
)

const usage = `usage: pokeslots [-config file] <command> [flags] [args]

commands:
  pokemon_info   <catalog.csv>                      list information on the given pokemon catalog
  simulate       <catalog.csv> <probabilities.json>  simulate rolls and collection growth
  estimate_stats <log.json>                         estimate tier probabilities from a chat export
  runs           -db <results.db> [-id ID]           list stored simulation runs
`

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("pokeslots", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "config file (yaml)")
	if err := global.Parse(args); err != nil {
		return 1
	}
	if global.NArg() == 0 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.SetOutput(stderr)

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "pokemon_info":
		err = pokemonInfo(rest, stdout, stderr)
	case "simulate":
		err = simulate(cfg, rest, stdout, stderr)
	case "estimate_stats":
		err = estimateStats(cfg, rest, stdout, stderr)
	case "runs":
		err = listRuns(cfg, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Invalid command: %s\n", cmd)
		fmt.Fprint(stderr, usage)
		return 1
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 1
	default:
		logger.Error("%s: %v", cmd, err)
		return 1
	}
}

func newFlagSet(name string, stderr io.Writer, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: pokeslots %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// positional checks the argument count after flag parsing.
func positional(fs *flag.FlagSet, n int) ([]string, error) {
	if fs.NArg() != n {
		fs.Usage()
		return nil, errUsage
	}
	return fs.Args(), nil
}

func pokemonInfo(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("pokemon_info", stderr, "<catalog.csv>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 1)
	if err != nil {
		return err
	}
	cat, err := gacha.LoadCatalogFile(pos[0])
	if err != nil {
		return err
	}
	return report.New(stdout).Catalog(cat)
}

func simulate(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("simulate", stderr, "<catalog.csv> <probabilities.json>")
	seed := fs.Uint64("rng_seed", cfg.Simulate.Seed, "random generator seed")
	rolls := fs.Int("num_rolls", cfg.Simulate.RollsPerCase, "nominal rolls per case")
	cases := fs.Int("num_cases", cfg.Simulate.Cases, "number of independent cases")
	autorelease := fs.Bool("autorelease", cfg.Simulate.Autorelease, "release duplicates for extra roll credit")
	plotDir := fs.String("plot_dir", "", "write PNG charts to this directory")
	dbPath := fs.String("db", cfg.Results.DBPath, "store the run in this SQLite database")
	scenarioName := fs.String("scenario", "", "scenario name")
	scenarioDir := fs.String("scenario_dir", cfg.Server.ScenarioDir, "scenario directory")
	verbose := fs.Bool("verbose", false, "print every roll")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 2)
	if err != nil {
		return err
	}

	// only flags given on the command line override the scenario
	var o scenario.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rng_seed":
			o.Seed = seed
		case "num_rolls":
			o.Rolls = rolls
		case "num_cases":
			o.Cases = cases
		case "autorelease":
			o.Autorelease = autorelease
		}
	})

	cat, err := gacha.LoadCatalogFile(pos[0])
	if err != nil {
		return err
	}
	probs, err := gacha.LoadProbabilities(pos[1])
	if err != nil {
		return err
	}

	var raw scenario.RawScenario
	if *scenarioName != "" {
		if *scenarioDir == "" {
			return fmt.Errorf("-scenario needs -scenario_dir")
		}
		raw, err = scenario.NewLoader(*scenarioDir).LoadMerged(*scenarioName)
		if err != nil {
			return err
		}
		if probs, err = scenario.ApplyProbabilities(raw, probs); err != nil {
			return err
		}
	}
	defaults := scenario.Resolved{
		Cases:       cfg.Simulate.Cases,
		Rolls:       cfg.Simulate.RollsPerCase,
		Autorelease: cfg.Simulate.Autorelease,
		Seed:        cfg.Simulate.Seed,
	}
	runCfg := scenario.Resolve(*scenarioName, raw, defaults, o)
	logger.WithFields(logger.Fields{
		"scenario": runCfg.Name, "seed": runCfg.Seed, "cases": runCfg.Cases,
		"rolls": runCfg.Rolls, "autorelease": runCfg.Autorelease,
	}).Debug("simulation starting")

	data, err := gacha.Run(cat, probs, runCfg.Params(), gacha.NewSeededRNG(runCfg.Seed))
	if err != nil {
		return err
	}

	out := report.New(stdout)
	if *verbose {
		for _, idx := range data.Indices() {
			c, _ := data.Case(idx)
			for i, snap := range c {
				out.Roll(idx, i, snap)
			}
		}
	}
	if err := out.Simulation(runCfg, probs, cat.Len(), gacha.Summarize(data)); err != nil {
		return err
	}

	if *plotDir != "" {
		paths, err := chart.WriteAll(*plotDir, gacha.MeanSeries(data))
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(stdout, "wrote %s\n", p)
		}
	}

	if *dbPath != "" {
		store, err := results.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		saved, err := store.SaveRun(context.Background(), results.Run{
			Scenario:      runCfg.Name,
			Seed:          runCfg.Seed,
			Params:        runCfg.Params(),
			Probabilities: probs,
			CatalogSize:   cat.Len(),
		}, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "run id: %s\n", saved.ID)
	}
	return nil
}

func estimateStats(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("estimate_stats", stderr, "<log.json>")
	start := fs.String("start_date", "", "first timestamp to include (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)")
	end := fs.String("end_date", "", "timestamp to stop before (YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)")
	resultsCSV := fs.String("results_csv", "", "write the per-event results table to this CSV file")
	probsOut := fs.String("probabilities_out", "", "write the estimated probabilities to this file (.json or .yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 1)
	if err != nil {
		return err
	}

	var r slotlog.TimeRange
	if r.From, err = slotlog.ParseBound(*start); err != nil {
		return fmt.Errorf("-start_date: %w", err)
	}
	if r.To, err = slotlog.ParseBound(*end); err != nil {
		return fmt.Errorf("-end_date: %w", err)
	}

	markers := cfg.SlotLog.Markers()
	log, err := slotlog.ReadLogFile(pos[0], markers)
	if err != nil {
		return err
	}
	for _, rej := range log.Rejected {
		logger.WithFields(logger.Fields{"message": rej.Index}).Warn(rej.Reason)
	}
	logger.WithFields(logger.Fields{
		"messages": log.Messages, "events": len(log.Events),
		"rejected": len(log.Rejected), "excluded": log.Excluded,
	}).Info("log read")

	est, selected, err := slotlog.EstimateProbabilities(log.Events, r, markers.Shiny)
	if err != nil {
		return err
	}
	if err := report.New(stdout).Estimate(est, len(log.Rejected)); err != nil {
		return err
	}

	if *resultsCSV != "" {
		if err := slotlog.WriteResultsFile(*resultsCSV, selected); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", *resultsCSV)
	}
	if *probsOut != "" {
		if err := gacha.SaveProbabilities(*probsOut, est.Probabilities); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", *probsOut)
	}
	return nil
}

func listRuns(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("runs", stderr, "")
	dbPath := fs.String("db", cfg.Results.DBPath, "results database")
	id := fs.String("id", "", "show the summary of one run")
	limit := fs.Int("limit", 20, "maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := positional(fs, 0); err != nil {
		return err
	}
	if *dbPath == "" {
		fs.Usage()
		return errUsage
	}
	store, err := results.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := report.New(stdout)
	if *id == "" {
		runs, err := store.ListRuns(ctx, *limit)
		if err != nil {
			return err
		}
		return out.Runs(runs)
	}
	run, data, err := store.LoadRun(ctx, *id)
	if err != nil {
		return err
	}
	resolved := scenario.Resolved{
		Name:        run.Scenario,
		Cases:       run.Params.Cases,
		Rolls:       run.Params.RollsPerCase,
		Autorelease: run.Params.Autorelease,
		Seed:        run.Seed,
	}
	return out.Simulation(resolved, run.Probabilities, run.CatalogSize, gacha.Summarize(data))
}
