package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtding233/pokeslots-stats/internal/config"
	"github.com/xtding233/pokeslots-stats/internal/gacha"
	"github.com/xtding233/pokeslots-stats/internal/logger"
	"github.com/xtding233/pokeslots-stats/internal/results"
	"github.com/xtding233/pokeslots-stats/internal/rpc"
	"github.com/xtding233/pokeslots-stats/internal/scenario"
)

func main() {
	configPath := flag.String("config", "", "config file (yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("%v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	cat, err := gacha.LoadCatalogFile(cfg.Server.CatalogFile)
	if err != nil {
		logger.Fatal("load catalog: %v", err)
	}
	probs, err := gacha.LoadProbabilities(cfg.Server.ProbabilitiesFile)
	if err != nil {
		logger.Fatal("load probabilities: %v", err)
	}

	opts := rpc.Options{
		Catalog:       cat,
		Probabilities: probs,
		MaxRolls:      cfg.Server.MaxRolls,
		Defaults: scenario.Resolved{
			Cases:       cfg.Simulate.Cases,
			Rolls:       cfg.Simulate.RollsPerCase,
			Autorelease: cfg.Simulate.Autorelease,
			Seed:        cfg.Simulate.Seed,
		},
	}
	if cfg.Server.ScenarioDir != "" {
		opts.Scenarios = scenario.NewLoader(cfg.Server.ScenarioDir)
	}
	if cfg.Results.DBPath != "" {
		store, err := results.Open(cfg.Results.DBPath)
		if err != nil {
			logger.Fatal("open results store: %v", err)
		}
		defer store.Close()
		opts.Store = store
	}

	engine, err := rpc.NewEngine(opts)
	if err != nil {
		logger.Fatal("start engine: %v", err)
	}

	// hot reload: probability file edits swap the live set, any scenario file
	// created, edited or removed drops the loader cache
	watcher := scenario.NewFileWatcher([]string{cfg.Server.ProbabilitiesFile}, cfg.Server.WatchInterval, func(path string) {
		if path != cfg.Server.ProbabilitiesFile {
			opts.Scenarios.Invalidate()
			logger.Info("scenario cache invalidated by %s", path)
			return
		}
		ps, err := gacha.LoadProbabilities(path)
		if err == nil {
			err = engine.Reload(ps)
		}
		if err != nil {
			logger.WithFields(logger.Fields{"path": path}).WithError(err).Warn("reload rejected, keeping previous probabilities")
		}
	})
	if opts.Scenarios != nil {
		watcher.Glob(opts.Scenarios.Pattern())
	}
	watcher.Start()
	defer watcher.Stop()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Fatal("listen on %s: %v", cfg.Server.GRPCAddr, err)
	}
	grpcServer := rpc.NewServer()
	health := rpc.Register(grpcServer, engine)

	httpServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           rpc.HTTPHandler(engine),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC listening on %s ...", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		logger.Info("HTTP listening on %s ...", cfg.Server.MetricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server stopped: %v", err)
	}

	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}
