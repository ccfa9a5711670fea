package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tileplay/experiments"
	"tileplay/experiments/metrics"
)

var (
	arenaExperiment string
	arenaGames      int
	arenaParallel   int
)

func runArena(cmd *cobra.Command, args []string) error {
	name := cfg.Arena.Experiment
	if arenaExperiment != "" {
		name = arenaExperiment
	}

	var arena experiments.Arena
	switch name {
	case "baseline":
		path, err := cfg.TablePath()
		if err != nil {
			return err
		}
		arena = experiments.BaselineExperiment(cfg.Search.Iterations, path)
	case "exploration":
		arena = experiments.ExplorationRateExperiment(cfg.Search.Iterations)
	default:
		return fmt.Errorf("unknown experiment %q", name)
	}

	rules, err := cfg.RuleOptions()
	if err != nil {
		return err
	}
	arena.Rules = rules
	arena.Games = cfg.Arena.Games
	if arenaGames > 0 {
		arena.Games = arenaGames
	}
	arena.Parallel = cfg.Arena.Parallel
	if arenaParallel >= 0 {
		arena.Parallel = arenaParallel
	}
	arena.Seed = cfg.Game.Seed
	arena.MaxMoves = cfg.Game.MaxMoves
	arena.OutDir = cfg.Arena.OutDir

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		prom, err := metrics.NewPrometheus(reg)
		if err != nil {
			return err
		}
		arena.Prometheus = prom

		stop := serveMetrics(cfg.Metrics.Addr, reg)
		defer stop()
	}

	results, err := arena.Run(cmd.Context())
	if err != nil {
		return err
	}

	for _, config := range arena.Configs {
		fmt.Printf("agent %d (%s): %d wins, win rate %.2f\n", config.ID, config.Kind, results.Wins[config.ID], results.WinRate(config.ID))
	}
	fmt.Printf("%d games, %d draws, records in %s\n", len(results.Games), results.Draws, results.Dir)
	return nil
}

// serveMetrics exposes reg on addr until the returned function is called.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Msgf("serving metrics on %s/metrics", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}
}
