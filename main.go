package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tileplay/config"
)

var (
	configPath string
	logLevel   string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "tileplay",
		Short: "Monte Carlo tree search and learning agents for a two-player tile-placement game",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			return setupLogger(cfg.Log)
		},
		SilenceUsage: true,
	}

	playCmd = &cobra.Command{
		Use:   "play",
		Short: "Play a game between two agents, rendering the board after every move",
		RunE:  runPlay, // Defined in cmd_play.go
	}
	trainCmd = &cobra.Command{
		Use:   "train",
		Short: "Train the Q-learning agent against the random agent and save its table",
		RunE:  runTrain, // Defined in cmd_train.go
	}
	arenaCmd = &cobra.Command{
		Use:   "arena",
		Short: "Run an experiment of agent match-ups and write CSV records",
		RunE:  runArena, // Defined in cmd_arena.go
	}
	searchCmd = &cobra.Command{
		Use:   "search",
		Short: "Search a fresh game and print the tree statistics and best action",
		RunE:  runSearch, // Defined in cmd_search.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tileplay/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level overriding the config (debug, info, warn, error)")

	playCmd.Flags().StringVar(&playFirst, "p0", "human", "agent seated as player 0 (human, random, mcts, qlearn)")
	playCmd.Flags().StringVar(&playSecond, "p1", "mcts", "agent seated as player 1 (human, random, mcts, qlearn)")
	playCmd.Flags().BoolVar(&playQuiet, "quiet", false, "only print the final board")

	trainCmd.Flags().IntVar(&trainEpisodes, "episodes", 0, "training games (default from config)")

	arenaCmd.Flags().StringVar(&arenaExperiment, "experiment", "", "experiment to run: baseline or exploration (default from config)")
	arenaCmd.Flags().IntVar(&arenaGames, "games", 0, "games per match-up (default from config)")
	arenaCmd.Flags().IntVar(&arenaParallel, "parallel", -1, "concurrent games (default from config)")

	searchCmd.Flags().BoolVar(&searchTree, "tree", false, "dump every node of the tree")

	rootCmd.AddCommand(playCmd, trainCmd, arenaCmd, searchCmd)
}

func setupLogger(c config.LogConfig) error {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	if c.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
