package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tileplay/experiments"
)

var trainEpisodes int

func runTrain(cmd *cobra.Command, args []string) error {
	path, err := cfg.TablePath()
	if err != nil {
		return err
	}
	rules, err := cfg.RuleOptions()
	if err != nil {
		return err
	}
	episodes := cfg.QLearn.Episodes
	if trainEpisodes > 0 {
		episodes = trainEpisodes
	}

	result, err := experiments.TrainQLearning(cmd.Context(), experiments.Training{
		Episodes:  episodes,
		Alpha:     cfg.QLearn.Alpha,
		Gamma:     cfg.QLearn.Gamma,
		Epsilon:   cfg.QLearn.Epsilon,
		Seed:      cfg.Game.Seed,
		TablePath: path,
		SaveEvery: cfg.QLearn.SaveEvery,
		MaxMoves:  cfg.Game.MaxMoves,
		Rules:     rules,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Trained %d episodes: %d wins, %d losses, %d draws, %d table entries saved to %s\n",
		episodes, result.Wins, result.Losses, result.Draws, result.Entries, path)
	return nil
}
