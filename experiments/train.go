package experiments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tileplay/agent"
	"tileplay/engine"
	"tileplay/game"
)

// Training configures Q-learning episodes against the random agent.
type Training struct {
	Episodes  int
	Alpha     float64
	Gamma     float64
	Epsilon   float64
	Seed      uint64
	TablePath string // loaded if present, saved every SaveEvery episodes and at the end
	SaveEvery int
	LogEvery  int
	MaxMoves  int
	Rules     []game.Option // tile set and meeples, the seed is set per episode
	Logger    *zerolog.Logger
}

type TrainingResult struct {
	Wins    int
	Losses  int
	Draws   int
	Entries int // learned state-action values
}

// TrainQLearning plays the episodes with the learner alternating seats, and returns
// its record against the random agent.
func TrainQLearning(ctx context.Context, t Training) (TrainingResult, error) {
	logger := log.Logger
	if t.Logger != nil {
		logger = *t.Logger
	}
	every := t.LogEvery
	if every <= 0 {
		every = 100
	}

	learner, err := agent.NewQLearn(
		agent.WithAlpha(t.Alpha), agent.WithGamma(t.Gamma), agent.WithEpsilon(t.Epsilon), agent.WithQLearnSeed(t.Seed))
	if err != nil {
		return TrainingResult{}, err
	}
	if t.TablePath != "" {
		err := learner.Load(t.TablePath)
		switch {
		case err == nil:
			logger.Info().Msgf("resuming from q-table with %d entries", learner.Size())
		case !agent.IsNotExist(err):
			return TrainingResult{}, err
		}
	}

	logger.Info().Msgf("starting q-learning training for %d episodes...", t.Episodes)

	result := TrainingResult{}
	for episode := 0; episode < t.Episodes; episode++ {
		seed := t.Seed + uint64(episode)
		seat := episode % game.Players

		agents := [game.Players]agent.Agent{}
		agents[seat] = learner
		agents[1-seat] = agent.NewRandom(seed)

		learner.Reset()
		e := engine.NewLocal(newState(t.Rules, seed), agents,
			engine.WithMaxMoves(t.MaxMoves), engine.WithLogger(zerolog.Nop()))
		gameMetric, _, err := e.Run(ctx)
		if err != nil {
			return result, fmt.Errorf("episode %d: %w", episode+1, err)
		}

		switch gameMetric.Winner {
		case seat:
			result.Wins++
		case -1:
			result.Draws++
		default:
			result.Losses++
		}

		if (episode+1)%every == 0 {
			logger.Info().
				Int("episode", episode+1).
				Int("wins", result.Wins).
				Int("entries", learner.Size()).
				Msgf("win rate %.2f", float64(result.Wins)/float64(episode+1))
		}
		if t.TablePath != "" && t.SaveEvery > 0 && (episode+1)%t.SaveEvery == 0 {
			if err := learner.Save(t.TablePath); err != nil {
				return result, err
			}
		}
	}

	result.Entries = learner.Size()
	if t.TablePath != "" {
		if err := learner.Save(t.TablePath); err != nil {
			return result, err
		}
	}

	logger.Info().Msgf("completed q-learning training: %d wins, %d losses, %d draws", result.Wins, result.Losses, result.Draws)
	return result, nil
}
