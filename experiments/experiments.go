package experiments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tileplay/agent"
	"tileplay/engine"
	"tileplay/experiments/metrics"
	"tileplay/game"
)

const NumGames = 30 // Per match up

// Arena plays every match-up a number of games, alternating which agent starts.
// Games run concurrently, each with its own agents and state.
type Arena struct {
	Name     string
	Configs  []metrics.AgentConfig
	MatchUps [][2]metrics.AgentConfig
	Games    int    // per match-up, NumGames when zero
	Parallel int    // concurrent games, unlimited when zero
	Seed     uint64 // game i of the arena uses Seed+i
	MaxMoves int
	Rules    []game.Option // tile set and meeples, the seed is set per game
	OutDir   string        // CSV records are written below OutDir when set

	Prometheus *metrics.Prometheus
	Logger     *zerolog.Logger
}

// Results aggregates the games of an arena run.
type Results struct {
	Games []metrics.GameRecord
	Moves []metrics.MoveRecord
	Wins  map[int]int // by AgentConfig.ID
	Draws int
	Dir   string // where records were written, if any
}

// WinRate of the agent over the games it played.
func (r Results) WinRate(id int) float64 {
	played := 0
	for _, g := range r.Games {
		if g.Agent1 == id || g.Agent2 == id {
			played++
		}
	}
	if played == 0 {
		return 0
	}
	return float64(r.Wins[id]) / float64(played)
}

type gameResult struct {
	record metrics.GameRecord
	moves  []metrics.MoveMetric
}

func (a Arena) Run(ctx context.Context) (Results, error) {
	logger := log.Logger
	if a.Logger != nil {
		logger = *a.Logger
	}
	games := a.Games
	if games <= 0 {
		games = NumGames
	}

	logger.Info().Msgf("starting %s experiment...", a.Name)

	results := make([]gameResult, len(a.MatchUps)*games)
	g, ctx := errgroup.WithContext(ctx)
	if a.Parallel > 0 {
		g.SetLimit(a.Parallel)
	}

	for mi, matchUp := range a.MatchUps {
		for i := 0; i < games; i++ {
			index := mi*games + i
			// Alternate the starting agent
			first, second := matchUp[0], matchUp[1]
			if i%2 == 1 {
				first, second = second, first
			}

			g.Go(func() error {
				gameMetric, moves, err := a.runGame(ctx, first, second, a.Seed+uint64(index), logger)
				if err != nil {
					return fmt.Errorf("match-up %d game %d: %w", mi+1, i+1, err)
				}
				results[index] = gameResult{
					record: metrics.GameRecord{Match: mi + 1, Agent1: first.ID, Agent2: second.ID, GameMetric: gameMetric},
					moves:  moves,
				}
				logger.Info().Msgf("completed match-up %d of %d game %d of %d with winner: %d", mi+1, len(a.MatchUps), i+1, games, gameMetric.Winner)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Results{}, err
	}

	logger.Info().Msgf("completed %s experiment", a.Name)

	r := aggregate(results)
	if a.OutDir != "" {
		dir, err := a.store(r)
		if err != nil {
			return r, err
		}
		r.Dir = dir
	}
	return r, nil
}

func (a Arena) runGame(ctx context.Context, config1, config2 metrics.AgentConfig, seed uint64, logger zerolog.Logger) (metrics.GameMetric, []metrics.MoveMetric, error) {
	agent1, err := NewAgent(config1, seed, a.Prometheus, logger)
	if err != nil {
		return metrics.GameMetric{}, nil, err
	}
	agent2, err := NewAgent(config2, seed+1, a.Prometheus, logger)
	if err != nil {
		return metrics.GameMetric{}, nil, err
	}

	e := engine.NewLocal(newState(a.Rules, seed), [game.Players]agent.Agent{agent1, agent2},
		engine.WithMaxMoves(a.MaxMoves), engine.WithLogger(logger))
	return e.Run(ctx)
}

func newState(rules []game.Option, seed uint64) *game.State {
	options := append([]game.Option{}, rules...)
	return game.NewState(append(options, game.WithSeed(seed))...)
}

func aggregate(results []gameResult) Results {
	r := Results{Wins: map[int]int{}}
	for _, result := range results {
		record := result.record
		r.Games = append(r.Games, record)
		for _, mm := range result.moves {
			r.Moves = append(r.Moves, metrics.MoveRecord{Game: record.ID, MoveMetric: mm})
		}

		switch record.Winner {
		case 0:
			r.Wins[record.Agent1]++
		case 1:
			r.Wins[record.Agent2]++
		default:
			r.Draws++
		}
	}
	return r
}

// store writes the experiment metadata and results
func (a Arena) store(r Results) (string, error) {
	writer, err := metrics.NewWriter(a.OutDir, a.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	if err := writer.WriteAgentConfigs(a.Configs); err != nil {
		return "", fmt.Errorf("failed to store agent configs: %w", err)
	}
	if err := writer.WriteGameRecords(r.Games); err != nil {
		return "", fmt.Errorf("failed to write game records: %w", err)
	}
	if err := writer.WriteMoveRecords(r.Moves); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	return writer.Dir(), nil
}

// ExplorationRateExperiment pairs MCTS agents with different exploration rates
// against the always-exploring baseline.
func ExplorationRateExperiment(iterations int) Arena {
	baseline := metrics.AgentConfig{ID: 0, Kind: KindMCTS, Iterations: iterations, ExplorationRate: 1.0}
	configs := []metrics.AgentConfig{
		{ID: 1, Kind: KindMCTS, Iterations: iterations, ExplorationRate: 0.75},
		{ID: 2, Kind: KindMCTS, Iterations: iterations, ExplorationRate: 0.5},
		{ID: 3, Kind: KindMCTS, Iterations: iterations, ExplorationRate: 0.25},
		{ID: 4, Kind: KindMCTS, Iterations: iterations, ExplorationRate: 1.0, Reuse: true},
	}

	matchUps := [][2]metrics.AgentConfig{}
	for _, config := range configs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{baseline, config})
	}
	return Arena{Name: "exploration_rate", Configs: append(configs, baseline), MatchUps: matchUps}
}

// BaselineExperiment pairs every agent kind against the random agent.
func BaselineExperiment(iterations int, qTablePath string) Arena {
	random := metrics.AgentConfig{ID: 0, Kind: KindRandom}
	configs := []metrics.AgentConfig{
		{ID: 1, Kind: KindMCTS, Iterations: iterations, ExplorationRate: 1.0},
		{ID: 2, Kind: KindQLearn, QTablePath: qTablePath},
	}

	matchUps := [][2]metrics.AgentConfig{}
	for _, config := range configs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{random, config})
	}
	return Arena{Name: "baseline", Configs: append(configs, random), MatchUps: matchUps}
}
