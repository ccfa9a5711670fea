package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"tileplay/agent"
	"tileplay/engine"
	"tileplay/experiments/metrics"
	"tileplay/game"
	"tileplay/render"
	"tileplay/searcher"
)

var (
	playFirst  string
	playSecond string
	playQuiet  bool
)

func runPlay(cmd *cobra.Command, args []string) error {
	var agents [game.Players]agent.Agent
	for seat, kind := range []string{playFirst, playSecond} {
		a, err := newPlayer(kind, uint64(time.Now().UnixNano())+uint64(seat))
		if err != nil {
			return err
		}
		agents[seat] = a
	}

	options, err := cfg.GameOptions()
	if err != nil {
		return err
	}
	state := game.NewState(options...)
	r := render.New(os.Stdout)

	engineOptions := []engine.Option{engine.WithMaxMoves(cfg.Game.MaxMoves)}
	if !playQuiet {
		if err := r.State(state); err != nil {
			return err
		}
		engineOptions = append(engineOptions, engine.WithMoveHook(func(move metrics.MoveMetric, next *game.State) {
			fmt.Printf("\nplayer %d (%s): %s\n", move.Player, agents[move.Player].Name(), move.Action)
			if err := r.State(next); err != nil {
				log.Error().Err(err).Msg("failed to render state")
			}
		}))
	}

	e := engine.NewLocal(state, agents, engineOptions...)
	gameMetric, _, err := e.Run(cmd.Context())
	if err != nil {
		return err
	}

	if playQuiet {
		if err := r.State(e.State); err != nil {
			return err
		}
	}
	fmt.Printf("Game %s finished after %d moves in %s\n", gameMetric.ID, gameMetric.TotalMoves, gameMetric.Duration.Round(time.Millisecond))
	return nil
}

// newPlayer builds an agent for interactive play
func newPlayer(kind string, seed uint64) (agent.Agent, error) {
	switch kind {
	case "human":
		return agent.NewHuman(os.Stdin, os.Stdout), nil

	case "random":
		return agent.NewRandom(seed), nil

	case "mcts":
		options := append(cfg.SearchOptions(), searcher.WithMetrics(metrics.NewCollector()))
		return agent.NewMCTS(cfg.Search.ExplorationRate, cfg.Search.Reuse, options...), nil

	case "qlearn":
		q, err := agent.NewQLearn(agent.WithEpsilon(0), agent.WithQLearnSeed(seed))
		if err != nil {
			return nil, err
		}
		path, err := cfg.TablePath()
		if err != nil {
			return nil, err
		}
		if err := q.Load(path); err != nil {
			if !agent.IsNotExist(err) {
				return nil, err
			}
			log.Warn().Msgf("no q-table at %s, run train first", path)
		}
		return q, nil

	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}
}
