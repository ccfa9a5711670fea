package experiments

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"

	"tileplay/agent"
	"tileplay/experiments/metrics"
	"tileplay/searcher"
)

const (
	KindRandom = "random"
	KindMCTS   = "mcts"
	KindQLearn = "qlearn"
)

// NewAgent builds a fresh agent from its experiment configuration. prom, if not nil,
// also receives the search metrics of MCTS agents.
func NewAgent(config metrics.AgentConfig, seed uint64, prom *metrics.Prometheus, logger zerolog.Logger) (agent.Agent, error) {
	switch config.Kind {
	case KindRandom:
		return agent.NewRandom(seed), nil

	case KindMCTS:
		return agent.NewMCTS(config.ExplorationRate, config.Reuse, searchOptions(config, seed, prom, logger)...), nil

	case KindQLearn:
		q, err := agent.NewQLearn(agent.WithEpsilon(config.Epsilon), agent.WithQLearnSeed(seed))
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", config.ID, err)
		}
		if config.QTablePath != "" {
			if err := q.Load(config.QTablePath); err != nil && !agent.IsNotExist(err) {
				return nil, fmt.Errorf("agent %d: %w", config.ID, err)
			}
		}
		return q, nil

	default:
		return nil, fmt.Errorf("agent %d: unknown kind %q", config.ID, config.Kind)
	}
}

func searchOptions(config metrics.AgentConfig, seed uint64, prom *metrics.Prometheus, logger zerolog.Logger) []searcher.Option {
	options := []searcher.Option{
		searcher.WithRand(rand.New(rand.NewSource(seed))),
		searcher.WithLogger(logger),
	}

	if config.Iterations > 0 {
		options = append(options, searcher.WithEpisodes(config.Iterations))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if prom != nil {
		options = append(options, searcher.WithMetrics(prom.Collector()))
	} else {
		options = append(options, searcher.WithMetrics(metrics.NewCollector()))
	}
	return options
}
