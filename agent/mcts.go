package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tileplay/experiments/metrics"
	"tileplay/game"
	"tileplay/searcher"
)

// MCTS searches a tree from the current state on every move and plays its most
// visited action.
type MCTS struct {
	explorationRate float64
	options         []searcher.Option
	reuse           bool

	tree   *searcher.Tree
	metric metrics.SearchMetric
}

// NewMCTS returns an agent building trees with the given exploration rate and search
// options. With reuse, the subtree below the played actions is kept between moves.
func NewMCTS(explorationRate float64, reuse bool, options ...searcher.Option) *MCTS {
	return &MCTS{
		explorationRate: explorationRate,
		options:         options,
		reuse:           reuse,
	}
}

func (a *MCTS) Name() string {
	return "mcts"
}

func (a *MCTS) Metric() metrics.SearchMetric {
	return a.metric
}

func (a *MCTS) Choose(ctx context.Context, state *game.State) (searcher.Action, error) {
	if len(state.LegalActions()) == 0 {
		return nil, nil
	}

	if !a.matches(state) {
		tree, err := searcher.NewTree(state, a.explorationRate, a.options...)
		if err != nil {
			return nil, err
		}
		a.tree = tree
	} else {
		log.Debug().Msgf("reusing tree with %d root visits", a.tree.Root().Visits())
	}

	action, err := a.tree.Search(ctx)
	if err != nil {
		a.tree = nil
		return nil, fmt.Errorf("mcts search: %w", err)
	}
	a.metric = a.tree.Metric()

	if !a.reuse {
		a.tree = nil
	}
	return action, nil
}

// Observe moves the kept tree along the played action, dropping it when the action
// was never expanded.
func (a *MCTS) Observe(action searcher.Action, next *game.State) {
	if a.tree == nil {
		return
	}
	if !a.tree.Advance(action) {
		a.tree = nil
	}
}

func (a *MCTS) matches(state *game.State) bool {
	if a.tree == nil {
		return false
	}
	root, ok := a.tree.Root().State().(*game.State)
	return ok && root.Hash() == state.Hash()
}
