package agent

import (
	"context"

	"tileplay/experiments/metrics"
	"tileplay/game"
	"tileplay/searcher"
)

type Agent interface {
	Name() string
	// Choose returns the action to play in a non-terminal state. A nil action means
	// the agent passes, which is only valid when no legal action exists.
	Choose(ctx context.Context, state *game.State) (searcher.Action, error)
}

// Observer is told about every action played in the game, its own included.
type Observer interface {
	Observe(action searcher.Action, next *game.State)
}

// Learner is given the final state once a game ends.
type Learner interface {
	Finish(final *game.State)
}

// Reporter exposes the search metric of its last Choose.
type Reporter interface {
	Metric() metrics.SearchMetric
}
