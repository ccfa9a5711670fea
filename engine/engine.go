package engine

import (
	"context"

	"tileplay/experiments/metrics"
)

// MaxMoves bounds a game when no limit is given.
const MaxMoves = 10000

type Engine interface {
	// Run plays a game till it ends or the move limit is reached
	Run(ctx context.Context) (metrics.GameMetric, []metrics.MoveMetric, error)
}
