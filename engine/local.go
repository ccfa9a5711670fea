package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tileplay/agent"
	"tileplay/experiments/metrics"
	"tileplay/game"
	"tileplay/searcher"
)

type Option func(e *Local)

func WithMaxMoves(moves int) Option {
	return func(e *Local) {
		if moves > 0 {
			e.maxMoves = moves
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Local) {
		e.logger = logger
	}
}

// WithMoveHook calls hook after every move with the resulting state.
func WithMoveHook(hook func(move metrics.MoveMetric, state *game.State)) Option {
	return func(e *Local) {
		e.hook = hook
	}
}

// Local runs a game in process, asking the agent seated at the current player for
// every action.
type Local struct {
	State    *game.State
	agents   [game.Players]agent.Agent
	maxMoves int
	logger   zerolog.Logger
	hook     func(metrics.MoveMetric, *game.State)
}

func NewLocal(state *game.State, agents [game.Players]agent.Agent, options ...Option) *Local {
	for i, a := range agents {
		if a == nil {
			panic(fmt.Sprintf("no agent seated as player %d", i))
		}
	}

	e := &Local{
		State:    state,
		agents:   agents,
		maxMoves: MaxMoves,
		logger:   log.Logger,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run executes the game loop until the game ends or the move limit is reached, in
// which case the game has no winner.
func (e *Local) Run(ctx context.Context) (metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{
		ID:        uuid.NewString(),
		Agents:    [2]string{e.agents[0].Name(), e.agents[1].Name()},
		Winner:    -1,
		StartTime: time.Now(),
	}
	logger := e.logger.With().Str("game", gameMetric.ID).Logger()
	logger.Info().Msgf("player %d is starting", e.State.Player())

	moveMetrics := []metrics.MoveMetric{}
	for step := 1; !e.State.Terminated() && step <= e.maxMoves; step++ {
		if err := ctx.Err(); err != nil {
			return e.complete(gameMetric, moveMetrics), moveMetrics, err
		}

		player := e.State.Player()
		current := e.agents[player]

		action, err := current.Choose(ctx, e.State)
		if err != nil {
			return e.complete(gameMetric, moveMetrics), moveMetrics, fmt.Errorf("player %d (%s): %w", player, current.Name(), err)
		}
		if action == nil {
			return e.complete(gameMetric, moveMetrics), moveMetrics, fmt.Errorf("player %d (%s) passed: %w", player, current.Name(), searcher.ErrNoLegalActions)
		}

		next, err := e.State.Play(action)
		if err != nil {
			return e.complete(gameMetric, moveMetrics), moveMetrics, fmt.Errorf("player %d (%s): %w", player, current.Name(), err)
		}
		e.State = next.(*game.State)

		moveMetric := metrics.MoveMetric{Step: step, Player: player, Action: action.String()}
		if reporter, ok := current.(agent.Reporter); ok {
			moveMetric.SearchMetric = reporter.Metric()
		}
		moveMetrics = append(moveMetrics, moveMetric)
		logger.Debug().Int("step", step).Int("player", player).Str("action", moveMetric.Action).Msg("move played")

		for _, a := range e.seated() {
			if observer, ok := a.(agent.Observer); ok {
				observer.Observe(action, e.State)
			}
		}
		if e.hook != nil {
			e.hook(moveMetric, e.State)
		}
	}

	if e.State.Terminated() {
		for _, a := range e.seated() {
			if learner, ok := a.(agent.Learner); ok {
				learner.Finish(e.State)
			}
		}
	} else {
		logger.Warn().Msgf("stopped after %d moves without a winner", e.maxMoves)
	}

	gameMetric = e.complete(gameMetric, moveMetrics)
	logger.Info().
		Int("winner", gameMetric.Winner).
		Ints("scores", gameMetric.Scores).
		Int("moves", gameMetric.TotalMoves).
		Msg("game over")
	return gameMetric, moveMetrics, nil
}

func (e *Local) complete(gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric) metrics.GameMetric {
	gameMetric.Winner = e.State.Winner()
	gameMetric.Scores = e.State.Scores()
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = len(moveMetrics)
	return gameMetric
}

// seated returns each distinct agent once, an agent may play both seats
func (e *Local) seated() []agent.Agent {
	if e.agents[0] == e.agents[1] {
		return e.agents[:1]
	}
	return e.agents[:]
}
