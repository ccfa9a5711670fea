package agent

import (
	"context"

	"golang.org/x/exp/rand"

	"tileplay/game"
	"tileplay/searcher"
)

// Random picks a legal action uniformly at random.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Name() string {
	return "random"
}

func (r *Random) Choose(ctx context.Context, state *game.State) (searcher.Action, error) {
	actions := state.LegalActions()
	if len(actions) == 0 {
		return nil, nil
	}
	return actions[r.rng.Intn(len(actions))], nil
}
