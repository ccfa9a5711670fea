package searcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"tileplay/experiments/metrics"
)

// ErrNoBudget is returned by Search when it has no way to stop.
var ErrNoBudget = errors.New("search needs episodes, a duration or a cancellable context")

type Option func(t *Tree)

func WithEpisodes(episodes int) Option {
	return func(t *Tree) {
		if episodes > 0 {
			t.episodes = episodes
		}
	}
}

func WithDuration(duration time.Duration) Option {
	return func(t *Tree) {
		if duration > 0 {
			t.duration = duration
		}
	}
}

// WithSeed makes expansion and rollouts reproducible.
func WithSeed(seed uint64) Option {
	return func(t *Tree) {
		t.rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(t *Tree) {
		if rng != nil {
			t.rng = rng
		}
	}
}

// WithExplorationConstant sets C^2 in the UCB exploration term sqrt(C^2*ln(N)/n).
func WithExplorationConstant(cSquared float64) Option {
	return func(t *Tree) {
		if cSquared > 0 {
			t.cSquared = cSquared
		}
	}
}

func WithMetrics(collector metrics.Collector) Option {
	return func(t *Tree) {
		if collector != nil {
			t.metrics = collector
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// Tree owns the root node and drives the search iterations.
type Tree struct {
	root     *Node
	shared   *shared
	episodes int
	duration time.Duration
	cSquared float64
	rng      *rand.Rand
	metrics  metrics.Collector
	metric   metrics.SearchMetric
	logger   zerolog.Logger
}

func NewTree(state State, explorationRate float64, options ...Option) (*Tree, error) {
	if state == nil {
		return nil, errors.New("nil initial state")
	}
	if math.IsNaN(explorationRate) || explorationRate < 0 || explorationRate > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidExplorationRate, explorationRate)
	}

	t := &Tree{ // Default values
		cSquared: CSquared,
		metrics:  metrics.NewDummyCollector(),
		logger:   log.Logger,
	}
	for _, option := range options {
		option(t)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	t.shared = &shared{rng: t.rng, cSquared: t.cSquared}
	t.root = newNode(nil, state, explorationRate, t.shared)
	return t, nil
}

func (t *Tree) Root() *Node {
	return t.root
}

// Size is the number of nodes created since construction.
func (t *Tree) Size() int {
	return t.shared.nodes
}

// Metric is the search metric of the last completed Search.
func (t *Tree) Metric() metrics.SearchMetric {
	return t.metric
}

// OneIteration runs a single select, expand, rollout and backpropagate cycle. On error
// the iteration is abandoned, nodes it expanded are kept.
func (t *Tree) OneIteration() error {
	before := t.shared.nodes
	leaf, err := t.root.SelectExpand()
	for i := before; i < t.shared.nodes; i++ {
		t.metrics.AddNode()
	}
	if err != nil {
		return fmt.Errorf("select or expand: %w", err)
	}

	terminal, moves, err := leaf.rollout()
	if err != nil {
		return err
	}
	t.metrics.AddRollout(moves)

	leaf.Update(outcome(terminal, leaf.player))
	t.metrics.AddEpisode()
	return nil
}

// Search iterates until the episode budget, the duration or ctx runs out, whichever
// comes first, and returns the best action. Cancellation is checked between iterations.
func (t *Tree) Search(ctx context.Context) (Action, error) {
	if t.episodes <= 0 && t.duration <= 0 && ctx.Done() == nil {
		return nil, ErrNoBudget
	}

	t.metrics.Start(t.root.explorationRate)
	start := time.Now()
	for i := 0; t.episodes <= 0 || i < t.episodes; i++ {
		if t.duration > 0 && time.Since(start) >= t.duration {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if err := t.OneIteration(); err != nil {
			return nil, err
		}
	}
	t.metric = t.metrics.Complete()

	t.logger.Debug().
		Int("episodes", t.metric.Episodes).
		Int("nodes", t.Size()).
		Int("root_visits", t.root.visits).
		Dur("duration", time.Since(start)).
		Msg("search completed")

	return t.BestAction()
}

// BestAction returns the most visited child of the root (robust child), ties going to
// the earliest expanded action.
func (t *Tree) BestAction() (Action, error) {
	if len(t.root.actions) == 0 {
		return nil, ErrNoChildren
	}

	best := t.root.actions[0]
	maxVisits := t.root.children[best].visits
	for _, action := range t.root.actions[1:] {
		if v := t.root.children[action].visits; v > maxVisits {
			maxVisits = v
			best = action
		}
	}
	return best, nil
}

// Policy maps every expanded root action to its visit count.
func (t *Tree) Policy() map[Action]float64 {
	policy := make(map[Action]float64, len(t.root.actions))
	for _, action := range t.root.actions {
		policy[action] = float64(t.root.children[action].visits)
	}
	return policy
}

// Advance moves the root down to the child reached by action, keeping its subtree.
// It reports false, leaving the tree untouched, if the action was never expanded.
func (t *Tree) Advance(action Action) bool {
	child, ok := t.root.children[action]
	if !ok {
		return false
	}
	child.parent = nil
	t.root = child
	return true
}

// Visualize writes the tree breadth first, one line per node.
func (t *Tree) Visualize(w io.Writer) error {
	type entry struct {
		node   *Node
		action Action
		level  int
	}

	queue := []entry{{node: t.root}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		label := "root"
		if e.action != nil {
			label = e.action.String()
		}
		_, err := fmt.Fprintf(w, "%sNode(%s): player=%d visits=%d wins=%d children=%d\n",
			strings.Repeat(" ", e.level), label, e.node.player, e.node.visits, e.node.wins, len(e.node.actions))
		if err != nil {
			return err
		}

		for _, action := range e.node.actions {
			queue = append(queue, entry{node: e.node.children[action], action: action, level: e.level + 1})
		}
	}
	return nil
}
