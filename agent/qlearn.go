package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"tileplay/game"
	"tileplay/searcher"
)

const (
	DefaultAlpha   = 0.3
	DefaultGamma   = 0.9
	DefaultEpsilon = 0.2

	// Score differences beyond this are bucketed as leading or trailing
	scoreBucketWidth = 5

	qTableFile = "tileplay/qtable.yaml"
)

// StateKey is the compact view of a state the Q-table is indexed by.
type StateKey struct {
	Tile        string `yaml:"tile"`
	ScoreBucket int    `yaml:"score_bucket"` // -1 trailing, 0 close, 1 leading
	Meeples     int    `yaml:"meeples"`
	Phase       string `yaml:"phase"`
}

type qKey struct {
	state  StateKey
	action string
}

type qEntry struct {
	State  StateKey `yaml:"state"`
	Action string   `yaml:"action"`
	Value  float64  `yaml:"value"`
}

type QLearnOption func(q *QLearn)

func WithAlpha(alpha float64) QLearnOption {
	return func(q *QLearn) {
		q.alpha = alpha
	}
}

func WithGamma(gamma float64) QLearnOption {
	return func(q *QLearn) {
		q.gamma = gamma
	}
}

// WithEpsilon sets the probability of exploring a random action. Zero only exploits.
func WithEpsilon(epsilon float64) QLearnOption {
	return func(q *QLearn) {
		q.epsilon = epsilon
	}
}

func WithQLearnSeed(seed uint64) QLearnOption {
	return func(q *QLearn) {
		q.rng = rand.New(rand.NewSource(seed))
	}
}

// QLearn is a tabular Q-learning agent with an epsilon-greedy policy. The reward of
// a move is the change in the agent's score until its next move.
type QLearn struct {
	alpha   float64
	gamma   float64
	epsilon float64
	rng     *rand.Rand
	table   map[qKey]float64

	// Previous transition, pending its reward
	last      *qKey
	lastScore int
	seat      int
}

func NewQLearn(options ...QLearnOption) (*QLearn, error) {
	q := &QLearn{
		alpha:   DefaultAlpha,
		gamma:   DefaultGamma,
		epsilon: DefaultEpsilon,
		table:   map[qKey]float64{},
	}
	for _, option := range options {
		option(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewSource(rand.Uint64()))
	}

	for name, v := range map[string]float64{"alpha": q.alpha, "gamma": q.gamma, "epsilon": q.epsilon} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	return q, nil
}

func (q *QLearn) Name() string {
	return "qlearn"
}

// Size is the number of learned state-action values.
func (q *QLearn) Size() int {
	return len(q.table)
}

// Value of an action in a state, zero if never learned.
func (q *QLearn) Value(state StateKey, action searcher.Action) float64 {
	return q.table[qKey{state, action.String()}]
}

func (q *QLearn) Choose(ctx context.Context, state *game.State) (searcher.Action, error) {
	actions := state.LegalActions()
	player := state.Player()
	key := EncodeState(state, player)
	score := state.Scores()[player]

	q.update(key, score, actions)
	if len(actions) == 0 {
		return nil, nil
	}

	var chosen searcher.Action
	if q.rng.Float64() < q.epsilon {
		chosen = actions[q.rng.Intn(len(actions))]
	} else {
		best := math.Inf(-1)
		for _, action := range actions {
			if v := q.table[qKey{key, action.String()}]; v > best {
				best = v
				chosen = action
			}
		}
	}

	q.last = &qKey{key, chosen.String()}
	q.lastScore = score
	q.seat = player
	return chosen, nil
}

// Finish rewards the last move with the final scoring and resets the episode memory,
// keeping the learned table.
func (q *QLearn) Finish(final *game.State) {
	if q.last != nil {
		q.update(EncodeState(final, q.seat), final.Scores()[q.seat], nil)
	}
	q.Reset()
}

// Reset forgets the pending transition. Call it before each new game.
func (q *QLearn) Reset() {
	q.last = nil
	q.lastScore = 0
}

// update applies Q(s,a) = (1-alpha)*Q(s,a) + alpha*(reward + gamma*max Q(s',a'))
// to the pending transition. Unknown values count as zero.
func (q *QLearn) update(next StateKey, score int, actions []searcher.Action) {
	if q.last == nil {
		return
	}

	reward := float64(score - q.lastScore)
	maxFuture := 0.0
	for _, action := range actions {
		maxFuture = max(maxFuture, q.table[qKey{next, action.String()}])
	}

	old := q.table[*q.last]
	q.table[*q.last] = (1-q.alpha)*old + q.alpha*(reward+q.gamma*maxFuture)
}

// EncodeState keys a state from player's point of view.
func EncodeState(state *game.State, player int) StateKey {
	tile := "none"
	switch state.Phase() {
	case game.TilePhase:
		current, _ := state.CurrentTile()
		tile = current.Name
	case game.MeeplePhase:
		tile = state.Board()[state.Placed()].Tile.Name
	}

	scores := state.Scores()
	diff := scores[player] - scores[1-player]
	bucket := 0
	if diff < -scoreBucketWidth {
		bucket = -1
	} else if diff > scoreBucketWidth {
		bucket = 1
	}

	return StateKey{
		Tile:        tile,
		ScoreBucket: bucket,
		Meeples:     state.Meeples(player),
		Phase:       state.Phase().String(),
	}
}

// DefaultTablePath is the Q-table location in the user's data directory.
func DefaultTablePath() (string, error) {
	return xdg.DataFile(qTableFile)
}

// Save writes the table as yaml, entries sorted for stable output.
func (q *QLearn) Save(path string) error {
	entries := make([]qEntry, 0, len(q.table))
	for k, v := range q.table {
		entries = append(entries, qEntry{State: k.state, Action: k.action, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.State != b.State {
			return fmt.Sprint(a.State) < fmt.Sprint(b.State)
		}
		return a.Action < b.Action
	})

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode q-table: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write q-table: %w", err)
	}

	log.Debug().Msgf("saved q-table with %d entries to %s", len(entries), path)
	return nil
}

// Load replaces the table with the one stored at path. A missing file leaves the
// table untouched and returns an error wrapping os.ErrNotExist.
func (q *QLearn) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read q-table: %w", err)
	}

	var entries []qEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode q-table %s: %w", path, err)
	}

	table := make(map[qKey]float64, len(entries))
	for _, e := range entries {
		table[qKey{e.State, e.Action}] = e.Value
	}
	q.table = table

	log.Debug().Msgf("loaded q-table with %d entries from %s", len(entries), path)
	return nil
}

// IsNotExist reports whether a Load failed because no table was saved yet.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
