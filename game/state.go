package game

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"golang.org/x/exp/rand"

	"tileplay/searcher"
)

type Phase int

const (
	TilePhase Phase = iota
	MeeplePhase
	GameOverPhase
)

func (p Phase) String() string {
	switch p {
	case TilePhase:
		return "tile"
	case MeeplePhase:
		return "meeple"
	case GameOverPhase:
		return "game-over"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

const (
	Players        = 2
	DefaultMeeples = 7

	roadEdgePoints = 1
	cityEdgePoints = 2
)

type Option func(s *State)

// WithSeed shuffles the draw pile reproducibly.
func WithSeed(seed uint64) Option {
	return func(s *State) {
		s.seed = seed
	}
}

func WithTileSet(set []TileCount) Option {
	return func(s *State) {
		s.deck = expand(set)
	}
}

// WithDeck uses tiles in the given draw order, unshuffled.
func WithDeck(tiles []Tile) Option {
	return func(s *State) {
		s.deck = append([]Tile{}, tiles...)
		s.ordered = true
	}
}

func WithMeeples(meeples int) Option {
	return func(s *State) {
		if meeples >= 0 {
			s.meeples = [Players]int{meeples, meeples}
		}
	}
}

// State is an immutable snapshot of a game; Play returns a new State.
type State struct {
	board     Board
	deck      []Tile // draw pile, never modified in place
	current   Tile
	phase     Phase
	player    int
	scores    [Players]int
	meeples   [Players]int
	placed    Coord // tile placed this turn
	claims    []Claim
	discarded int
	seed      uint64
	ordered   bool
}

// NewState starts a game: the start tile on the origin and the first tile drawn for
// player 0.
func NewState(options ...Option) *State {
	s := &State{
		board:   Board{{0, 0}: {Tile: StartTile, Edges: StartTile.Edges, Player: -1}},
		deck:    expand(BaseTileSet),
		meeples: [Players]int{DefaultMeeples, DefaultMeeples},
	}
	for _, option := range options {
		option(s)
	}
	if !s.ordered {
		rng := rand.New(rand.NewSource(s.seed))
		rng.Shuffle(len(s.deck), func(i, j int) {
			s.deck[i], s.deck[j] = s.deck[j], s.deck[i]
		})
	}
	s.draw()
	return s
}

func (s *State) Player() int {
	return s.player
}

func (s *State) Phase() Phase {
	return s.phase
}

func (s *State) Scores() []int {
	return []int{s.scores[0], s.scores[1]}
}

func (s *State) Terminated() bool {
	return s.phase == GameOverPhase
}

func (s *State) Board() Board {
	return s.board
}

// CurrentTile is the tile to place in the tile phase.
func (s *State) CurrentTile() (Tile, bool) {
	return s.current, s.phase == TilePhase
}

// Placed is the coordinate of the tile placed this turn, valid in the meeple phase.
func (s *State) Placed() Coord {
	return s.placed
}

func (s *State) Meeples(player int) int {
	return s.meeples[player]
}

func (s *State) Claims() []Claim {
	return append([]Claim{}, s.claims...)
}

// DeckSize is the number of tiles left to draw after the current one.
func (s *State) DeckSize() int {
	return len(s.deck)
}

func (s *State) Discarded() int {
	return s.discarded
}

// Winner returns the leading player of a finished game, -1 for a draw or an
// unfinished game.
func (s *State) Winner() int {
	if !s.Terminated() || s.scores[0] == s.scores[1] {
		return -1
	}
	if s.scores[0] > s.scores[1] {
		return 0
	}
	return 1
}

// LegalActions returns all legal actions for the current player.
func (s *State) LegalActions() []searcher.Action {
	switch s.phase {
	case TilePhase:
		placements := s.board.placements(s.current)
		actions := make([]searcher.Action, len(placements))
		for i, p := range placements {
			actions[i] = p
		}
		return actions
	case MeeplePhase:
		actions := []searcher.Action{PassAction{}}
		for _, terrain := range s.claimable() {
			actions = append(actions, MeepleAction{Terrain: terrain})
		}
		return actions
	default:
		return nil
	}
}

// claimable terrains of the placed tile: unclaimed regions while meeples last
func (s *State) claimable() []Terrain {
	if s.meeples[s.player] == 0 {
		return nil
	}

	terrains := []Terrain{}
	for _, terrain := range Terrains(s.board[s.placed].Edges) {
		if !s.claimed(s.placed, terrain) {
			terrains = append(terrains, terrain)
		}
	}
	return terrains
}

func (s *State) claimed(c Coord, terrain Terrain) bool {
	region := s.board.region(c, terrain)
	for _, claim := range s.claims {
		if claim.Terrain != terrain {
			continue
		}
		for _, rc := range region {
			if rc == claim.Coord {
				return true
			}
		}
	}
	return false
}

// Play applies action to a copy of the state.
func (s *State) Play(action searcher.Action) (searcher.State, error) {
	next := *s

	switch a := action.(type) {
	case TileAction:
		if s.phase != TilePhase {
			return nil, s.illegal(action)
		}
		edges := s.current.Rotated(a.Rotation)
		if !distinctRotation(s.current, a.Rotation) || !s.board.fits(a.Coord(), edges) {
			return nil, s.illegal(action)
		}
		next.board = s.board.with(a.Coord(), Placed{Tile: s.current, Rotation: a.Rotation, Edges: edges, Player: s.player})
		next.scores[s.player] += s.edgePoints(a.Coord(), edges)
		next.placed = a.Coord()
		next.phase = MeeplePhase

	case MeepleAction:
		if s.phase != MeeplePhase || !containsTerrain(s.claimable(), a.Terrain) {
			return nil, s.illegal(action)
		}
		next.claims = append(append([]Claim{}, s.claims...), Claim{Player: s.player, Coord: s.placed, Terrain: a.Terrain})
		next.meeples[s.player]--
		next.endTurn()

	case PassAction:
		if s.phase != MeeplePhase {
			return nil, s.illegal(action)
		}
		next.endTurn()

	default:
		return nil, s.illegal(action)
	}

	return &next, nil
}

func (s *State) illegal(action searcher.Action) error {
	return fmt.Errorf("%w: %v in %s phase of player %d", searcher.ErrIllegalAction, action, s.phase, s.player)
}

// edgePoints scores the matched road and city edges of a placement
func (s *State) edgePoints(c Coord, edges [4]Terrain) int {
	points := 0
	for side := North; side <= West; side++ {
		if _, ok := s.board[c.Neighbour(side)]; !ok {
			continue
		}
		switch edges[side] {
		case Road:
			points += roadEdgePoints
		case City:
			points += cityEdgePoints
		}
	}
	return points
}

func (s *State) endTurn() {
	s.player = 1 - s.player
	s.draw()
}

// draw takes the next placeable tile, discarding the ones that fit nowhere, and ends
// the game once the pile runs out.
func (s *State) draw() {
	for len(s.deck) > 0 {
		tile := s.deck[0]
		s.deck = s.deck[1:]
		if len(s.board.placements(tile)) > 0 {
			s.current = tile
			s.phase = TilePhase
			return
		}
		s.discarded++
	}
	s.current = Tile{}
	s.phase = GameOverPhase
	s.scoreClaims()
}

// scoreClaims awards each meeple the size of its region
func (s *State) scoreClaims() {
	for _, claim := range s.claims {
		s.scores[claim.Player] += len(s.board.region(claim.Coord, claim.Terrain))
	}
}

// Hash identifies the position: board, pile, phase, player, scores and claims.
func (s *State) Hash() uint64 {
	hasher := fnv.New64a()
	write := func(values ...int) {
		for _, v := range values {
			binary.Write(hasher, binary.LittleEndian, int64(v))
		}
	}

	write(int(s.phase), s.player, s.scores[0], s.scores[1], s.meeples[0], s.meeples[1], len(s.deck))
	for _, c := range s.board.Coords() {
		p := s.board[c]
		write(c.X, c.Y, p.Rotation, p.Player)
		hasher.Write([]byte(p.Tile.Name))
	}
	hasher.Write([]byte(s.current.Name))
	for _, claim := range s.claims {
		write(claim.Player, claim.Coord.X, claim.Coord.Y, int(claim.Terrain))
	}
	return hasher.Sum64()
}

func containsTerrain(terrains []Terrain, terrain Terrain) bool {
	for _, t := range terrains {
		if t == terrain {
			return true
		}
	}
	return false
}
