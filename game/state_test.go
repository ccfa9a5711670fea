package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"tileplay/searcher"
)

var roadStraight = Tile{Name: "road-straight", Edges: [4]Terrain{Field, Road, Field, Road}}

func play(t *testing.T, s *State, action searcher.Action) *State {
	t.Helper()
	next, err := s.Play(action)
	require.NoError(t, err)
	return next.(*State)
}

func TestTileRotated(t *testing.T) {
	tile := Tile{Edges: [4]Terrain{City, Road, Field, Field}}

	require.Equal(t, tile.Edges, tile.Rotated(0))
	require.Equal(t, [4]Terrain{Field, City, Road, Field}, tile.Rotated(1), "Clockwise turn should move west to north")
	require.Equal(t, [4]Terrain{Field, Field, City, Road}, tile.Rotated(2))
	require.Equal(t, tile.Edges, tile.Rotated(4))
}

func TestNewState(t *testing.T) {
	t.Run("starting with the start tile and a drawn tile", func(t *testing.T) {
		s := NewState(WithSeed(1))

		require.Equal(t, 0, s.Player())
		require.Equal(t, TilePhase, s.Phase())
		require.Len(t, s.Board(), 1)
		require.Equal(t, StartTile, s.Board()[Coord{0, 0}].Tile)
		_, ok := s.CurrentTile()
		require.True(t, ok)
		require.Equal(t, len(expand(BaseTileSet))-1, s.DeckSize())
		require.Equal(t, []int{0, 0}, s.Scores())
		require.Equal(t, DefaultMeeples, s.Meeples(0))
		require.False(t, s.Terminated())
	})

	t.Run("shuffling reproducibly", func(t *testing.T) {
		require.Equal(t, NewState(WithSeed(9)).Hash(), NewState(WithSeed(9)).Hash())
	})

	t.Run("rejecting unknown tile sets", func(t *testing.T) {
		_, err := TileSet("expansion")
		require.Error(t, err)
	})
}

func TestStateLegalActions(t *testing.T) {
	t.Run("listing fitting placements row by row", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight}))

		require.Equal(t, []searcher.Action{
			TileAction{X: -1, Y: 0, Rotation: 0},
			TileAction{X: 1, Y: 0, Rotation: 0},
			TileAction{X: 0, Y: 1, Rotation: 0},
		}, s.LegalActions())
	})

	t.Run("offering pass and claimable terrains after placement", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight}))
		s = play(t, s, TileAction{X: 1, Y: 0})

		require.Equal(t, MeeplePhase, s.Phase())
		require.Equal(t, 0, s.Player(), "Placing a tile should not end the turn")
		require.Equal(t, []searcher.Action{PassAction{}, MeepleAction{Terrain: Road}}, s.LegalActions())
	})

	t.Run("hiding claims without meeples", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight}), WithMeeples(0))
		s = play(t, s, TileAction{X: 1, Y: 0})

		require.Equal(t, []searcher.Action{PassAction{}}, s.LegalActions())
	})

	t.Run("hiding claimed regions", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight, roadStraight, roadStraight}))
		s = play(t, s, TileAction{X: 1, Y: 0})
		s = play(t, s, MeepleAction{Terrain: Road})
		require.Equal(t, 1, s.Player(), "Claiming should end the turn")

		s = play(t, s, TileAction{X: -1, Y: 0})

		require.Equal(t, []searcher.Action{PassAction{}}, s.LegalActions(), "Connected road is already claimed")
	})

	t.Run("returning nothing once the game is over", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight}))
		s = play(t, s, TileAction{X: 1, Y: 0})
		s = play(t, s, PassAction{})

		require.True(t, s.Terminated())
		require.Empty(t, s.LegalActions())
	})
}

func TestStatePlay(t *testing.T) {
	t.Run("scoring matched edges and claims", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight}))
		s = play(t, s, TileAction{X: 1, Y: 0})
		require.Equal(t, []int{1, 0}, s.Scores(), "Matched road edge should score one point")

		s = play(t, s, MeepleAction{Terrain: Road})

		require.True(t, s.Terminated(), "Empty pile should end the game")
		require.Equal(t, []int{3, 0}, s.Scores(), "Meeple should score its two-tile road")
		require.Equal(t, DefaultMeeples-1, s.Meeples(0))
		require.Equal(t, []Claim{{Player: 0, Coord: Coord{1, 0}, Terrain: Road}}, s.Claims())
		require.Equal(t, 0, s.Winner())
	})

	t.Run("scoring city edges double", func(t *testing.T) {
		cityCap := Tile{Name: "city-cap", Edges: [4]Terrain{City, Field, Field, Field}}
		s := NewState(WithDeck([]Tile{cityCap}))

		s = play(t, s, TileAction{X: 0, Y: -1, Rotation: 2})

		require.Equal(t, []int{2, 0}, s.Scores())
	})

	t.Run("leaving the original state untouched", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight, roadStraight}))
		hash := s.Hash()

		next := play(t, s, TileAction{X: 1, Y: 0})

		require.Equal(t, hash, s.Hash())
		require.Len(t, s.Board(), 1)
		require.Len(t, next.Board(), 2)
		require.NotEqual(t, hash, next.Hash())
	})

	t.Run("rejecting illegal actions", func(t *testing.T) {
		s := NewState(WithDeck([]Tile{roadStraight}))
		placed := play(t, s, TileAction{X: 1, Y: 0})

		cases := []struct {
			name   string
			state  *State
			action searcher.Action
		}{
			{"meeple in tile phase", s, MeepleAction{Terrain: Road}},
			{"pass in tile phase", s, PassAction{}},
			{"tile on mismatched edge", s, TileAction{X: 0, Y: -1}},
			{"tile away from the board", s, TileAction{X: 5, Y: 5}},
			{"tile on occupied square", s, TileAction{X: 0, Y: 0}},
			{"invalid rotation", s, TileAction{X: 1, Y: 0, Rotation: 7}},
			{"negative rotation", s, TileAction{X: 1, Y: 0, Rotation: -1}},
			{"repeated rotation of a symmetric tile", s, TileAction{X: 1, Y: 0, Rotation: 2}},
			{"tile in meeple phase", placed, TileAction{X: -1, Y: 0}},
			{"meeple on field", placed, MeepleAction{Terrain: Field}},
			{"meeple on missing terrain", placed, MeepleAction{Terrain: City}},
		}
		for _, tc := range cases {
			require.NotContains(t, tc.state.LegalActions(), tc.action, tc.name)
			_, err := tc.state.Play(tc.action)
			require.ErrorIs(t, err, searcher.ErrIllegalAction, tc.name)
		}
	})

	t.Run("playing random games to the end", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		for game := 0; game < 5; game++ {
			s := NewState(WithSeed(uint64(game)))
			moves := 0
			for !s.Terminated() {
				actions := s.LegalActions()
				require.NotEmpty(t, actions, "Non-terminal state should have legal actions")
				s = play(t, s, actions[rng.Intn(len(actions))])
				moves++
			}

			require.Greater(t, moves, 0)
			require.Zero(t, s.DeckSize())
			require.Equal(t, len(expand(BaseTileSet))+1, len(s.Board())+s.Discarded(), "Every tile should be placed or discarded")
			for p := 0; p < Players; p++ {
				require.GreaterOrEqual(t, s.Scores()[p], 0)
				require.GreaterOrEqual(t, s.Meeples(p), 0)
			}
		}
	})
}
