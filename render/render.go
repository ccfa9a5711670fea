package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"tileplay/game"
)

// ANSI colours of the board
var (
	fieldColor   = "2"
	roadColor    = "7"
	cityColor    = "3"
	playerColors = [game.Players]string{"1", "4"}
)

// Renderer draws game states as text, each tile a 3x3 block: edges on the sides and
// the claim owner in the centre.
type Renderer struct {
	w   io.Writer
	out *termenv.Output
}

// New detects the colour profile of w unless an option sets one.
func New(w io.Writer, options ...termenv.OutputOption) *Renderer {
	return &Renderer{w: w, out: termenv.NewOutput(w, options...)}
}

// State writes the status line and the board.
func (r *Renderer) State(s *game.State) error {
	if err := r.Status(s); err != nil {
		return err
	}
	return r.Board(s)
}

func (r *Renderer) Status(s *game.State) error {
	scores := s.Scores()
	var line string
	if s.Terminated() {
		line = fmt.Sprintf("Game over, scores %s %d : %d %s", r.player(0), scores[0], scores[1], r.player(1))
		if winner := s.Winner(); winner >= 0 {
			line += fmt.Sprintf(", %s wins", r.player(winner))
		} else {
			line += ", draw"
		}
	} else {
		line = fmt.Sprintf("%s to play (%s phase), scores %d : %d, meeples %d : %d, %d tiles left",
			r.player(s.Player()), s.Phase(), scores[0], scores[1], s.Meeples(0), s.Meeples(1), s.DeckSize())
		if tile, ok := s.CurrentTile(); ok {
			line += ", tile " + tile.Name + " " + r.edges(tile.Edges)
		}
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func (r *Renderer) Board(s *game.State) error {
	board := s.Board()
	lo, hi := board.Bounds()
	owners := map[game.Coord]int{}
	for _, claim := range s.Claims() {
		owners[claim.Coord] = claim.Player
	}

	var b strings.Builder
	fmt.Fprintf(&b, "x %d..%d, y %d..%d\n", lo.X, hi.X, lo.Y, hi.Y)
	for y := lo.Y; y <= hi.Y; y++ {
		rows := [3]strings.Builder{}
		for x := lo.X; x <= hi.X; x++ {
			c := game.Coord{X: x, Y: y}
			placed, ok := board[c]
			if !ok {
				for i := range rows {
					rows[i].WriteString("   ")
				}
				continue
			}

			centre := r.out.String("o").String()
			if owner, claimed := owners[c]; claimed {
				centre = r.out.String(fmt.Sprint(owner)).Foreground(r.out.Color(playerColors[owner])).Bold().String()
			} else if placed.Player < 0 {
				centre = "*"
			}

			corner := r.out.String(".").Foreground(r.out.Color(fieldColor)).String()
			rows[0].WriteString(corner + r.edge(placed.Edges[game.North], "|") + corner)
			rows[1].WriteString(r.edge(placed.Edges[game.West], "-") + centre + r.edge(placed.Edges[game.East], "-"))
			rows[2].WriteString(corner + r.edge(placed.Edges[game.South], "|") + corner)
		}
		for i := range rows {
			b.WriteString(strings.TrimRight(rows[i].String(), " "))
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// edge draws one side of a tile, road as the given stroke
func (r *Renderer) edge(terrain game.Terrain, road string) string {
	switch terrain {
	case game.Road:
		return r.out.String(road).Foreground(r.out.Color(roadColor)).String()
	case game.City:
		return r.out.String("#").Foreground(r.out.Color(cityColor)).String()
	default:
		return r.out.String(".").Foreground(r.out.Color(fieldColor)).String()
	}
}

// edges lists a tile's terrains north, east, south, west
func (r *Renderer) edges(edges [4]game.Terrain) string {
	names := make([]string, len(edges))
	for i, terrain := range edges {
		names[i] = terrain.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

func (r *Renderer) player(p int) string {
	return r.out.String(fmt.Sprintf("player %d", p)).Foreground(r.out.Color(playerColors[p])).String()
}
