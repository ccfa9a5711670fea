package game

import "fmt"

// TileAction places the current tile.
type TileAction struct {
	X, Y     int
	Rotation int
}

func (a TileAction) String() string {
	return fmt.Sprintf("tile(%d,%d)r%d", a.X, a.Y, a.Rotation)
}

func (a TileAction) Coord() Coord {
	return Coord{a.X, a.Y}
}

// MeepleAction claims a terrain of the tile just placed. It ends the turn.
type MeepleAction struct {
	Terrain Terrain
}

func (a MeepleAction) String() string {
	return "meeple(" + a.Terrain.String() + ")"
}

// PassAction skips the meeple placement. It ends the turn.
type PassAction struct{}

func (a PassAction) String() string {
	return "pass"
}

// Claim is a meeple on the board.
type Claim struct {
	Player  int
	Coord   Coord
	Terrain Terrain
}
