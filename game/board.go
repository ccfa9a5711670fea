package game

import "sort"

type Coord struct {
	X, Y int
}

// Neighbour across side; Y grows southwards
func (c Coord) Neighbour(side int) Coord {
	switch side {
	case North:
		return Coord{c.X, c.Y - 1}
	case East:
		return Coord{c.X + 1, c.Y}
	case South:
		return Coord{c.X, c.Y + 1}
	default:
		return Coord{c.X - 1, c.Y}
	}
}

// Placed is a tile on the board.
type Placed struct {
	Tile     Tile
	Rotation int
	Edges    [4]Terrain
	Player   int // -1 for the start tile
}

// Board maps coordinates to placed tiles. A Board is never modified once shared
// between states, with returns a copy.
type Board map[Coord]Placed

func (b Board) with(c Coord, p Placed) Board {
	board := make(Board, len(b)+1)
	for k, v := range b {
		board[k] = v
	}
	board[c] = p
	return board
}

// Coords returns every occupied coordinate, row by row.
func (b Board) Coords() []Coord {
	coords := make([]Coord, 0, len(b))
	for c := range b {
		coords = append(coords, c)
	}
	sortCoords(coords)
	return coords
}

// Bounds returns the top-left and bottom-right occupied corners.
func (b Board) Bounds() (Coord, Coord) {
	var lo, hi Coord
	first := true
	for c := range b {
		if first {
			lo, hi = c, c
			first = false
			continue
		}
		lo.X, lo.Y = min(lo.X, c.X), min(lo.Y, c.Y)
		hi.X, hi.Y = max(hi.X, c.X), max(hi.Y, c.Y)
	}
	return lo, hi
}

func sortCoords(coords []Coord) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Y != coords[j].Y {
			return coords[i].Y < coords[j].Y
		}
		return coords[i].X < coords[j].X
	})
}

// fits reports whether edges can go on the empty coordinate c next to at least one
// tile, matching every neighbouring edge.
func (b Board) fits(c Coord, edges [4]Terrain) bool {
	if _, taken := b[c]; taken {
		return false
	}

	adjacent := false
	for side := North; side <= West; side++ {
		neighbour, ok := b[c.Neighbour(side)]
		if !ok {
			continue
		}
		adjacent = true
		if neighbour.Edges[opposite(side)] != edges[side] {
			return false
		}
	}
	return adjacent
}

// frontier returns the empty coordinates next to placed tiles, row by row.
func (b Board) frontier() []Coord {
	seen := map[Coord]bool{}
	coords := []Coord{}
	for c := range b {
		for side := North; side <= West; side++ {
			n := c.Neighbour(side)
			if _, taken := b[n]; taken || seen[n] {
				continue
			}
			seen[n] = true
			coords = append(coords, n)
		}
	}
	sortCoords(coords)
	return coords
}

// placements lists every position and distinct rotation the tile fits in.
func (b Board) placements(tile Tile) []TileAction {
	actions := []TileAction{}
	for _, c := range b.frontier() {
		for rotation := 0; rotation < 4; rotation++ {
			if distinctRotation(tile, rotation) && b.fits(c, tile.Rotated(rotation)) {
				actions = append(actions, TileAction{X: c.X, Y: c.Y, Rotation: rotation})
			}
		}
	}
	return actions
}

// distinctRotation reports whether no smaller rotation of tile gives the same edges.
func distinctRotation(tile Tile, rotation int) bool {
	if rotation < 0 || rotation > 3 {
		return false
	}
	edges := tile.Rotated(rotation)
	for r := 0; r < rotation; r++ {
		if tile.Rotated(r) == edges {
			return false
		}
	}
	return true
}

// region returns the tiles connected to start through edges of terrain, empty if
// the start tile has no such edge.
func (b Board) region(start Coord, terrain Terrain) []Coord {
	visited := map[Coord]bool{}
	queue := []Coord{start}
	coords := []Coord{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		visited[current] = true

		placed, ok := b[current]
		if !ok || !hasTerrain(placed.Edges, terrain) {
			continue
		}
		coords = append(coords, current)

		for side := North; side <= West; side++ {
			if placed.Edges[side] != terrain {
				continue
			}
			n := current.Neighbour(side)
			if !visited[n] {
				queue = append(queue, n)
			}
		}
	}
	sortCoords(coords)
	return coords
}

func hasTerrain(edges [4]Terrain, terrain Terrain) bool {
	for _, t := range edges {
		if t == terrain {
			return true
		}
	}
	return false
}
