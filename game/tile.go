package game

import "fmt"

type Terrain int

const (
	Field Terrain = iota
	Road
	City
)

func (t Terrain) String() string {
	switch t {
	case Field:
		return "field"
	case Road:
		return "road"
	case City:
		return "city"
	default:
		return fmt.Sprintf("terrain(%d)", int(t))
	}
}

// Sides of a tile, clockwise
const (
	North = iota
	East
	South
	West
)

// opposite side of a neighbouring tile
func opposite(side int) int {
	return (side + 2) % 4
}

// Tile is a square with a terrain on each of its four edges at rotation 0.
type Tile struct {
	Name  string
	Edges [4]Terrain // North, East, South, West
}

// Rotated returns the edges after turning the tile clockwise rotation times.
func (t Tile) Rotated(rotation int) [4]Terrain {
	var edges [4]Terrain
	for side := range edges {
		edges[side] = t.Edges[(side-rotation%4+4)%4]
	}
	return edges
}

// Terrains lists each non-field terrain on the tile once, in edge order.
func Terrains(edges [4]Terrain) []Terrain {
	terrains := []Terrain{}
	seen := map[Terrain]bool{Field: true}
	for _, terrain := range edges {
		if !seen[terrain] {
			seen[terrain] = true
			terrains = append(terrains, terrain)
		}
	}
	return terrains
}

// TileCount is a tile and its number of copies in a set.
type TileCount struct {
	Tile  Tile
	Count int
}

// StartTile is placed on the origin before the first draw.
var StartTile = Tile{Name: "city-road", Edges: [4]Terrain{City, Road, Field, Road}}

// BaseTileSet is the full draw pile.
var BaseTileSet = []TileCount{
	{Tile{Name: "city-cap", Edges: [4]Terrain{City, Field, Field, Field}}, 5},
	{Tile{Name: "city-road", Edges: [4]Terrain{City, Road, Field, Road}}, 3},
	{Tile{Name: "city-corner", Edges: [4]Terrain{City, City, Field, Field}}, 5},
	{Tile{Name: "city-tunnel", Edges: [4]Terrain{City, Field, City, Field}}, 3},
	{Tile{Name: "city-full", Edges: [4]Terrain{City, City, City, City}}, 1},
	{Tile{Name: "city-three", Edges: [4]Terrain{City, City, Field, City}}, 3},
	{Tile{Name: "road-straight", Edges: [4]Terrain{Field, Road, Field, Road}}, 8},
	{Tile{Name: "road-curve", Edges: [4]Terrain{Field, Field, Road, Road}}, 9},
	{Tile{Name: "road-junction", Edges: [4]Terrain{Field, Road, Road, Road}}, 4},
	{Tile{Name: "crossroad", Edges: [4]Terrain{Road, Road, Road, Road}}, 1},
	{Tile{Name: "monastery", Edges: [4]Terrain{Field, Field, Field, Field}}, 4},
}

// SmallTileSet is a short draw pile for quick games.
var SmallTileSet = []TileCount{
	{Tile{Name: "city-cap", Edges: [4]Terrain{City, Field, Field, Field}}, 2},
	{Tile{Name: "city-corner", Edges: [4]Terrain{City, City, Field, Field}}, 1},
	{Tile{Name: "road-straight", Edges: [4]Terrain{Field, Road, Field, Road}}, 3},
	{Tile{Name: "road-curve", Edges: [4]Terrain{Field, Field, Road, Road}}, 3},
	{Tile{Name: "crossroad", Edges: [4]Terrain{Road, Road, Road, Road}}, 1},
}

// TileSet returns the tile set registered under name.
func TileSet(name string) ([]TileCount, error) {
	switch name {
	case "base", "":
		return BaseTileSet, nil
	case "small":
		return SmallTileSet, nil
	default:
		return nil, fmt.Errorf("unknown tile set %q", name)
	}
}

func expand(set []TileCount) []Tile {
	tiles := []Tile{}
	for _, tc := range set {
		for i := 0; i < tc.Count; i++ {
			tiles = append(tiles, tc.Tile)
		}
	}
	return tiles
}
