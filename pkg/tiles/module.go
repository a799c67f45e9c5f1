package tiles

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/campfire-gg/arcade/pkg/geom"

	"github.com/cespare/xxhash/v2"
)

type Kind byte

const (
	Wall Kind = iota
	Open
	Spawn
	Power
)

// Tile addresses a cell in a maze grid. X grows rightward, Y grows
// downward, matching the layout text.
type Tile struct {
	X int
	Y int
}

// MazeMap is an immutable maze layout. All lookups outside the grid
// report walls so callers never have to bounds check.
type MazeMap struct {
	name     string
	tileSize float64
	width    int
	height   int
	grid     []Kind
	spawns   []Tile
	powers   []Tile
	wraps    map[int]struct{}
	sum      uint64
}

//go:embed default.txt
var defaultLayout string

// DefaultTileSize is the world-unit width of one tile.
const DefaultTileSize = 32.0

func (m *MazeMap) Name() string      { return m.name }
func (m *MazeMap) TileSize() float64 { return m.tileSize }
func (m *MazeMap) Width() int        { return m.width }
func (m *MazeMap) Height() int       { return m.height }

// Fingerprint identifies the layout so clients can cache tile
// geometry across rounds.
func (m *MazeMap) Fingerprint() uint64 { return m.sum }

// Size returns the map extent in world units.
func (m *MazeMap) Size() (float64, float64) {
	return float64(m.width) * m.tileSize, float64(m.height) * m.tileSize
}

func (m *MazeMap) At(t Tile) Kind {
	if t.X < 0 || t.X >= m.width || t.Y < 0 || t.Y >= m.height {
		return Wall
	}
	return m.grid[t.Y*m.width+t.X]
}

func (m *MazeMap) Walkable(t Tile) bool {
	if m.Wraps(t.Y) && (t.X < 0 || t.X >= m.width) {
		return true
	}
	return m.At(t) != Wall
}

// Wraps reports whether row y is a tunnel: leaving one edge of a
// tunnel row re-enters on the other side.
func (m *MazeMap) Wraps(y int) bool {
	_, ok := m.wraps[y]
	return ok
}

func (m *MazeMap) Spawns() []Tile { return m.spawns }
func (m *MazeMap) Powers() []Tile { return m.powers }

// OpenTiles returns every walkable tile, spawn and power tiles
// included.
func (m *MazeMap) OpenTiles() []Tile {
	tiles := make([]Tile, 0, m.width*m.height/2)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			t := Tile{x, y}
			if m.At(t) != Wall {
				tiles = append(tiles, t)
			}
		}
	}
	return tiles
}

// Center returns the world position of the middle of tile t.
func (m *MazeMap) Center(t Tile) geom.Vec {
	return geom.Vec{
		X: (float64(t.X) + 0.5) * m.tileSize,
		Y: (float64(t.Y) + 0.5) * m.tileSize,
	}
}

// TileAt returns the tile containing world position pos.
func (m *MazeMap) TileAt(pos geom.Vec) Tile {
	return Tile{
		X: int(pos.X / m.tileSize),
		Y: int(pos.Y / m.tileSize),
	}
}

// WrapX normalizes an x coordinate on a tunnel row back into the map.
func (m *MazeMap) WrapX(x float64) float64 {
	width := float64(m.width) * m.tileSize
	for x < 0 {
		x += width
	}
	for x >= width {
		x -= width
	}
	return x
}

// Parse builds a MazeMap from an ASCII layout. '#' is a wall, '.' and
// ' ' are open floor, 'S' marks a spawn tile and 'P' a power pickup
// tile. A row whose first and last tiles are both open is a tunnel
// row.
func Parse(name string, layout string) (*MazeMap, error) {
	layout = strings.Trim(layout, "\n")
	lines := strings.Split(layout, "\n")
	if len(lines) == 0 || len(lines[0]) == 0 {
		return nil, fmt.Errorf("layout is empty")
	}

	width := len(lines[0])
	height := len(lines)

	m := MazeMap{
		name:     name,
		tileSize: DefaultTileSize,
		width:    width,
		height:   height,
		grid:     make([]Kind, width*height),
		wraps:    make(map[int]struct{}),
		sum:      xxhash.Sum64String(layout),
	}

	for y, line := range lines {
		if len(line) != width {
			return nil, fmt.Errorf(
				"row %d is %d tiles wide, want %d",
				y,
				len(line),
				width,
			)
		}

		for x, c := range line {
			tile := Tile{x, y}
			var kind Kind
			switch c {
			case '#':
				kind = Wall
			case '.', ' ':
				kind = Open
			case 'S':
				kind = Spawn
				m.spawns = append(m.spawns, tile)
			case 'P':
				kind = Power
				m.powers = append(m.powers, tile)
			default:
				return nil, fmt.Errorf(
					"unknown tile %q at %d,%d",
					c,
					x,
					y,
				)
			}
			m.grid[y*width+x] = kind
		}

		if m.grid[y*width] != Wall && m.grid[y*width+width-1] != Wall {
			m.wraps[y] = struct{}{}
		}
	}

	if len(m.spawns) == 0 {
		return nil, fmt.Errorf("layout has no spawn tiles")
	}

	return &m, nil
}

// Provider hands out maze layouts. The platform can swap in its own
// map catalog; Default serves the embedded layout.
type Provider interface {
	GetMazeMap(ctx context.Context) (*MazeMap, error)
}

type defaultProvider struct {
	m *MazeMap
}

func Default() (Provider, error) {
	m, err := Parse("default", defaultLayout)
	if err != nil {
		return nil, err
	}
	return &defaultProvider{m: m}, nil
}

func (p *defaultProvider) GetMazeMap(ctx context.Context) (*MazeMap, error) {
	return p.m, nil
}
