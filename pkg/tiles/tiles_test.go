package tiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLayout = `
#####
#S.P#
.....
#...#
#####
`

func TestParse(t *testing.T) {
	m, err := Parse("test", testLayout)
	require.NoError(t, err)

	assert.Equal(t, 5, m.Width())
	assert.Equal(t, 5, m.Height())
	assert.Equal(t, Wall, m.At(Tile{0, 0}))
	assert.Equal(t, Spawn, m.At(Tile{1, 1}))
	assert.Equal(t, Power, m.At(Tile{3, 1}))
	assert.Equal(t, Open, m.At(Tile{2, 2}))
	assert.Equal(t, []Tile{{1, 1}}, m.Spawns())
	assert.Equal(t, []Tile{{3, 1}}, m.Powers())
}

func TestOutOfBoundsIsWall(t *testing.T) {
	m, err := Parse("test", testLayout)
	require.NoError(t, err)

	assert.Equal(t, Wall, m.At(Tile{-1, 0}))
	assert.Equal(t, Wall, m.At(Tile{0, 99}))
}

func TestWrapRows(t *testing.T) {
	m, err := Parse("test", testLayout)
	require.NoError(t, err)

	// Row 2 is open at both edges, nothing else is.
	assert.True(t, m.Wraps(2))
	assert.False(t, m.Wraps(1))
	assert.True(t, m.Walkable(Tile{-1, 2}))
	assert.False(t, m.Walkable(Tile{-1, 1}))

	width, _ := m.Size()
	assert.Equal(t, width-0.5*m.TileSize(), m.WrapX(-0.5*m.TileSize()))
	assert.Equal(t, 0.0, m.WrapX(width))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("bad", "###\n##")
	assert.Error(t, err, "ragged rows should be rejected")

	_, err = Parse("bad", "###\n#.#\n###")
	assert.Error(t, err, "a map with no spawns should be rejected")

	_, err = Parse("bad", "#X#")
	assert.Error(t, err, "unknown tiles should be rejected")
}

func TestTileRoundTrip(t *testing.T) {
	m, err := Parse("test", testLayout)
	require.NoError(t, err)

	tile := Tile{2, 3}
	center := m.Center(tile)
	assert.Equal(t, tile, m.TileAt(center))
}

func TestFingerprintDistinguishesLayouts(t *testing.T) {
	a, err := Parse("a", testLayout)
	require.NoError(t, err)
	b, err := Parse("b", "###\n#S#\n###")
	require.NoError(t, err)

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Fingerprint(), a.Fingerprint())
}

func TestDefault(t *testing.T) {
	provider, err := Default()
	require.NoError(t, err)

	m, err := provider.GetMazeMap(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, m.Spawns())
	assert.NotEmpty(t, m.Powers())
	assert.NotEmpty(t, m.OpenTiles())

	// The default map carries at least one tunnel row.
	wraps := false
	for y := 0; y < m.Height(); y++ {
		if m.Wraps(y) {
			wraps = true
		}
	}
	assert.True(t, wraps)
}
