package patrol

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tile is one cell of the grid.
type Tile struct {
	Walkable   bool
	Obstructed bool
	Elevation  int8 // relative height step (0 = ground)
}

// TileGrid is a concrete walkability grid backing the WalkabilityOracle
// interface. It is owned by the surrounding world, not by the agents: after
// mutating it, call each agent's ReinitializeRoute — in-flight route builds
// see a point-in-time snapshot and staleness is never auto-detected.
type TileGrid struct {
	cols  int
	rows  int
	tiles []Tile // row-major: index = row*cols + col
}

// NewTileGrid creates a grid of non-walkable tiles.
func NewTileGrid(cols, rows int) *TileGrid {
	return &TileGrid{
		cols:  cols,
		rows:  rows,
		tiles: make([]Tile, cols*rows),
	}
}

func (g *TileGrid) inBounds(x, y int) bool {
	return x >= 0 && x < g.cols && y >= 0 && y < g.rows
}

// Bounds returns the grid dimensions in tiles.
func (g *TileGrid) Bounds() (w, h int) { return g.cols, g.rows }

// IsWalkable reports whether the tile's terrain can be walked on.
// Out-of-bounds tiles are not walkable.
func (g *TileGrid) IsWalkable(x, y int) bool {
	if !g.inBounds(x, y) {
		return false
	}
	return g.tiles[y*g.cols+x].Walkable
}

// IsObstructed reports whether something sits on the tile and blocks it.
func (g *TileGrid) IsObstructed(x, y int) bool {
	if !g.inBounds(x, y) {
		return true
	}
	return g.tiles[y*g.cols+x].Obstructed
}

// At returns a pointer to the tile at (x, y), or nil if out of bounds.
func (g *TileGrid) At(x, y int) *Tile {
	if !g.inBounds(x, y) {
		return nil
	}
	return &g.tiles[y*g.cols+x]
}

// SetWalkable marks a tile's terrain walkable or not.
func (g *TileGrid) SetWalkable(x, y int, walkable bool) {
	if !g.inBounds(x, y) {
		return
	}
	g.tiles[y*g.cols+x].Walkable = walkable
}

// SetObstructed places or removes a blocking object on a tile.
func (g *TileGrid) SetObstructed(x, y int, obstructed bool) {
	if !g.inBounds(x, y) {
		return
	}
	g.tiles[y*g.cols+x].Obstructed = obstructed
}

// SetElevation sets a tile's relative height step.
func (g *TileGrid) SetElevation(x, y int, e int8) {
	if !g.inBounds(x, y) {
		return
	}
	g.tiles[y*g.cols+x].Elevation = e
}

// Elevation returns the height step at (x, y), 0 when out of bounds.
func (g *TileGrid) Elevation(x, y int) int8 {
	if !g.inBounds(x, y) {
		return 0
	}
	return g.tiles[y*g.cols+x].Elevation
}

// GridSpec is the YAML map-file schema. Rows are strings of legend runes,
// top to bottom; each rune names a tile kind.
//
//	tile_size: 16
//	legend:
//	  ".": {walkable: true}
//	  "#": {walkable: false}
//	  "o": {walkable: true, obstructed: true}
//	  "^": {walkable: true, elevation: 1}
//	rows:
//	  - "########"
//	  - "#......#"
//	  - "########"
type GridSpec struct {
	TileSize int                      `yaml:"tile_size"`
	Legend   map[string]GridTileSpec  `yaml:"legend"`
	Rows     []string                 `yaml:"rows"`
	Spawns   map[string]GridSpawnSpec `yaml:"spawns"`
}

// GridTileSpec describes one legend entry.
type GridTileSpec struct {
	Walkable   bool `yaml:"walkable"`
	Obstructed bool `yaml:"obstructed"`
	Elevation  int8 `yaml:"elevation"`
}

// GridSpawnSpec names a tile where an agent starts.
type GridSpawnSpec struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// ParseGrid builds a TileGrid from a YAML map definition.
func ParseGrid(data []byte) (*TileGrid, *GridSpec, error) {
	var spec GridSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, nil, fmt.Errorf("grid: unmarshal: %w", err)
	}
	if len(spec.Rows) == 0 {
		return nil, nil, fmt.Errorf("grid: no rows")
	}
	if spec.TileSize == 0 {
		spec.TileSize = defaultTileSize
	}

	cols := 0
	for _, r := range spec.Rows {
		if n := len([]rune(r)); n > cols {
			cols = n
		}
	}
	g := NewTileGrid(cols, len(spec.Rows))
	for y, row := range spec.Rows {
		for x, r := range []rune(row) {
			ts, ok := spec.Legend[string(r)]
			if !ok {
				return nil, nil, fmt.Errorf("grid: row %d: rune %q not in legend", y, r)
			}
			g.tiles[y*cols+x] = Tile{
				Walkable:   ts.Walkable,
				Obstructed: ts.Obstructed,
				Elevation:  ts.Elevation,
			}
		}
	}
	return g, &spec, nil
}

// LoadGridFile reads and parses a YAML map file.
func LoadGridFile(path string) (*TileGrid, *GridSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("grid: read %s: %w", path, err)
	}
	g, spec, err := ParseGrid(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("grid: %s: %w", path, err)
	}
	return g, spec, nil
}

// GridFromRows is a test/tooling helper: '.' is walkable, '#' solid,
// 'o' walkable-but-obstructed. Rows must be equal length.
func GridFromRows(rows ...string) *TileGrid {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	g := NewTileGrid(cols, len(rows))
	for y, row := range rows {
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case '.':
				g.SetWalkable(x, y, true)
			case 'o':
				g.SetWalkable(x, y, true)
				g.SetObstructed(x, y, true)
			}
		}
	}
	return g
}

// String renders the grid as rows of runes, for test failure output.
func (g *TileGrid) String() string {
	var sb strings.Builder
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			t := g.tiles[y*g.cols+x]
			switch {
			case !t.Walkable:
				sb.WriteByte('#')
			case t.Obstructed:
				sb.WriteByte('o')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
