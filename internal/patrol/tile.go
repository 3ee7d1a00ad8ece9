package patrol

import "math"

// tileProbeEpsilon nudges the foot-point probe upward so an agent standing
// exactly on a tile's bottom edge resolves to that tile, not the one below.
const tileProbeEpsilon = 0.001

// TileCoord is an integer grid coordinate. It is a plain value type with no
// ownership; routes, agents, and the grid all trade in it.
type TileCoord struct {
	X int
	Y int
}

// cardinalOffsets is the fixed neighbor expansion order: +X, -X, +Y, -Y.
// Route building depends on this order being stable — the same map must
// always produce the same route.
var cardinalOffsets = [4]TileCoord{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// Add returns the coordinate offset by d.
func (t TileCoord) Add(d TileCoord) TileCoord {
	return TileCoord{X: t.X + d.X, Y: t.Y + d.Y}
}

// Adjacent reports whether o is exactly one 4-directional step away.
// Diagonals are not adjacent.
func (t TileCoord) Adjacent(o TileCoord) bool {
	dx := t.X - o.X
	dy := t.Y - o.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

// Vec2 is a continuous world-space point.
type Vec2 struct {
	X float64
	Y float64
}

// Direction is one of the four cardinal facings.
type Direction int

const (
	FacingDown Direction = iota
	FacingUp
	FacingLeft
	FacingRight
	directionCount // sentinel
)

func (d Direction) String() string {
	switch d {
	case FacingDown:
		return "down"
	case FacingUp:
		return "up"
	case FacingLeft:
		return "left"
	case FacingRight:
		return "right"
	default:
		return "unknown"
	}
}

// facingFromDelta derives a facing from a tile or movement delta.
// Horizontal wins only when strictly dominant: |dx| > |dy| faces left/right,
// otherwise up/down.
func facingFromDelta(dx, dy float64) Direction {
	if math.Abs(dx) > math.Abs(dy) {
		if dx < 0 {
			return FacingLeft
		}
		return FacingRight
	}
	if dy < 0 {
		return FacingUp
	}
	return FacingDown
}

// tileAnchor returns the world-space ground-contact point for a tile: the
// centre of its bottom edge. Agents stand on this point.
func tileAnchor(t TileCoord, tileSize int) Vec2 {
	ts := float64(tileSize)
	return Vec2{
		X: float64(t.X)*ts + ts/2,
		Y: float64(t.Y)*ts + ts,
	}
}

// tileAt resolves a world-space ground-contact point to the tile it rests
// on. The Y probe is pulled up by tileProbeEpsilon so a snapped agent
// resolves to the tile it arrived at.
func tileAt(p Vec2, tileSize int) TileCoord {
	ts := float64(tileSize)
	return TileCoord{
		X: int(math.Floor(p.X / ts)),
		Y: int(math.Floor((p.Y - tileProbeEpsilon) / ts)),
	}
}

// smoothstep is the 3t^2 - 2t^3 ease curve on t in [0,1].
func smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}
