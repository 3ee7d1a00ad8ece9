package patrol

import (
	"errors"
	"fmt"
)

// DefaultMaxRouteLength caps reachability exploration and the waypoint
// count when the caller passes maxLen <= 0. It keeps route building cheap
// on large open maps.
const DefaultMaxRouteLength = 100

var (
	// ErrInvalidStart means the start tile failed the oracle at build time:
	// out of bounds, not walkable, or obstructed.
	ErrInvalidStart = errors.New("route: start tile is not walkable")
	// ErrRouteTooShort means traversal produced fewer than 2 waypoints,
	// e.g. an isolated one-tile pocket.
	ErrRouteTooShort = errors.New("route: fewer than 2 waypoints")
)

// Route is an ordered waypoint sequence plus its traversal mode. It is
// built once and never mutated; agents discard and rebuild instead.
// Waypoints may repeat — backtracking visits re-emit a tile — but every
// consecutive pair is grid-adjacent.
type Route struct {
	Waypoints []TileCoord
	// Closed selects loop traversal (wrap from last back to first) over
	// ping-pong traversal (walk to the end, then back, forever).
	Closed bool
}

// Len returns the waypoint count.
func (r *Route) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Waypoints)
}

// BuildRoute computes a patrol route covering the walkable area reachable
// from start, as seen by the oracle at call time. maxLen bounds both the
// reachable-set size and (together with backtrack re-emissions) the final
// waypoint count; pass 0 for the default.
//
// The reachable set is collected breadth-first so that, when the cap is
// hit, the route covers a compact region around the start rather than one
// long tendril. If the set forms a simple cycle the route walks the ring
// once with no repeats and Closed=true; otherwise a depth-first walk with
// backtrack re-emission keeps the sequence physically walkable, and
// Closed is set when the walk happens to end next to where it began.
func BuildRoute(start TileCoord, oracle WalkabilityOracle, maxLen int) (*Route, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxRouteLength
	}
	if !tileUsable(oracle, start) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrInvalidStart, start.X, start.Y)
	}

	member := collectReachable(start, oracle, maxLen)

	var waypoints []TileCoord
	closed := false
	if isSimpleCycle(member) {
		waypoints = walkRing(start, member)
		closed = true
	} else {
		waypoints = walkDepthFirst(start, member, maxLen)
		// The ends of the walk may happen to touch; loop it if so. The
		// cycle property is not re-verified here, so an irregular closed
		// topology is looped in backtrack order, duplicates included.
		if len(waypoints) >= 2 {
			first := waypoints[0]
			last := waypoints[len(waypoints)-1]
			closed = first == last || first.Adjacent(last)
		}
	}

	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: got %d from (%d,%d)", ErrRouteTooShort, len(waypoints), start.X, start.Y)
	}
	return &Route{Waypoints: waypoints, Closed: closed}, nil
}

// collectReachable expands outward from start in FIFO order, collecting
// usable tiles until the frontier is exhausted or maxLen tiles are held.
// The cap is checked before every add.
func collectReachable(start TileCoord, oracle WalkabilityOracle, maxLen int) map[TileCoord]bool {
	member := map[TileCoord]bool{start: true}
	queue := []TileCoord{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range cardinalOffsets {
			n := cur.Add(d)
			if member[n] || !tileUsable(oracle, n) {
				continue
			}
			if len(member) >= maxLen {
				return member
			}
			member[n] = true
			queue = append(queue, n)
		}
	}
	return member
}

// isSimpleCycle reports whether the tile set is a ring: at least 3 tiles,
// each with exactly 2 neighbors inside the set. A tile with 1 set-neighbor
// is a dead end, one with 3+ a junction; either disqualifies the set.
func isSimpleCycle(member map[TileCoord]bool) bool {
	if len(member) < 3 {
		return false
	}
	for t := range member {
		n := 0
		for _, d := range cardinalOffsets {
			if member[t.Add(d)] {
				n++
			}
		}
		if n != 2 {
			return false
		}
	}
	return true
}

// walkRing emits the ring in order starting at start. Each ring tile has
// exactly 2 set-neighbors and one was just consumed, so the next step is
// always unique.
func walkRing(start TileCoord, member map[TileCoord]bool) []TileCoord {
	ring := make([]TileCoord, 0, len(member))
	ring = append(ring, start)
	visited := map[TileCoord]bool{start: true}
	cur := start
	for len(ring) < len(member) {
		advanced := false
		for _, d := range cardinalOffsets {
			n := cur.Add(d)
			if member[n] && !visited[n] {
				visited[n] = true
				ring = append(ring, n)
				cur = n
				advanced = true
				break
			}
		}
		if !advanced {
			break // unreachable for a verified ring
		}
	}
	return ring
}

// walkDepthFirst traverses the set from start and records every step the
// walker physically takes: a tile is re-emitted each time a branch returns
// to it, so consecutive waypoints stay grid-adjacent. The final unwind back
// to the start is trimmed — the walker just stops at the last new tile.
// Recursion depth is bounded by maxLen.
func walkDepthFirst(start TileCoord, member map[TileCoord]bool, maxLen int) []TileCoord {
	var out []TileCoord
	visited := make(map[TileCoord]bool, len(member))
	lastNew := 0

	var walk func(t TileCoord)
	walk = func(t TileCoord) {
		visited[t] = true
		out = append(out, t)
		lastNew = len(out) - 1
		for _, d := range cardinalOffsets {
			n := t.Add(d)
			if !member[n] || visited[n] || len(visited) >= maxLen {
				continue
			}
			walk(n)
			out = append(out, t) // backtrack step
		}
	}
	walk(start)
	return out[:lastNew+1]
}
