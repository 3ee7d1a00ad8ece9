package patrol

import (
	"errors"
	"testing"
)

func TestBuildRoute_CorridorIsOpen(t *testing.T) {
	// 1x5 corridor: a dead-ended line, so no cycle and no closure.
	g := GridFromRows(".....")
	r, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	if r.Closed {
		t.Fatal("corridor route should be open (ping-pong)")
	}
	want := []TileCoord{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}
	if len(r.Waypoints) != len(want) {
		t.Fatalf("expected %d waypoints, got %d", len(want), len(r.Waypoints))
	}
	for i, wp := range want {
		if r.Waypoints[i] != wp {
			t.Fatalf("waypoint %d: expected %v, got %v", i, wp, r.Waypoints[i])
		}
	}
}

func TestBuildRoute_TwoByTwoIsCycle(t *testing.T) {
	// A 2x2 block is the smallest ring: every tile has exactly 2 set-neighbors.
	g := GridFromRows(
		"..",
		"..",
	)
	r, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	if !r.Closed {
		t.Fatal("2x2 block should build a closed route")
	}
	if len(r.Waypoints) != 4 {
		t.Fatalf("expected 4 waypoints, got %d", len(r.Waypoints))
	}
	assertNoRepeats(t, r.Waypoints)
	assertContiguous(t, r)
}

func TestBuildRoute_RingWalksInOrder(t *testing.T) {
	// 4x3 donut: 10 ring tiles around a 2-tile hole.
	g := GridFromRows(
		"....",
		".##.",
		"....",
	)
	r, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	if !r.Closed {
		t.Fatal("ring should build a closed route")
	}
	if len(r.Waypoints) != 10 {
		t.Fatalf("expected 10 waypoints, got %d", len(r.Waypoints))
	}
	assertNoRepeats(t, r.Waypoints)
	assertContiguous(t, r)
	// Wraparound: last ring tile is adjacent to the first.
	first := r.Waypoints[0]
	last := r.Waypoints[len(r.Waypoints)-1]
	if !first.Adjacent(last) {
		t.Fatalf("ring ends %v and %v are not adjacent", first, last)
	}
}

func TestBuildRoute_BranchEmitsBacktracks(t *testing.T) {
	// T-shape: the walk must physically return through (1,0) before taking
	// the downward branch, so (1,0) appears twice.
	g := GridFromRows(
		"...",
		"#.#",
		"#.#",
	)
	r, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	want := []TileCoord{{0, 0}, {1, 0}, {2, 0}, {1, 0}, {1, 1}, {1, 2}}
	if len(r.Waypoints) != len(want) {
		t.Fatalf("expected %d waypoints, got %d: %v", len(want), len(r.Waypoints), r.Waypoints)
	}
	for i, wp := range want {
		if r.Waypoints[i] != wp {
			t.Fatalf("waypoint %d: expected %v, got %v", i, wp, r.Waypoints[i])
		}
	}
	if r.Closed {
		t.Fatal("T-shape ends are not adjacent; route should be open")
	}
}

func TestBuildRoute_BlockClosesWithoutCycleOrder(t *testing.T) {
	// A full 3x2 block has junction tiles, so it is not a simple cycle,
	// but the depth-first walk happens to end next to the start and is
	// flagged closed in backtrack order.
	g := GridFromRows(
		"...",
		"...",
	)
	r, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	if !r.Closed {
		t.Fatalf("expected closure: last waypoint %v touches start %v",
			r.Waypoints[len(r.Waypoints)-1], r.Waypoints[0])
	}
	assertContiguous(t, r)
}

func TestBuildRoute_InvalidStart(t *testing.T) {
	g := GridFromRows(
		"#.",
		"..",
	)
	if _, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0); !errors.Is(err, ErrInvalidStart) {
		t.Fatalf("expected ErrInvalidStart for solid tile, got %v", err)
	}
	if _, err := BuildRoute(TileCoord{X: -3, Y: 0}, g, 0); !errors.Is(err, ErrInvalidStart) {
		t.Fatalf("expected ErrInvalidStart out of bounds, got %v", err)
	}
}

func TestBuildRoute_ObstructedStart(t *testing.T) {
	g := GridFromRows("o.")
	if _, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0); !errors.Is(err, ErrInvalidStart) {
		t.Fatalf("expected ErrInvalidStart for obstructed tile, got %v", err)
	}
}

func TestBuildRoute_IsolatedTileTooShort(t *testing.T) {
	g := GridFromRows("#.#")
	_, err := BuildRoute(TileCoord{X: 1, Y: 0}, g, 0)
	if !errors.Is(err, ErrRouteTooShort) {
		t.Fatalf("expected ErrRouteTooShort for 1-tile pocket, got %v", err)
	}
}

func TestBuildRoute_MaxLengthCapsExploration(t *testing.T) {
	g := GridFromRows("..........")
	r, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 4)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	// BFS collects exactly 4 tiles before the cap: 0..3 of the corridor.
	if len(r.Waypoints) != 4 {
		t.Fatalf("expected 4 waypoints under cap, got %d", len(r.Waypoints))
	}
	if r.Waypoints[3] != (TileCoord{X: 3, Y: 0}) {
		t.Fatalf("expected cap to stop at (3,0), got %v", r.Waypoints[3])
	}
}

func TestBuildRoute_CapKeepsRegionCompact(t *testing.T) {
	// Open 9x9 area, cap 9: FIFO expansion collects start + ring 1 + part
	// of ring 2, all within Manhattan distance 2 of the start.
	rows := make([]string, 9)
	for i := range rows {
		rows[i] = "........."
	}
	g := GridFromRows(rows...)
	start := TileCoord{X: 4, Y: 4}
	r, err := BuildRoute(start, g, 9)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	for _, wp := range r.Waypoints {
		dx := wp.X - start.X
		dy := wp.Y - start.Y
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		if dx+dy > 2 {
			t.Fatalf("waypoint %v is %d steps from start; FIFO cap should keep the set compact", wp, dx+dy)
		}
	}
}

func TestBuildRoute_Deterministic(t *testing.T) {
	g := GridFromRows(
		"......",
		".##...",
		".#..#.",
		"......",
	)
	r1, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	r2, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
	if err != nil {
		t.Fatalf("unexpected build failure: %v", err)
	}
	if r1.Closed != r2.Closed || len(r1.Waypoints) != len(r2.Waypoints) {
		t.Fatalf("builds differ: %v/%d vs %v/%d", r1.Closed, len(r1.Waypoints), r2.Closed, len(r2.Waypoints))
	}
	for i := range r1.Waypoints {
		if r1.Waypoints[i] != r2.Waypoints[i] {
			t.Fatalf("waypoint %d differs: %v vs %v", i, r1.Waypoints[i], r2.Waypoints[i])
		}
	}
}

func TestBuildRoute_WaypointCountBounds(t *testing.T) {
	grids := []*TileGrid{
		GridFromRows("....."),
		GridFromRows("..", ".."),
		GridFromRows("...", "#.#", "#.#"),
		GridFromRows("......", ".##...", ".#..#.", "......"),
	}
	for gi, g := range grids {
		r, err := BuildRoute(TileCoord{X: 0, Y: 0}, g, 0)
		if err != nil {
			t.Fatalf("grid %d: unexpected build failure: %v", gi, err)
		}
		if n := len(r.Waypoints); n < 2 || n > 2*DefaultMaxRouteLength {
			t.Fatalf("grid %d: waypoint count %d outside [2, %d]", gi, n, 2*DefaultMaxRouteLength)
		}
		assertContiguous(t, r)
	}
}

// assertContiguous fails unless every consecutive waypoint pair is
// grid-adjacent (Manhattan distance exactly 1).
func assertContiguous(t *testing.T, r *Route) {
	t.Helper()
	for i := 1; i < len(r.Waypoints); i++ {
		if !r.Waypoints[i-1].Adjacent(r.Waypoints[i]) {
			t.Fatalf("waypoints %d→%d not adjacent: %v → %v", i-1, i, r.Waypoints[i-1], r.Waypoints[i])
		}
	}
}

func assertNoRepeats(t *testing.T, wps []TileCoord) {
	t.Helper()
	seen := map[TileCoord]bool{}
	for i, wp := range wps {
		if seen[wp] {
			t.Fatalf("waypoint %d repeats tile %v", i, wp)
		}
		seen[wp] = true
	}
}
