package patrol

import (
	"fmt"
	"math/rand"
)

// simTickDt is the fixed timestep used by headless runs: 60 ticks per second.
const simTickDt = 1.0 / 60.0

// elevationWorldStep converts a tile's elevation step to a visual world
// offset. Negative = drawn higher on screen.
const elevationWorldStep = -4.0

// TestSim is a headless simulation harness used by tests and the report
// CLI. It mirrors the viewer's tick loop but has no Ebiten dependency and
// supports deterministic seeding and structured logging.
type TestSim struct {
	Grid   *TileGrid
	Agents []*Agent
	SimLog *SimLog

	labels   []string
	obstacle *Vec2
	rng      *rand.Rand
	tick     int
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // grid, seed, verbose — applied first
	simOptAgent                      // add agents — applied after the grid exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithGrid sets the walkability grid.
func WithGrid(g *TileGrid) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Grid = g
	}}
}

// WithGridRows builds the grid from ASCII rows ('.' walkable, '#' solid,
// 'o' obstructed).
func WithGridRows(rows ...string) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Grid = GridFromRows(rows...)
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- test harness
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.SimLog = NewSimLog(v)
	}}
}

// WithAgent places an agent on a tile. Each agent draws from the sim RNG
// so runs stay reproducible under a fixed seed.
func WithAgent(tileX, tileY int) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		a := NewAgent(tileX, tileY, defaultTileSize, ts.rng)
		ts.Agents = append(ts.Agents, a)
		ts.labels = append(ts.labels, fmt.Sprintf("A%d", len(ts.Agents)-1))
	}}
}

// WithObstacleAt places the tracked obstacle at a world position.
func WithObstacleAt(x, y float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.obstacle = &Vec2{X: x, Y: y}
	}}
}

// NewTestSim constructs a TestSim: infrastructure options first, then
// agents, so agents always see the final grid and seed.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		SimLog: NewSimLog(false),
		rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- test harness default
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	if ts.Grid == nil {
		ts.Grid = NewTileGrid(1, 1)
	}
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	return ts
}

// MoveObstacle repositions the tracked obstacle.
func (ts *TestSim) MoveObstacle(x, y float64) {
	ts.obstacle = &Vec2{X: x, Y: y}
}

// ClearObstacle removes the tracked obstacle; agents skip the overlap
// check while it is absent.
func (ts *TestSim) ClearObstacle() {
	ts.obstacle = nil
}

// ReinitializeAll rebuilds every agent's route after a grid edit and logs
// the outcome. Returns how many rebuilds succeeded.
func (ts *TestSim) ReinitializeAll() int {
	ok := 0
	for i, a := range ts.Agents {
		if a.ReinitializeRoute(ts.Grid) {
			ok++
			ts.SimLog.Add(ts.tick, ts.labels[i], "route", "rebuilt",
				fmt.Sprintf("%d waypoints closed=%v", a.Route().Len(), a.Route().Closed), float64(a.Route().Len()))
		} else {
			ts.SimLog.Add(ts.tick, ts.labels[i], "route", "rebuild_failed", "stranded", 0)
		}
	}
	return ok
}

// RunTicks advances the simulation n ticks at the fixed timestep.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.tick++
		ts.runOneTick()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if
// predicate returns true. Returns the tick at which the predicate was
// satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.tick++
		ts.runOneTick()
		if predicate(ts) {
			return ts.tick
		}
	}
	return -1
}

// CurrentTick returns the current simulation tick.
func (ts *TestSim) CurrentTick() int { return ts.tick }

// runOneTick mirrors the viewer's update loop for the headless harness.
func (ts *TestSim) runOneTick() {
	tick := ts.tick

	prevModes := make([]AgentMode, len(ts.Agents))
	prevTargets := make([]TileCoord, len(ts.Agents))
	prevRoutes := make([]bool, len(ts.Agents))
	for i, a := range ts.Agents {
		prevModes[i] = a.Mode()
		prevTargets[i] = a.TargetTile()
		prevRoutes[i] = a.Route() != nil
	}

	for i, a := range ts.Agents {
		cur := a.CurrentTile()
		a.SetElevationTarget(float64(ts.Grid.Elevation(cur.X, cur.Y)) * elevationWorldStep)
		a.Update(simTickDt, ts.Grid, ts.obstacle)

		label := ts.labels[i]
		if a.Mode() != prevModes[i] {
			ts.SimLog.Add(tick, label, "state", "change",
				fmt.Sprintf("%s → %s", prevModes[i], a.Mode()), 0)
		}
		if !prevRoutes[i] && a.Route() != nil {
			ts.SimLog.Add(tick, label, "route", "built",
				fmt.Sprintf("%d waypoints closed=%v", a.Route().Len(), a.Route().Closed), float64(a.Route().Len()))
		}
		if a.TargetTile() != prevTargets[i] {
			ts.SimLog.Add(tick, label, "move", "new_target",
				fmt.Sprintf("(%d,%d)", a.TargetTile().X, a.TargetTile().Y), 0)
		}
		p := a.Position()
		ts.SimLog.AddVerbose(tick, label, "move", "position",
			fmt.Sprintf("(%.1f,%.1f) %s", p.X, p.Y, a.Facing()), 0)
	}
}
