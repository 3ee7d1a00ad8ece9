package patrol

import (
	"math"
	"math/rand"
	"time"
)

const (
	defaultTileSize = 16

	walkSpeed    = 32.0 // world units per second (2 tiles/s at 16px tiles)
	arriveRadius = 0.5  // world units from the target anchor that count as arrival

	resumeDelay       = 0.5 // seconds of stillness after an obstacle overlap
	blockedRetryDelay = 0.5 // wait before retrying a blocked step or failed waypoint pull

	lookAroundEvery = 2.0 // seconds between idle facing changes

	pauseChance     = 0.30 // chance of resting at a waypoint once the roll window elapses
	pauseMinSeconds = 2.0
	pauseMaxSeconds = 5.0
	pauseRollMin    = 5.0 // roll window re-seed range
	pauseRollMax    = 10.0

	hitboxWidth  = 12.0
	hitboxHeight = 10.0
	hitboxInset  = 1.0 // inward epsilon so edge-adjacent boxes don't register

	elevationWindow = 0.15 // seconds to blend the visual elevation offset

	walkFrameEvery = 0.18 // seconds per walk-cycle frame
	walkFrameCount = 4
)

// AgentMode is the agent's high-level behaviour state. Exactly one is
// active each tick.
type AgentMode int

const (
	ModeWalking AgentMode = iota // advancing along the route
	ModeNoRoute                  // no valid route could be built; idling
	ModePaused                   // route valid, resting at a waypoint
	ModeStopped                  // an external obstacle overlaps the agent
)

func (m AgentMode) String() string {
	switch m {
	case ModeWalking:
		return "walking"
	case ModeNoRoute:
		return "no-route"
	case ModePaused:
		return "paused"
	case ModeStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Agent is one autonomous walker. It owns its motion state exclusively;
// nothing here is shared between agents, so a single-threaded tick loop
// needs no locking.
type Agent struct {
	pos      Vec2 // ground-contact point
	tileSize int

	currentTile TileCoord
	targetTile  TileCoord
	mode        AgentMode
	resumeMode  AgentMode // mode to restore once an obstacle stop ends
	facing      Direction

	route       *Route
	cursor      *RouteCursor
	maxRouteLen int

	// Countdown timers, each decremented only in the state that uses it.
	waitTimer      float64 // inter-waypoint rest / blocked-step retry
	pauseTimer     float64 // remaining rest while ModePaused
	pauseRollTimer float64 // time until the next pause roll is allowed
	lookTimer      float64 // time until the next idle facing change
	resumeTimer    float64 // stillness left after an obstacle overlap

	// Walk-cycle animation.
	frame      int
	frameTimer float64

	// Visual elevation offset, blended toward elevTarget over a fixed
	// window. Purely cosmetic; runs in every state.
	elevOffset float64
	elevFrom   float64
	elevTarget float64
	elevClock  float64

	rng *rand.Rand
}

// NewAgent places an agent on a tile. The rng drives pause rolls and idle
// look-around; pass a seeded source for deterministic runs (nil falls back
// to a time-seeded one).
func NewAgent(tileX, tileY, tileSize int, rng *rand.Rand) *Agent {
	if tileSize <= 0 {
		tileSize = defaultTileSize
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- behaviour jitter, not crypto
	}
	a := &Agent{
		tileSize:    tileSize,
		mode:        ModeWalking,
		facing:      FacingDown,
		maxRouteLen: DefaultMaxRouteLength,
		rng:         rng,
	}
	a.SetTilePosition(tileX, tileY, tileSize, false)
	return a
}

// SetMaxRouteLength overrides the route length cap used by future builds.
func (a *Agent) SetMaxRouteLength(n int) {
	if n > 0 {
		a.maxRouteLen = n
	}
}

// SetTilePosition teleports the agent onto a tile. With preserveRoute=false
// the route and cursor are discarded; the next arrival (immediate, since
// the target is the tile under the agent) triggers a fresh build.
func (a *Agent) SetTilePosition(tileX, tileY, tileSize int, preserveRoute bool) {
	if tileSize > 0 {
		a.tileSize = tileSize
	}
	a.currentTile = TileCoord{X: tileX, Y: tileY}
	a.targetTile = a.currentTile
	a.pos = tileAnchor(a.currentTile, a.tileSize)
	a.waitTimer = 0
	if !preserveRoute {
		a.route = nil
		a.cursor = nil
		a.mode = ModeWalking
	}
}

// ReinitializeRoute rebuilds the route from the tile under the agent's
// feet. Callers invoke it after the walkable-tile set changed; a failed
// build leaves the agent in ModeNoRoute and returns false, and the caller
// decides whether to keep or remove the agent.
func (a *Agent) ReinitializeRoute(oracle WalkabilityOracle) bool {
	tile := tileAt(a.pos, a.tileSize)
	r, err := BuildRoute(tile, oracle, a.maxRouteLen)
	if err != nil {
		a.route = nil
		a.cursor = nil
		a.mode = ModeNoRoute
		a.lookTimer = lookAroundEvery
		return false
	}
	a.route = r
	a.cursor = NewRouteCursor(r)
	a.currentTile = tile
	a.targetTile = tile
	a.mode = ModeWalking
	a.waitTimer = 0
	a.pauseRollTimer = a.rollWindow()
	return true
}

// Update runs one tick. obstacle is the tracked external position (the
// player, typically); nil skips the overlap check entirely.
func (a *Agent) Update(dt float64, oracle WalkabilityOracle, obstacle *Vec2) {
	// Elevation blending is orthogonal to the state machine and runs
	// unconditionally, before anything else.
	a.updateElevation(dt)

	// 1. Obstacle overlap pre-empts every state. The interrupted mode is
	// restored on resume: a paused agent keeps its remaining rest, and a
	// stranded agent stays stranded instead of retrying a route build no
	// world edit has invalidated.
	if obstacle != nil && hitboxesOverlap(a.pos, *obstacle) {
		if a.mode != ModeStopped {
			a.resumeMode = a.mode
		}
		a.mode = ModeStopped
		a.resumeTimer = resumeDelay
		a.resetAnimation()
		return
	}

	// 2. Hold still until the resume delay runs out.
	if a.mode == ModeStopped || a.resumeTimer > 0 {
		a.resumeTimer -= dt
		a.resetAnimation()
		if a.resumeTimer <= 0 {
			a.resumeTimer = 0
			if a.mode == ModeStopped {
				a.mode = a.resumeMode
			}
		}
		return
	}

	switch a.mode {
	case ModePaused:
		a.pauseTimer -= dt
		a.lookAround(dt)
		if a.pauseTimer <= 0 {
			a.pauseTimer = 0
			a.mode = ModeWalking
		}
	case ModeNoRoute:
		// Idle forever; a rebuild happens only via ReinitializeRoute.
		a.lookAround(dt)
	default:
		a.walk(dt, oracle, obstacle)
	}
}

// walk advances toward the target waypoint and handles arrival.
func (a *Agent) walk(dt float64, oracle WalkabilityOracle, obstacle *Vec2) {
	// Track the tile under the agent's feet.
	a.currentTile = tileAt(a.pos, a.tileSize)

	if a.pauseRollTimer > 0 {
		a.pauseRollTimer -= dt
	}

	// Inter-waypoint rest.
	if a.waitTimer > 0 {
		a.waitTimer -= dt
		return
	}

	// Walk-cycle animation.
	a.frameTimer += dt
	if a.frameTimer >= walkFrameEvery {
		a.frameTimer -= walkFrameEvery
		a.frame = (a.frame + 1) % walkFrameCount
	}

	target := tileAnchor(a.targetTile, a.tileSize)
	dx := target.X - a.pos.X
	dy := target.Y - a.pos.Y
	dist := math.Hypot(dx, dy)

	if dist < arriveRadius {
		a.pos = target
		a.arrive(oracle)
		return
	}

	// Step toward the target unless the step would land inside the
	// obstacle; in that case hold and retry shortly. No detouring — the
	// obstacle is expected to move on.
	step := walkSpeed * dt
	if step > dist {
		step = dist
	}
	cand := Vec2{X: a.pos.X + dx/dist*step, Y: a.pos.Y + dy/dist*step}
	if obstacle != nil && hitboxesOverlap(cand, *obstacle) {
		a.waitTimer = blockedRetryDelay
		return
	}
	a.pos = cand
	a.facing = facingFromDelta(dx, dy)
}

// arrive runs the waypoint-reached logic: first-arrival route build, pause
// roll, and pulling the next waypoint.
func (a *Agent) arrive(oracle WalkabilityOracle) {
	a.currentTile = a.targetTile

	if a.route == nil {
		r, err := BuildRoute(a.currentTile, oracle, a.maxRouteLen)
		if err != nil {
			a.mode = ModeNoRoute
			a.lookTimer = lookAroundEvery
			return
		}
		a.route = r
		a.cursor = NewRouteCursor(r)
		a.pauseRollTimer = a.rollWindow()
	}

	// Occasional rest, at most one roll per window.
	if a.pauseRollTimer <= 0 {
		a.pauseRollTimer = a.rollWindow()
		if a.rng.Float64() < pauseChance {
			a.mode = ModePaused
			a.pauseTimer = pauseMinSeconds + a.rng.Float64()*(pauseMaxSeconds-pauseMinSeconds)
			a.lookTimer = lookAroundEvery
			a.resetAnimation()
			return
		}
	}

	wp, ok := a.cursor.Next()
	if !ok {
		// No waypoint available; shouldn't happen with a valid route, but
		// degrade to a short wait rather than walking nowhere.
		a.waitTimer = blockedRetryDelay
		return
	}
	a.targetTile = wp
	tdx := wp.X - a.currentTile.X
	tdy := wp.Y - a.currentTile.Y
	if tdx != 0 || tdy != 0 {
		a.facing = facingFromDelta(float64(tdx), float64(tdy))
	}
}

// lookAround changes facing to a random cardinal on a fixed cadence while
// the agent is idling.
func (a *Agent) lookAround(dt float64) {
	a.lookTimer -= dt
	if a.lookTimer <= 0 {
		a.lookTimer = lookAroundEvery
		a.facing = Direction(a.rng.Intn(int(directionCount)))
	}
}

func (a *Agent) rollWindow() float64 {
	return pauseRollMin + a.rng.Float64()*(pauseRollMax-pauseRollMin)
}

func (a *Agent) resetAnimation() {
	a.frame = 0
	a.frameTimer = 0
}

// SetElevationTarget starts blending the visual vertical offset toward h.
// Setting the current target again is a no-op.
func (a *Agent) SetElevationTarget(h float64) {
	if h == a.elevTarget {
		return
	}
	a.elevFrom = a.elevOffset
	a.elevTarget = h
	a.elevClock = 0
}

func (a *Agent) updateElevation(dt float64) {
	if a.elevOffset == a.elevTarget {
		return
	}
	a.elevClock += dt
	t := a.elevClock / elevationWindow
	a.elevOffset = a.elevFrom + (a.elevTarget-a.elevFrom)*smoothstep(t)
	if t >= 1 {
		a.elevOffset = a.elevTarget
	}
}

// hitboxesOverlap tests two equal-size AABBs anchored at ground-contact
// points a and b. Each box spans the hitbox width centred on the anchor
// and extends hitboxHeight upward, inset on all sides.
func hitboxesOverlap(a, b Vec2) bool {
	ax0, ay0, ax1, ay1 := hitboxAt(a)
	bx0, by0, bx1, by1 := hitboxAt(b)
	return ax0 < bx1 && bx0 < ax1 && ay0 < by1 && by0 < ay1
}

func hitboxAt(p Vec2) (x0, y0, x1, y1 float64) {
	return p.X - hitboxWidth/2 + hitboxInset,
		p.Y - hitboxHeight + hitboxInset,
		p.X + hitboxWidth/2 - hitboxInset,
		p.Y - hitboxInset
}

// Position returns the agent's ground-contact point.
func (a *Agent) Position() Vec2 { return a.pos }

// Mode returns the active behaviour state.
func (a *Agent) Mode() AgentMode { return a.mode }

// Facing returns the current cardinal facing.
func (a *Agent) Facing() Direction { return a.facing }

// Frame returns the current walk-cycle frame.
func (a *Agent) Frame() int { return a.frame }

// CurrentTile returns the tile under the agent's feet as of the last tick.
func (a *Agent) CurrentTile() TileCoord { return a.currentTile }

// TargetTile returns the waypoint currently being walked toward.
func (a *Agent) TargetTile() TileCoord { return a.targetTile }

// Route returns the built route, or nil before the first successful build.
func (a *Agent) Route() *Route { return a.route }

// TileSize returns the tile size in world units for this agent.
func (a *Agent) TileSize() int { return a.tileSize }

// ElevationOffset returns the current blended visual vertical offset.
func (a *Agent) ElevationOffset() float64 { return a.elevOffset }
