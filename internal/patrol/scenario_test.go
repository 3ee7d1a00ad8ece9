package patrol

import (
	"testing"
)

// Full-loop scenarios driven through the headless harness, mirroring what
// the viewer does per frame.

func TestScenario_RingPatrolLoops(t *testing.T) {
	// 4x3 walkable ring around a 2x1 hole: a simple cycle, walked as a
	// closed loop without ever revisiting a waypoint mid-lap.
	sim := NewTestSim(
		WithGridRows(
			"######",
			"#....#",
			"#.##.#",
			"#....#",
			"######",
		),
		WithSeed(11),
		WithAgent(1, 1),
	)

	sim.RunTicks(3600) // one simulated minute
	if sim.SimLog.CountCategory("route", "built") != 1 {
		t.Fatalf("expected exactly one route build:\n%s", sim.SimLog.Format())
	}
	if !sim.SimLog.HasEntry("route", "built", "10 waypoints closed=true") {
		t.Fatalf("expected a 10-waypoint closed loop:\n%s", sim.SimLog.Format())
	}
	// 16 units per hop at 32 u/s is 0.5s; even with pauses a minute covers
	// several laps.
	if n := sim.SimLog.CountCategory("move", "new_target"); n < 20 {
		t.Fatalf("expected at least 20 waypoint pulls in a minute, got %d", n)
	}

	a := sim.Agents[0]
	cur := a.CurrentTile()
	if !sim.Grid.IsWalkable(cur.X, cur.Y) {
		t.Fatalf("agent drifted onto unwalkable tile %v", cur)
	}
	if a.Mode() == ModeNoRoute || a.Mode() == ModeStopped {
		t.Fatalf("unexpected terminal mode %s", a.Mode())
	}
}

func TestScenario_ObstacleStopsAndResumes(t *testing.T) {
	sim := NewTestSim(
		WithGridRows(
			"#######",
			"#.....#",
			"#######",
		),
		WithSeed(3),
		WithAgent(1, 1),
	)
	a := sim.Agents[0]

	// Let the patrol get going.
	sim.RunTicks(30)
	if a.Mode() != ModeWalking {
		t.Fatalf("expected walking after warmup, got %s", a.Mode())
	}

	// Drop the obstacle directly on the agent.
	p := a.Position()
	sim.MoveObstacle(p.X, p.Y)
	sim.RunTicks(1)
	if a.Mode() != ModeStopped {
		t.Fatalf("expected stopped on overlap, got %s", a.Mode())
	}
	if !sim.SimLog.HasEntry("state", "change", "→ stopped") {
		t.Fatalf("missing stop transition:\n%s", sim.SimLog.Format())
	}

	// Remove it; the 0.5s resume delay is 30 ticks, so 60 is plenty.
	sim.ClearObstacle()
	sim.RunTicks(60)
	if a.Mode() != ModeWalking {
		t.Fatalf("expected resumed walking, got %s", a.Mode())
	}
	if !sim.SimLog.HasEntry("state", "change", "stopped → walking") {
		t.Fatalf("missing resume transition:\n%s", sim.SimLog.Format())
	}
}

func TestScenario_PausesHappenAndEnd(t *testing.T) {
	sim := NewTestSim(
		WithGridRows(
			"#######",
			"#.....#",
			"#######",
		),
		WithSeed(1),
		WithAgent(1, 1),
	)
	a := sim.Agents[0]

	// Roll windows are 5-10s and each roll pauses with p=0.3; ten minutes
	// of corridor walking makes a pause a statistical certainty.
	paused := sim.RunUntil(func(*TestSim) bool {
		return a.Mode() == ModePaused
	}, 36000)
	if paused < 0 {
		t.Fatalf("no pause in ten simulated minutes:\n%s", sim.SimLog.Format())
	}
	if !sim.SimLog.HasEntry("state", "change", "→ paused") {
		t.Fatalf("missing pause transition:\n%s", sim.SimLog.Format())
	}

	// Pauses last at most 5s (300 ticks).
	resumed := sim.RunUntil(func(*TestSim) bool {
		return a.Mode() == ModeWalking
	}, 400)
	if resumed < 0 {
		t.Fatalf("pause never ended:\n%s", sim.SimLog.Format())
	}
}

func TestScenario_ObstacleDuringPauseResumesPause(t *testing.T) {
	sim := NewTestSim(
		WithGridRows(
			"#######",
			"#.....#",
			"#######",
		),
		WithSeed(1),
		WithAgent(1, 1),
	)
	a := sim.Agents[0]

	if sim.RunUntil(func(*TestSim) bool { return a.Mode() == ModePaused }, 36000) < 0 {
		t.Fatalf("no pause in ten simulated minutes:\n%s", sim.SimLog.Format())
	}

	// Bump the resting agent. Pauses last at least 2s and the stop costs
	// ~0.5s, so the rest must still be running after the resume.
	p := a.Position()
	sim.MoveObstacle(p.X, p.Y)
	sim.RunTicks(1)
	if a.Mode() != ModeStopped {
		t.Fatalf("expected stopped, got %s", a.Mode())
	}
	sim.ClearObstacle()
	sim.RunTicks(31) // resume delay is 30 ticks
	if a.Mode() != ModePaused {
		t.Fatalf("resume should restore the interrupted pause, got %s", a.Mode())
	}
	if sim.RunUntil(func(*TestSim) bool { return a.Mode() == ModeWalking }, 400) < 0 {
		t.Fatalf("restored pause never ended:\n%s", sim.SimLog.Format())
	}
}

func TestScenario_StrandedThenRescued(t *testing.T) {
	sim := NewTestSim(
		WithGridRows(
			"###",
			"#.#",
			"###",
		),
		WithSeed(5),
		WithAgent(1, 1),
	)
	a := sim.Agents[0]

	sim.RunTicks(10)
	if a.Mode() != ModeNoRoute {
		t.Fatalf("expected no-route in a 1-tile pocket, got %s", a.Mode())
	}
	if !sim.SimLog.HasEntry("state", "change", "→ no-route") {
		t.Fatalf("missing no-route transition:\n%s", sim.SimLog.Format())
	}

	// A rebuild attempt against the unchanged grid fails and is logged.
	if got := sim.ReinitializeAll(); got != 0 {
		t.Fatalf("expected 0 successful rebuilds, got %d", got)
	}
	if !sim.SimLog.HasEntry("route", "rebuild_failed", "") {
		t.Fatalf("missing rebuild_failed entry:\n%s", sim.SimLog.Format())
	}

	// Open the pocket and rebuild: the agent recovers.
	sim.Grid.SetWalkable(1, 0, true)
	if got := sim.ReinitializeAll(); got != 1 {
		t.Fatalf("expected 1 successful rebuild, got %d", got)
	}
	if a.Mode() != ModeWalking {
		t.Fatalf("expected walking after rescue, got %s", a.Mode())
	}
	sim.RunTicks(120)
	if a.Mode() == ModeNoRoute {
		t.Fatal("rescued agent fell back into no-route")
	}
}

func TestScenario_ElevationFollowsTiles(t *testing.T) {
	g := GridFromRows(
		"#####",
		"#...#",
		"#####",
	)
	g.SetElevation(3, 1, 1)
	sim := NewTestSim(
		WithGrid(g),
		WithSeed(9),
		WithAgent(1, 1),
	)
	a := sim.Agents[0]

	reached := sim.RunUntil(func(*TestSim) bool {
		return a.CurrentTile() == (TileCoord{X: 3, Y: 1})
	}, 36000)
	if reached < 0 {
		t.Fatalf("agent never reached the raised tile:\n%s", sim.SimLog.Format())
	}
	// One elevation step renders 4 units higher; the blend needs 0.15s
	// (9 ticks) once the harness notices the tile change.
	sim.RunTicks(15)
	if a.CurrentTile() == (TileCoord{X: 3, Y: 1}) && a.ElevationOffset() >= 0 {
		t.Fatalf("expected a negative elevation offset on the raised tile, got %.2f", a.ElevationOffset())
	}
}

func TestScenario_TwoAgentsShareSeededRNG(t *testing.T) {
	run := func() string {
		sim := NewTestSim(
			WithGridRows(
				"######",
				"#....#",
				"#....#",
				"######",
			),
			WithSeed(42),
			WithAgent(1, 1),
			WithAgent(4, 2),
		)
		sim.RunTicks(7200)
		return sim.SimLog.Format()
	}
	if run() != run() {
		t.Fatal("identical seeds must produce identical logs")
	}
}

func TestScenario_VerboseLoggingRecordsPositions(t *testing.T) {
	sim := NewTestSim(
		WithGridRows(
			"####",
			"#..#",
			"####",
		),
		WithVerbose(true),
		WithAgent(1, 1),
	)
	sim.RunTicks(10)
	if sim.SimLog.CountCategory("move", "position") != 10 {
		t.Fatalf("expected one position entry per tick, got %d",
			sim.SimLog.CountCategory("move", "position"))
	}
}
