package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"townsfolk/internal/patrol"
)

type runStats struct {
	runIndex int
	seed     int64

	firstRouteTick int
	routeLen       int
	routeClosed    bool

	stateChanges  int
	pausesEntered int
	obstacleStops int
	targetsPulled int
	rebuilds      int
	strandings    int
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var mapPath string
	var sweep bool

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 3600, "ticks per run (60 per second)")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&mapPath, "map", "", "YAML map file (empty = built-in courtyard)")
	flag.BoolVar(&sweep, "sweep", true, "sweep an obstacle across the map mid-run")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}

	fmt.Printf("=== Patrol Behaviour Report ===\n")
	fmt.Printf("runs=%d ticks=%d seed_base=%d seed_step=%d map=%s sweep=%v\n\n",
		runs, ticks, seedBase, seedStep, mapLabel(mapPath), sweep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, err := runScenario(i+1, seed, ticks, mapPath, sweep)
		if err != nil {
			fmt.Printf("run %d failed: %v\n", i+1, err)
			return
		}
		all = append(all, stats)
		printRun(stats)
	}
	printAggregate(all)
}

func mapLabel(path string) string {
	if path == "" {
		return "builtin-courtyard"
	}
	return path
}

// builtinCourtyard is a small walled yard with a pillar, so routes come out
// open (ping-pong) with a few backtrack branches.
func builtinCourtyard() *patrol.TileGrid {
	return patrol.GridFromRows(
		"##########",
		"#........#",
		"#.##.....#",
		"#.##..#..#",
		"#........#",
		"#...##...#",
		"#........#",
		"##########",
	)
}

func runScenario(runIndex int, seed int64, ticks int, mapPath string, sweep bool) (runStats, error) {
	var grid *patrol.TileGrid
	spawn := patrol.TileCoord{X: 1, Y: 1}
	if mapPath == "" {
		grid = builtinCourtyard()
	} else {
		g, spec, err := patrol.LoadGridFile(mapPath)
		if err != nil {
			return runStats{}, err
		}
		grid = g
		// First spawn in name order: map iteration order would make
		// identically-seeded runs pick different spawns.
		names := make([]string, 0, len(spec.Spawns))
		for name := range spec.Spawns {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > 0 {
			sp := spec.Spawns[names[0]]
			spawn = patrol.TileCoord{X: sp.X, Y: sp.Y}
		}
	}

	ts := patrol.NewTestSim(
		patrol.WithGrid(grid),
		patrol.WithSeed(seed),
		patrol.WithAgent(spawn.X, spawn.Y),
	)

	// Run in chunks so the obstacle sweep can cross the agent's patrol
	// area mid-run.
	cols, rows := grid.Bounds()
	chunk := ticks / 10
	if chunk < 1 {
		chunk = 1
	}
	done := 0
	for done < ticks {
		n := chunk
		if done+n > ticks {
			n = ticks - done
		}
		if sweep {
			// March the obstacle left to right along the middle row.
			frac := float64(done) / float64(ticks)
			x := frac * float64(cols*16)
			y := float64(rows/2)*16 + 16
			ts.MoveObstacle(x, y)
		}
		ts.RunTicks(n)
		done += n
	}

	stats := runStats{runIndex: runIndex, seed: seed, firstRouteTick: -1}
	for _, e := range ts.SimLog.Entries() {
		switch e.Category {
		case "route":
			switch e.Key {
			case "built":
				if stats.firstRouteTick < 0 {
					stats.firstRouteTick = e.Tick
					stats.routeLen = int(e.NumVal)
					stats.routeClosed = strings.Contains(e.Value, "closed=true")
				}
			case "rebuilt":
				stats.rebuilds++
			case "rebuild_failed":
				stats.strandings++
			}
		case "state":
			if e.Key != "change" {
				continue
			}
			stats.stateChanges++
			if strings.HasSuffix(e.Value, "→ paused") {
				stats.pausesEntered++
			}
			if strings.HasSuffix(e.Value, "→ stopped") {
				stats.obstacleStops++
			}
		case "move":
			if e.Key == "new_target" {
				stats.targetsPulled++
			}
		}
	}
	return stats, nil
}

func printRun(s runStats) {
	mode := "ping-pong"
	if s.routeClosed {
		mode = "loop"
	}
	fmt.Printf("--- run %d (seed %d) ---\n", s.runIndex, s.seed)
	if s.firstRouteTick < 0 {
		fmt.Printf("route: never built\n")
	} else {
		fmt.Printf("route: built at T=%d, %d waypoints, %s\n", s.firstRouteTick, s.routeLen, mode)
	}
	fmt.Printf("state changes: %d  pauses: %d  obstacle stops: %d\n",
		s.stateChanges, s.pausesEntered, s.obstacleStops)
	fmt.Printf("waypoints pulled: %d  rebuilds: %d  strandings: %d\n\n",
		s.targetsPulled, s.rebuilds, s.strandings)
}

func printAggregate(all []runStats) {
	if len(all) == 0 {
		return
	}
	var pauses, stops, targets, changes int
	for _, s := range all {
		pauses += s.pausesEntered
		stops += s.obstacleStops
		targets += s.targetsPulled
		changes += s.stateChanges
	}
	n := float64(len(all))
	fmt.Printf("=== aggregate over %d runs ===\n", len(all))
	fmt.Printf("avg state changes: %.1f\n", float64(changes)/n)
	fmt.Printf("avg pauses:        %.1f\n", float64(pauses)/n)
	fmt.Printf("avg obstacle stops: %.1f\n", float64(stops)/n)
	fmt.Printf("avg waypoints pulled: %.1f\n", float64(targets)/n)
}
