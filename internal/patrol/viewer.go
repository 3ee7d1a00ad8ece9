package patrol

import (
	"fmt"
	"image/color"
	"math/rand"
	"path/filepath"
	"sort"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	viewerZoom   = 3   // integer upscale of the tile grid
	hudHeight    = 48  // pixel strip under the playfield for HUD text
	viewerTickDt = 1.0 / 60.0

	playerSpeed = 48.0 // world units per second
)

// Viewer is the interactive Ebiten front-end: it renders the grid, the
// agents and their routes, lets the player act as the moving obstacle, and
// applies live map edits (mouse toggles a wall, file watcher reloads the
// map) followed by route rebuilds.
type Viewer struct {
	grid     *TileGrid
	agents   []*Agent
	labels   []string
	tileSize int
	mapPath  string
	watcher  *GridWatcher

	player       Vec2
	playerActive bool

	// Edge-detected inputs.
	mouseLeft  KeyEdge
	togglePlay KeyEdge // P: toggle the player obstacle
	toggleWire KeyEdge // R: toggle route overlay
	copyReport KeyEdge // C: copy first agent's debug report

	showRoutes bool
	status     string

	worldBuf *ebiten.Image
	face     font.Face
	width    int
	height   int
}

// NewViewer loads a YAML map, places one agent per spawn entry, and (when
// watch is true) starts a file watcher on the map's directory so on-disk
// edits propagate into the running world.
func NewViewer(mapPath string, watch bool) (*Viewer, error) {
	grid, spec, err := LoadGridFile(mapPath)
	if err != nil {
		return nil, err
	}

	v := &Viewer{
		grid:       grid,
		tileSize:   spec.TileSize,
		mapPath:    mapPath,
		showRoutes: true,
		face:       basicfont.Face7x13,
		status:     "P: player  R: routes  C: copy report  click: toggle wall",
	}
	cols, rows := grid.Bounds()
	v.width = cols * spec.TileSize * viewerZoom
	v.height = rows*spec.TileSize*viewerZoom + hudHeight
	v.worldBuf = ebiten.NewImage(cols*spec.TileSize, rows*spec.TileSize)

	rng := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- behaviour jitter
	names := make([]string, 0, len(spec.Spawns))
	for name := range spec.Spawns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sp := spec.Spawns[name]
		v.agents = append(v.agents, NewAgent(sp.X, sp.Y, spec.TileSize, rng))
		v.labels = append(v.labels, name)
	}
	if len(v.agents) == 0 {
		return nil, fmt.Errorf("viewer: map %s has no spawns", mapPath)
	}

	if watch {
		w, err := NewGridWatcher(filepath.Dir(mapPath))
		if err != nil {
			return nil, fmt.Errorf("viewer: watch %s: %w", mapPath, err)
		}
		v.watcher = w
	}
	return v, nil
}

// Update advances one frame: drain map-edit events, move the player, apply
// mouse edits, then tick every agent.
func (v *Viewer) Update() error {
	v.drainWatcher()
	v.handleInput()

	var obstacle *Vec2
	if v.playerActive {
		p := v.player
		obstacle = &p
	}
	for _, a := range v.agents {
		cur := a.CurrentTile()
		a.SetElevationTarget(float64(v.grid.Elevation(cur.X, cur.Y)) * elevationWorldStep)
		a.Update(viewerTickDt, v.grid, obstacle)
	}
	return nil
}

func (v *Viewer) drainWatcher() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case _, ok := <-v.watcher.Events:
			if !ok {
				return
			}
			v.reloadMap()
		default:
			return
		}
	}
}

func (v *Viewer) reloadMap() {
	grid, spec, err := LoadGridFile(v.mapPath)
	if err != nil {
		v.status = fmt.Sprintf("map reload failed: %v", err)
		return
	}
	v.grid = grid
	if spec.TileSize != v.tileSize {
		// Agents keep their construction-time tile size; re-anchor them
		// before rebuilding routes so tileAt sees the new geometry.
		v.tileSize = spec.TileSize
		retileAgents(v.agents, spec.TileSize)
	}
	cols, rows := grid.Bounds()
	if w, h := v.worldBuf.Bounds().Dx(), v.worldBuf.Bounds().Dy(); w != cols*v.tileSize || h != rows*v.tileSize {
		v.worldBuf = ebiten.NewImage(cols*v.tileSize, rows*v.tileSize)
		v.width = cols * v.tileSize * viewerZoom
		v.height = rows*v.tileSize*viewerZoom + hudHeight
	}
	ok := 0
	for _, a := range v.agents {
		if a.ReinitializeRoute(v.grid) {
			ok++
		}
	}
	v.status = fmt.Sprintf("map reloaded, %d/%d routes rebuilt", ok, len(v.agents))
}

// retileAgents re-anchors every agent on its current tile under a new tile
// size, keeping routes; the caller rebuilds them against the new grid.
func retileAgents(agents []*Agent, tileSize int) {
	for _, a := range agents {
		cur := a.CurrentTile()
		a.SetTilePosition(cur.X, cur.Y, tileSize, true)
	}
}

func (v *Viewer) handleInput() {
	v.togglePlay.Update(ebiten.IsKeyPressed(ebiten.KeyP))
	v.toggleWire.Update(ebiten.IsKeyPressed(ebiten.KeyR))
	v.copyReport.Update(ebiten.IsKeyPressed(ebiten.KeyC))
	v.mouseLeft.Update(ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))

	if v.togglePlay.JustPressed() {
		v.playerActive = !v.playerActive
		if v.playerActive && v.player == (Vec2{}) {
			// First activation: drop the player near the first agent.
			p := v.agents[0].Position()
			v.player = Vec2{X: p.X + float64(v.tileSize)*2, Y: p.Y}
		}
	}
	if v.toggleWire.JustPressed() {
		v.showRoutes = !v.showRoutes
	}
	if v.copyReport.JustPressed() {
		if err := CopyAgentReport(v.labels[0], v.agents[0]); err != nil {
			v.status = fmt.Sprintf("copy failed: %v", err)
		} else {
			v.status = "agent report copied to clipboard"
		}
	}

	if v.playerActive {
		step := playerSpeed * viewerTickDt
		if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
			v.player.X -= step
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
			v.player.X += step
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
			v.player.Y -= step
		}
		if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
			v.player.Y += step
		}
	}

	if v.mouseLeft.JustPressed() {
		mx, my := ebiten.CursorPosition()
		tx := mx / (v.tileSize * viewerZoom)
		ty := my / (v.tileSize * viewerZoom)
		if t := v.grid.At(tx, ty); t != nil {
			// Toggle an obstruction on walkable ground: the world edit
			// every agent must react to.
			t.Obstructed = !t.Obstructed
			ok := 0
			for _, a := range v.agents {
				if a.ReinitializeRoute(v.grid) {
					ok++
				}
			}
			v.status = fmt.Sprintf("tile (%d,%d) toggled, %d/%d routes rebuilt", tx, ty, ok, len(v.agents))
		}
	}
}

// Draw renders the world into an offscreen buffer at native resolution,
// then blits it upscaled, with HUD text in the strip below.
func (v *Viewer) Draw(screen *ebiten.Image) {
	v.worldBuf.Fill(color.RGBA{R: 18, G: 18, B: 22, A: 255})
	v.drawTiles(v.worldBuf)
	if v.showRoutes {
		for _, a := range v.agents {
			v.drawRoute(v.worldBuf, a)
		}
	}
	for _, a := range v.agents {
		v.drawAgent(v.worldBuf, a)
	}
	if v.playerActive {
		vector.FillCircle(v.worldBuf, float32(v.player.X), float32(v.player.Y-4), 4,
			color.RGBA{R: 240, G: 240, B: 255, A: 255}, true)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(viewerZoom, viewerZoom)
	screen.DrawImage(v.worldBuf, op)

	text.Draw(screen, v.status, v.face, 8, v.height-hudHeight+18, color.White)
	text.Draw(screen, v.agentSummary(), v.face, 8, v.height-hudHeight+36, color.White)
}

func (v *Viewer) drawTiles(dst *ebiten.Image) {
	ts := float32(v.tileSize)
	cols, rows := v.grid.Bounds()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t := v.grid.At(x, y)
			var c color.RGBA
			switch {
			case !t.Walkable:
				c = color.RGBA{R: 40, G: 40, B: 48, A: 255}
			case t.Obstructed:
				c = color.RGBA{R: 92, G: 58, B: 48, A: 255}
			default:
				// Raised ground renders slightly lighter.
				g := uint8(70 + int(t.Elevation)*12)
				c = color.RGBA{R: 48, G: g, B: 52, A: 255}
			}
			vector.FillRect(dst, float32(x)*ts, float32(y)*ts, ts-1, ts-1, c, false)
		}
	}
}

func (v *Viewer) drawRoute(dst *ebiten.Image, a *Agent) {
	r := a.Route()
	if r == nil {
		return
	}
	c := color.RGBA{R: 90, G: 140, B: 200, A: 160}
	for i := 1; i < len(r.Waypoints); i++ {
		p0 := tileAnchor(r.Waypoints[i-1], v.tileSize)
		p1 := tileAnchor(r.Waypoints[i], v.tileSize)
		vector.StrokeLine(dst, float32(p0.X), float32(p0.Y-2), float32(p1.X), float32(p1.Y-2), 1, c, false)
	}
	if r.Closed && len(r.Waypoints) >= 2 {
		p0 := tileAnchor(r.Waypoints[len(r.Waypoints)-1], v.tileSize)
		p1 := tileAnchor(r.Waypoints[0], v.tileSize)
		vector.StrokeLine(dst, float32(p0.X), float32(p0.Y-2), float32(p1.X), float32(p1.Y-2), 1, c, false)
	}
}

func (v *Viewer) drawAgent(dst *ebiten.Image, a *Agent) {
	var c color.RGBA
	switch a.Mode() {
	case ModeWalking:
		c = color.RGBA{R: 80, G: 200, B: 110, A: 255}
	case ModePaused:
		c = color.RGBA{R: 230, G: 200, B: 70, A: 255}
	case ModeStopped:
		c = color.RGBA{R: 220, G: 70, B: 70, A: 255}
	default: // no-route
		c = color.RGBA{R: 140, G: 140, B: 140, A: 255}
	}

	p := a.Position()
	// Body: an 8x12 box standing on the ground-contact point, raised by
	// the blended elevation offset, with a 1px walk-cycle bob.
	bob := 0.0
	if a.Mode() == ModeWalking && a.Frame()%2 == 1 {
		bob = 1.0
	}
	x := float32(p.X - 4)
	y := float32(p.Y + a.ElevationOffset() - 12 - bob)
	vector.FillRect(dst, x, y, 8, 12, c, false)

	// Facing tick.
	fx, fy := p.X, p.Y+a.ElevationOffset()-6
	switch a.Facing() {
	case FacingLeft:
		fx -= 6
	case FacingRight:
		fx += 6
	case FacingUp:
		fy -= 9
	default:
		fy += 4
	}
	vector.FillCircle(dst, float32(fx), float32(fy), 1.5, color.White, false)
}

func (v *Viewer) agentSummary() string {
	s := ""
	for i, a := range v.agents {
		if i > 0 {
			s += "   "
		}
		s += fmt.Sprintf("%s:%s", v.labels[i], a.Mode())
	}
	return s
}

// Layout reports the fixed window size derived from the map.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height
}

// Close releases the map watcher, if any.
func (v *Viewer) Close() error {
	if v.watcher != nil {
		return v.watcher.Close()
	}
	return nil
}
