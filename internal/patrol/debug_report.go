package patrol

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// BuildAgentReport renders one agent's state as a plain-text report for
// bug reports and the viewer's copy-to-clipboard key.
func BuildAgentReport(label string, a *Agent) string {
	var sb strings.Builder
	p := a.Position()
	fmt.Fprintf(&sb, "=== agent %s ===\n", label)
	fmt.Fprintf(&sb, "mode:    %s\n", a.Mode())
	fmt.Fprintf(&sb, "pos:     (%.2f, %.2f)  elev-offset %.2f\n", p.X, p.Y, a.ElevationOffset())
	fmt.Fprintf(&sb, "tile:    (%d,%d) → target (%d,%d)\n",
		a.CurrentTile().X, a.CurrentTile().Y, a.TargetTile().X, a.TargetTile().Y)
	fmt.Fprintf(&sb, "facing:  %s  frame %d\n", a.Facing(), a.Frame())

	r := a.Route()
	if r == nil {
		sb.WriteString("route:   none\n")
		return sb.String()
	}
	mode := "ping-pong"
	if r.Closed {
		mode = "loop"
	}
	fmt.Fprintf(&sb, "route:   %d waypoints, %s\n", r.Len(), mode)
	for i, wp := range r.Waypoints {
		fmt.Fprintf(&sb, "  [%02d] (%d,%d)\n", i, wp.X, wp.Y)
	}
	return sb.String()
}

// CopyAgentReport places the report on the system clipboard.
func CopyAgentReport(label string, a *Agent) error {
	return clipboard.WriteAll(BuildAgentReport(label, a))
}
