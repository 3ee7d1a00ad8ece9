package patrol

// RouteCursor replays a Route's waypoints forever. Closed routes wrap from
// the last waypoint back to the first; open routes ping-pong, reversing at
// each end without emitting the endpoint twice in a row.
type RouteCursor struct {
	route   *Route
	index   int
	forward bool // ping-pong direction; meaningless for closed routes
}

// NewRouteCursor wraps a built route. A nil or sub-2-waypoint route yields
// an invalid cursor whose Next always fails.
func NewRouteCursor(r *Route) *RouteCursor {
	return &RouteCursor{route: r, forward: true}
}

// IsValid reports whether the cursor has a usable route behind it.
func (c *RouteCursor) IsValid() bool {
	return c != nil && c.route.Len() >= 2
}

// Next returns the waypoint at the current position and advances. The ok
// result is false only for an invalid cursor; callers treat that as "no
// waypoint available" rather than an error.
func (c *RouteCursor) Next() (TileCoord, bool) {
	if !c.IsValid() {
		return TileCoord{}, false
	}
	wp := c.route.Waypoints[c.index]
	n := len(c.route.Waypoints)

	switch {
	case c.route.Closed:
		c.index = (c.index + 1) % n
	case c.forward:
		if c.index >= n-1 {
			// Reverse; land on n-2 so the endpoint is not re-emitted.
			c.forward = false
			c.index = n - 2
			if c.index < 0 {
				c.index = 0
			}
		} else {
			c.index++
		}
	default:
		if c.index <= 0 {
			c.forward = true
			c.index = 1
			if c.index > n-1 {
				c.index = n - 1
			}
		} else {
			c.index--
		}
	}
	return wp, true
}

// Reset rewinds to the first waypoint, moving forward. The underlying
// route is untouched.
func (c *RouteCursor) Reset() {
	c.index = 0
	c.forward = true
}
