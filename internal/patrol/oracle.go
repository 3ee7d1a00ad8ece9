package patrol

// WalkabilityOracle answers per-tile walkability questions. The route
// builder and agents query it but never mutate it; the backing grid is
// owned elsewhere and edits are communicated by explicit rebuild calls.
type WalkabilityOracle interface {
	// IsWalkable reports whether the tile's base terrain can be walked on.
	IsWalkable(x, y int) bool
	// IsObstructed reports whether something sits on the tile and blocks it.
	IsObstructed(x, y int) bool
	// Bounds returns the grid dimensions in tiles.
	Bounds() (w, h int)
}

// tileUsable is the single walkability predicate used everywhere: a tile is
// usable iff in bounds, walkable, and not obstructed.
func tileUsable(o WalkabilityOracle, t TileCoord) bool {
	w, h := o.Bounds()
	if t.X < 0 || t.Y < 0 || t.X >= w || t.Y >= h {
		return false
	}
	return o.IsWalkable(t.X, t.Y) && !o.IsObstructed(t.X, t.Y)
}
