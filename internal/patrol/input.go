package patrol

// KeyEdge detects press edges for a single key or button. Feed it the raw
// down state once per tick; it carries no hidden globals, so it can be
// tested without a live input device.
type KeyEdge struct {
	wasDown bool
	isDown  bool
}

// Update records this tick's raw down state.
func (k *KeyEdge) Update(down bool) {
	k.wasDown = k.isDown
	k.isDown = down
}

// JustPressed reports a down edge on the most recent Update.
func (k *KeyEdge) JustPressed() bool {
	return k.isDown && !k.wasDown
}

// Down reports the current held state.
func (k *KeyEdge) Down() bool {
	return k.isDown
}
