// Package atlas tracks sprite slots in a 3-D GPU texture atlas.
//
// The atlas is an array of layers, each a grid of cell-sized slots
// addressed by (x, y, z). Slots are allocated in strictly increasing
// (z, y, x) order and are never freed: a glyph rendered once keeps its
// slot for the life of the configuration, which keeps the cache path
// O(1) and gives the GPU side an append-only upload log.
package atlas

import "errors"

// ErrAtlasExhausted is returned when every slot permitted by the
// installed limits has been allocated.
var ErrAtlasExhausted = errors.New("atlas: out of texture space for sprites")

// maxIndex bounds every coordinate so positions fit in uint16 texture
// indices on the GPU side.
const maxIndex = 0xffff

// Position is a cell-sized slot in the atlas.
type Position struct {
	X, Y, Z uint16
}

// Less reports whether p was allocated before q, in the lexicographic
// (z, y, x) allocation order.
func (p Position) Less(q Position) bool {
	if p.Z != q.Z {
		return p.Z < q.Z
	}
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

// Tracker allocates monotonically increasing atlas positions.
//
// Tracker is not safe for concurrent use; the renderer serializes all
// access on its single rendering thread.
type Tracker struct {
	maxTextureSize int
	maxArrayLen    int

	x, y, z    int
	xnum, ynum int
	maxY       int

	exhausted bool
}

// NewTracker returns a tracker with conservative default limits.
// Call SetLimits with the real GPU capabilities before SetLayout.
func NewTracker() *Tracker {
	return &Tracker{
		maxTextureSize: 1000,
		maxArrayLen:    1000,
		maxY:           100,
	}
}

// SetLimits installs the GPU capacity limits: the maximum texture
// dimension in pixels and the maximum number of array layers.
func (t *Tracker) SetLimits(maxTextureSize, maxArrayLen int) {
	t.maxTextureSize = maxTextureSize
	t.maxArrayLen = maxArrayLen
}

// SetLayout recomputes the per-layer grid for the given cell size and
// resets the cursor to (0, 0, 0).
func (t *Tracker) SetLayout(cellWidth, cellHeight int) {
	t.xnum = clampIndex(t.maxTextureSize / cellWidth)
	t.maxY = clampIndex(t.maxTextureSize / cellHeight)
	t.ynum = 1
	t.x, t.y, t.z = 0, 0, 0
	t.exhausted = false
}

func clampIndex(v int) int {
	if v < 1 {
		return 1
	}
	if v > maxIndex {
		return maxIndex
	}
	return v
}

// CurrentLayout reports the tight bounding volume occupied so far:
// slots per row, rows in use on the tallest layer, and the index of
// the current layer. The GPU side sizes its textures from this.
func (t *Tracker) CurrentLayout() (xnum, ynum, znum int) {
	return t.xnum, t.ynum, t.z
}

// Position returns the slot the next allocation will receive.
func (t *Tracker) Position() Position {
	return Position{X: uint16(t.x), Y: uint16(t.y), Z: uint16(t.z)}
}

// Allocate returns the cursor slot and advances the cursor.
// Once the final permitted layer's slots are consumed every further
// call returns ErrAtlasExhausted.
func (t *Tracker) Allocate() (Position, error) {
	if t.exhausted {
		return Position{}, ErrAtlasExhausted
	}
	pos := t.Position()
	t.increment()
	return pos, nil
}

// increment advances x, wrapping into new rows and layers. When the
// cursor falls off the last permitted layer the tracker is marked
// exhausted; the slot already handed out remains valid.
func (t *Tracker) increment() {
	t.x++
	if t.x < t.xnum {
		return
	}
	t.x = 0
	t.y++
	t.ynum = min(max(t.ynum, t.y+1), t.maxY)
	if t.y < t.maxY {
		return
	}
	t.y = 0
	t.z++
	if t.z >= min(maxIndex, t.maxArrayLen) {
		t.exhausted = true
	}
}
