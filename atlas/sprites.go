package atlas

// numHeads is the size of the fixed head array. Glyph ids hash into it
// with glyph & (numHeads-1), so glyphs under 1024 land directly on
// their head slot.
const numHeads = 1024

// SpritePosition records where one rendered glyph variant lives in the
// atlas. Entries form singly-linked chains rooted in the head array of
// a SpriteMap.
//
// Once Filled, the key fields and Pos are immutable until the map is
// cleared. Rendered means the upload sink has observed this slot's
// pixels at least once; a hit with Rendered still false is the
// caller's signal to rasterize.
type SpritePosition struct {
	next *SpritePosition

	Glyph    uint16
	Extra    uint64
	IsSecond bool

	Pos      Position
	Filled   bool
	Rendered bool
}

// SpriteMap maps (glyph, extra-glyph packing, second-half flag) to
// atlas positions for a single font. The fixed 1024-slot head array
// makes the common path allocation free; only chain tails are heap
// allocated.
type SpriteMap struct {
	heads [numHeads]SpritePosition
}

// PositionFor looks up the sprite slot for the given key, allocating a
// fresh atlas position from t on a miss. The returned entry is Filled;
// its Rendered flag tells the caller whether pixels for it have been
// uploaded already.
//
// Returns ErrAtlasExhausted when a miss cannot be assigned a slot.
func (m *SpriteMap) PositionFor(t *Tracker, glyph uint16, extra uint64, second bool) (*SpritePosition, error) {
	s := &m.heads[glyph&(numHeads-1)]
	// Fast path: glyph under 1024 already stored at its head slot.
	if s.Filled && s.Glyph == glyph && s.Extra == extra && s.IsSecond == second {
		return s, nil
	}
	for {
		if s.Filled {
			if s.Glyph == glyph && s.Extra == extra && s.IsSecond == second {
				return s, nil
			}
		} else {
			break
		}
		if s.next == nil {
			s.next = &SpritePosition{}
		}
		s = s.next
	}
	pos, err := t.Allocate()
	if err != nil {
		return nil, err
	}
	s.Glyph = glyph
	s.Extra = extra
	s.IsSecond = second
	s.Filled = true
	s.Rendered = false
	s.Pos = pos
	return s, nil
}

// Clear resets every entry but keeps chain nodes allocated as a free
// pool for the next configuration.
func (m *SpriteMap) Clear() {
	for i := range m.heads {
		for s := &m.heads[i]; s != nil; s = s.next {
			s.Glyph = 0
			s.Extra = 0
			s.IsSecond = false
			s.Pos = Position{}
			s.Filled = false
			s.Rendered = false
		}
	}
}

// Free resets the map and severs all chains so the nodes can be
// collected. Used on font teardown.
func (m *SpriteMap) Free() {
	for i := range m.heads {
		s := &m.heads[i]
		*s = SpritePosition{}
	}
}
