package termglyph

import (
	"strings"

	"github.com/gogpu/termglyph/atlas"
	"github.com/gogpu/termglyph/face"
)

// RenderLine walks a line of cells, partitions it into maximal runs
// of cells resolving to the same face, and renders each run. Sprite
// coordinates are written back into the cells; new sprites are handed
// to the upload sink in left-to-right, shaper-emission order.
//
// Atlas exhaustion is reported through the returned error after the
// whole line has been processed; affected text cells carry the
// missing-glyph sentinel and affected box cells the blank sprite.
// Callback failures degrade single cells to blank sprites and are
// logged.
func (r *Renderer) RenderLine(line *Line) error {
	if r.medium == nil {
		return ErrNoFont
	}
	r.rendering = true
	defer func() { r.rendering = false }()

	var firstErr error
	runSel := selection{kind: selMissing, f: nil}
	haveRun := false
	runStart := 0
	prevWidth := uint16(0)

	cells := line.Cells
	for i := 0; i < len(cells); i++ {
		if prevWidth == 2 {
			// Continuation half of a double-wide glyph; its sprite is
			// written when the wide cell's run renders.
			prevWidth = 0
			continue
		}
		cell := &cells[i]
		sel := r.fontForCell(cell)
		prevWidth = cell.Width()
		if haveRun && sel == runSel {
			continue
		}
		if haveRun && i > runStart {
			if err := r.renderRun(cells[runStart:i], runSel); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		runSel = sel
		haveRun = true
		runStart = i
	}
	if haveRun && len(cells) > runStart {
		if err := r.renderRun(cells[runStart:], runSel); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// renderRun renders one maximal run. Sentinel runs write their
// conventional sprites; real-face runs shape and rasterize.
func (r *Renderer) renderRun(cells []Cell, sel selection) error {
	switch sel.kind {
	case selBlank:
		for i := range cells {
			cells[i].setSprite(0, 0, 0)
		}
		return nil
	case selMissing:
		for i := range cells {
			cells[i].setSprite(MissingGlyph, 0, 0)
		}
		return nil
	case selBox:
		var firstErr error
		for i := range cells {
			if err := r.renderBoxCell(&cells[i]); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	default:
		return r.renderTextRun(cells, sel.f)
	}
}

// renderBoxCell renders one synthesized box-drawing cell through the
// box sprite cache and the box-drawing callback.
func (r *Renderer) renderBoxCell(cell *Cell) error {
	glyph := boxGlyphID(cell.Ch)
	sp, err := r.boxSprites.PositionFor(r.tracker, glyph, 0, false)
	if err != nil {
		Logger().Warn("termglyph: allocating box sprite", "ch", cell.Ch, "err", err)
		cell.setSprite(0, 0, 0)
		return err
	}
	cell.setSprite(sp.Pos.X, sp.Pos.Y, sp.Pos.Z)
	if sp.Rendered {
		return nil
	}
	sp.Rendered = true
	if r.boxDraw == nil {
		return nil
	}
	buf, err := r.boxDraw(rune(cell.Ch), r.metrics.CellWidth, r.metrics.CellHeight)
	if err != nil {
		Logger().Warn("termglyph: box drawing failed", "ch", cell.Ch, "err", err)
		sp.Rendered = false
		cell.setSprite(0, 0, 0)
		return nil
	}
	r.sink(sp.Pos.X, sp.Pos.Y, sp.Pos.Z, buf)
	return nil
}

// glyphGroup is the shaped content of one cell (or one wide
// cell-pair): the glyphs whose clusters landed on it.
type glyphGroup struct {
	cellIndex int // index into the run's cells
	numCells  int // 1, or 2 for a double-wide glyph
	runeStart int // first rune of the cell in the run text
	runeEnd   int
	glyphs    []face.ShapedGlyph
}

// renderTextRun shapes the run's concatenated text and renders each
// cell group through the font's sprite cache.
func (r *Renderer) renderTextRun(cells []Cell, f *font) error {
	var text strings.Builder
	groups := make([]glyphGroup, 0, len(cells))
	runes := 0
	for i := 0; i < len(cells); i++ {
		cell := &cells[i]
		numCells := 1
		if cell.Width() == 2 && i+1 < len(cells) {
			numCells = 2
		}
		cell.appendText(&text)
		n := cell.runeCount()
		groups = append(groups, glyphGroup{
			cellIndex: i,
			numCells:  numCells,
			runeStart: runes,
			runeEnd:   runes + n,
		})
		runes += n
		if numCells == 2 {
			i++ // continuation cell carries no text of its own
		}
	}

	shaped := f.face.Shape(text.String())
	for gi := range shaped {
		g := shaped[gi]
		for i := range groups {
			if g.Cluster >= groups[i].runeStart && g.Cluster < groups[i].runeEnd {
				groups[i].glyphs = append(groups[i].glyphs, g)
				break
			}
		}
	}

	var firstErr error
	for i := range groups {
		if err := r.renderGroup(cells, &groups[i], f); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// renderGroup renders one cell group: cache lookup on the primary
// glyph plus the packed extras, rasterization on a miss, split and
// upload, and the sprite write-back into the cell (and its
// continuation cell for wide glyphs).
func (r *Renderer) renderGroup(cells []Cell, g *glyphGroup, f *font) error {
	cell := &cells[g.cellIndex]
	if len(g.glyphs) == 0 {
		cell.setSprite(0, 0, 0)
		if g.numCells == 2 {
			cells[g.cellIndex+1].setSprite(0, 0, 0)
		}
		return nil
	}

	primary := g.glyphs[0].GlyphID
	extra := packExtraGlyphs(g.glyphs[1:])

	sp, err := f.sprites.PositionFor(r.tracker, primary, extra, false)
	if err != nil {
		return r.markExhausted(cells, g, err)
	}
	var second *atlas.SpritePosition
	if g.numCells == 2 {
		second, err = f.sprites.PositionFor(r.tracker, primary, extra, true)
		if err != nil {
			return r.markExhausted(cells, g, err)
		}
	}

	cell.setSprite(sp.Pos.X, sp.Pos.Y, sp.Pos.Z)
	if second != nil {
		cells[g.cellIndex+1].setSprite(second.Pos.X, second.Pos.Y, second.Pos.Z)
	}
	if sp.Rendered {
		return nil
	}

	cellWidth, cellHeight := r.metrics.CellWidth, r.metrics.CellHeight
	strip := r.canvas
	if g.numCells > 1 {
		strip = make([]byte, cellWidth*g.numCells*cellHeight)
	} else {
		r.clearCanvas()
	}

	var x, y float64
	for _, sg := range g.glyphs {
		if sg.GlyphID == 0 {
			continue
		}
		bm, err := f.face.RenderGlyph(sg.GlyphID, cellWidth, g.numCells, f.italic)
		if err != nil {
			Logger().Warn("termglyph: rasterizing glyph",
				"glyph", sg.GlyphID, "err", err)
			continue
		}
		x += sg.XOffset
		y = sg.YOffset
		face.PlaceBitmap(strip, bm, cellWidth*g.numCells, cellHeight, x, y, r.metrics.Baseline)
		x += sg.XAdvance
	}

	if g.numCells == 1 {
		r.sink(sp.Pos.X, sp.Pos.Y, sp.Pos.Z, strip)
	} else {
		first := make([]byte, cellWidth*cellHeight)
		cont := make([]byte, cellWidth*cellHeight)
		face.SplitCells(cellWidth, cellHeight, strip, [][]byte{first, cont})
		r.sink(sp.Pos.X, sp.Pos.Y, sp.Pos.Z, first)
		r.sink(second.Pos.X, second.Pos.Y, second.Pos.Z, cont)
	}
	sp.Rendered = true
	if second != nil {
		second.Rendered = true
	}
	return nil
}

// markExhausted handles an atlas-exhausted cache miss: the group's
// cells degrade to the missing-glyph sentinel and the error is
// reported once per line so hosts can reconfigure with larger limits.
func (r *Renderer) markExhausted(cells []Cell, g *glyphGroup, err error) error {
	Logger().Warn("termglyph: sprite atlas exhausted", "err", err)
	cells[g.cellIndex].setSprite(MissingGlyph, 0, 0)
	if g.numCells == 2 {
		cells[g.cellIndex+1].setSprite(MissingGlyph, 0, 0)
	}
	return err
}

// packExtraGlyphs packs up to four trailing glyph ids of a cluster
// into the 64-bit cache key component, first extra in the low word.
func packExtraGlyphs(glyphs []face.ShapedGlyph) uint64 {
	var packed uint64
	n := len(glyphs)
	if n > 4 {
		n = 4
	}
	for i := 0; i < n; i++ {
		packed |= uint64(glyphs[i].GlyphID) << (16 * i)
	}
	return packed
}
