package termglyph

import (
	"github.com/gogpu/termglyph/atlas"
	"github.com/gogpu/termglyph/face"
)

// maxFallbackFonts bounds the lazily discovered fallback table.
const maxFallbackFonts = 256

// font pairs a face with its style bits and the per-face sprite
// position cache.
type font struct {
	face    *face.Face
	bold    bool
	italic  bool
	sprites atlas.SpriteMap
}

func newFont(f *face.Face, bold, italic bool) *font {
	return &font{face: f, bold: bold, italic: italic}
}

// selKind tags the result of font selection for a cell.
type selKind uint8

const (
	// selFace selects a real face carried in selection.f.
	selFace selKind = iota
	// selBlank marks an empty cell; its sprite is (0, 0, 0).
	selBlank
	// selBox marks a cell drawn by box-glyph synthesis.
	selBox
	// selMissing marks a cell with no covering face anywhere.
	selMissing
)

// selection is the tagged outcome of fontForCell. Only selFace
// carries a font.
type selection struct {
	kind selKind
	f    *font
}

// SymbolMap routes an inclusive codepoint range to one of the symbol
// faces installed by SetFont. Ranges are tested in order; the first
// match wins.
type SymbolMap struct {
	Left, Right rune
	FontIndex   int
}

// StyledFace is a face plus the style attributes it should answer
// for during fallback matching.
type StyledFace struct {
	Face   *face.Face
	Bold   bool
	Italic bool
}

// hasCellText reports whether the font covers the cell's codepoint
// and every combining mark.
func (f *font) hasCellText(cell *Cell) bool {
	if !f.face.HasCodepoint(rune(cell.Ch)) {
		return false
	}
	if cell.CC == 0 {
		return true
	}
	if !f.face.HasCodepoint(rune(cell.CC & CCMask)) {
		return false
	}
	if cc := cell.CC >> 16; cc != 0 && !f.face.HasCodepoint(rune(cc)) {
		return false
	}
	return true
}

// isBoxChar reports whether the codepoint is drawn by box-glyph
// synthesis rather than a font.
func isBoxChar(ch uint32) bool {
	switch {
	case ch >= 0x2500 && ch <= 0x2570:
		return true
	case ch >= 0x2574 && ch <= 0x257f:
		return true
	case ch == 0xe0b0 || ch == 0xe0b2:
		return true
	}
	return false
}

// boxGlyphID maps a box-drawing codepoint onto the synthetic glyph id
// used as its sprite cache key.
func boxGlyphID(ch uint32) uint16 {
	switch {
	case ch >= 0x2500 && ch <= 0x257f:
		return uint16(ch - 0x2500)
	case ch == 0xe0b0:
		return 0x80
	case ch == 0xe0b2:
		return 0x81
	default:
		return 0x82
	}
}

// fontForCell resolves the face for a cell: blank and box sentinels
// first, then symbol maps, then the styled face with coverage, then
// the fallback table. It never rasterizes.
func (r *Renderer) fontForCell(cell *Cell) selection {
	if cell.Ch == 0 {
		return selection{kind: selBlank}
	}
	if isBoxChar(cell.Ch) {
		return selection{kind: selBox}
	}
	for _, sm := range r.symbolMaps {
		if sm.Left <= rune(cell.Ch) && rune(cell.Ch) <= sm.Right {
			return selection{kind: selFace, f: r.symbolFonts[sm.FontIndex]}
		}
	}
	f := r.medium
	switch {
	case cell.Bold() && cell.Italic():
		if r.bi != nil {
			f = r.bi
		}
	case cell.Bold():
		if r.bold != nil {
			f = r.bold
		}
	case cell.Italic():
		if r.italic != nil {
			f = r.italic
		}
	}
	if f.hasCellText(cell) {
		return selection{kind: selFace, f: f}
	}
	return r.fallbackFont(cell)
}

// fallbackFont searches the lazily populated fallback table for a
// covering face with the cell's style, asking the host resolver for a
// new one when the table has no match. Resolver failures degrade to
// the blank sentinel; table saturation and a resolver that returns no
// face degrade to the missing sentinel.
func (r *Renderer) fallbackFont(cell *Cell) selection {
	bold, italic := cell.Bold(), cell.Italic()
	for _, f := range r.fallback {
		if f.bold == bold && f.italic == italic && f.hasCellText(cell) {
			return selection{kind: selFace, f: f}
		}
	}
	if r.getFallback == nil {
		return selection{kind: selMissing}
	}
	if len(r.fallback) >= maxFallbackFonts {
		if !r.fallbackSaturated {
			r.fallbackSaturated = true
			Logger().Warn("termglyph: fallback font table saturated",
				"max", maxFallbackFonts)
		}
		return selection{kind: selMissing}
	}
	text := cell.text()
	fc, err := r.getFallback(text, bold, italic)
	if err != nil {
		Logger().Warn("termglyph: fallback resolver failed",
			"text", text, "bold", bold, "italic", italic, "err", err)
		return selection{kind: selBlank}
	}
	if fc == nil {
		return selection{kind: selMissing}
	}
	if err := fc.SetCharSize(r.charSize, r.charSize, r.xdpi, r.ydpi); err != nil {
		Logger().Warn("termglyph: sizing fallback face", "err", err)
		return selection{kind: selMissing}
	}
	f := newFont(fc, bold, italic)
	r.fallback = append(r.fallback, f)
	return selection{kind: selFace, f: f}
}
