// Package face wraps an outline font for terminal cell rendering.
//
// A Face combines two views of the same font file: the sfnt view
// (golang.org/x/image) used for glyph lookup, metrics and
// rasterization, and the go-text/typesetting view used for complex
// shaping. Both are parsed once from the same bytes, so glyph ids are
// interchangeable between them.
//
// Face is not safe for concurrent use; the renderer serializes all
// calls on its single rendering thread.
package face

import (
	"bytes"
	"fmt"
	"math"
	"os"

	ttfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Face is an opened outline font at a specific scaled size.
type Face struct {
	sfnt   *sfnt.Font
	shaped *ttfont.Face
	buf    sfnt.Buffer

	path  string
	index int

	hinting   bool
	hintstyle int
	target    LoadTarget

	scalable bool

	// Scaled size state, FreeType style: character width and height in
	// 26.6 points plus the output DPI.
	charWidth, charHeight fixed.Int26_6
	xdpi, ydpi            float64

	// ppem is the pixels-per-em derived from charHeight and ydpi.
	ppem fixed.Int26_6
}

// Open loads a face from a font file. index selects the face within a
// collection file; hinting and hintstyle configure the load target as
// described by LoadTarget.
func Open(path string, index int, hinting bool, hintstyle int) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Index: index, Err: err}
	}
	f, err := New(data, index, hinting, hintstyle)
	if err != nil {
		return nil, err
	}
	f.path = path
	return f, nil
}

// New parses a face from in-memory font data.
func New(data []byte, index int, hinting bool, hintstyle int) (*Face, error) {
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, &LoadError{Index: index, Err: err}
	}
	sf, err := coll.Font(index)
	if err != nil {
		return nil, &LoadError{Index: index, Err: err}
	}

	shaped, err := parseShapingFace(data, index)
	if err != nil {
		return nil, &LoadError{Index: index, Err: err}
	}

	f := &Face{
		sfnt:      sf,
		shaped:    shaped,
		index:     index,
		hinting:   hinting,
		hintstyle: hintstyle,
		target:    loadTargetFor(hinting, hintstyle),
		scalable:  true,
	}
	// A face is unusable until sized; install a placeholder so metrics
	// queries before SetCharSize do not divide by zero.
	if err := f.SetCharSize(10<<6, 20<<6, 96, 96); err != nil {
		return nil, err
	}
	return f, nil
}

// parseShapingFace parses the typesetting view of the font data.
// Collections need the TTC parser; everything else goes through the
// plain TTF/OTF path the shaper binds to.
func parseShapingFace(data []byte, index int) (*ttfont.Face, error) {
	r := bytes.NewReader(data)
	if index > 0 || isCollection(data) {
		faces, err := ttfont.ParseTTC(r)
		if err != nil {
			return nil, err
		}
		if index >= len(faces) {
			return nil, fmt.Errorf("face index %d out of range (%d faces)", index, len(faces))
		}
		return faces[index], nil
	}
	return ttfont.ParseTTF(r)
}

func isCollection(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "ttcf"
}

// Path returns the file the face was opened from, if any.
func (f *Face) Path() string { return f.path }

// Scalable reports whether the face carries scalable outlines.
// Rescale-to-fit is only attempted on scalable faces.
func (f *Face) Scalable() bool { return f.scalable }

// SetCharSize sets the scaled character size. width and height are in
// 26.6 points, the DPI values in pixels per inch. The shaping side
// picks up the new scale on the next Shape call.
func (f *Face) SetCharSize(width, height fixed.Int26_6, xdpi, ydpi float64) error {
	if height <= 0 || xdpi <= 0 || ydpi <= 0 {
		return fmt.Errorf("face: invalid char size %v x %v at %gx%g dpi", width, height, xdpi, ydpi)
	}
	if width <= 0 {
		width = height
	}
	f.charWidth, f.charHeight = width, height
	f.xdpi, f.ydpi = xdpi, ydpi
	f.ppem = fixed.Int26_6(math.Round(float64(height) * ydpi / 72))
	if f.ppem < 1 {
		f.ppem = 1
	}
	return nil
}

// CharSize returns the current scaled size state.
func (f *Face) CharSize() (width, height fixed.Int26_6, xdpi, ydpi float64) {
	return f.charWidth, f.charHeight, f.xdpi, f.ydpi
}

// Ppem returns the current pixels-per-em in 26.6 fixed point.
func (f *Face) Ppem() fixed.Int26_6 { return f.ppem }

// GlyphForCodepoint returns the glyph id for a codepoint, 0 when the
// face does not cover it.
func (f *Face) GlyphForCodepoint(r rune) uint16 {
	gi, err := f.sfnt.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return uint16(gi)
}

// HasCodepoint reports whether the face covers the codepoint.
func (f *Face) HasCodepoint(r rune) bool {
	return f.GlyphForCodepoint(r) != 0
}

// Metrics are the cell metrics derived from a face at its current
// size. CellWidth is a hint: the ceiling of the widest ASCII advance.
type Metrics struct {
	CellWidth          int
	CellHeight         int
	Baseline           int
	UnderlinePosition  int
	UnderlineThickness int
}

// CellMetrics measures the face for terminal cell layout. The cell
// width hint is the ceiling of the maximum horizontal advance over
// ASCII 32..127; height and baseline come from the face's vertical
// metrics at the current ppem.
func (f *Face) CellMetrics() (Metrics, error) {
	var widest fixed.Int26_6
	for r := rune(32); r < 128; r++ {
		gi, err := f.sfnt.GlyphIndex(&f.buf, r)
		if err != nil || gi == 0 {
			continue
		}
		adv, err := f.sfnt.GlyphAdvance(&f.buf, gi, f.ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		if adv > widest {
			widest = adv
		}
	}
	vm, err := f.sfnt.Metrics(&f.buf, f.ppem, xfont.HintingNone)
	if err != nil {
		return Metrics{}, fmt.Errorf("face: measuring %q: %w", f.path, err)
	}

	m := Metrics{
		CellWidth:  widest.Ceil(),
		CellHeight: vm.Height.Ceil(),
		Baseline:   vm.Ascent.Ceil(),
	}
	// x/image's sfnt view does not surface the post table, so the
	// underline sits where FreeType puts it when the table is absent:
	// midway into the descender, one-sixteenth em thick.
	m.UnderlinePosition = m.Baseline + max(1, vm.Descent.Ceil()/2)
	if m.CellHeight > 0 && m.UnderlinePosition > m.CellHeight-1 {
		m.UnderlinePosition = m.CellHeight - 1
	}
	m.UnderlineThickness = max(1, f.ppem.Ceil()/16)
	return m, nil
}
