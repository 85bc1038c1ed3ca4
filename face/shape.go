package face

import (
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"
)

// ShapedGlyph is one positioned glyph produced by shaping a text run.
// Offsets and advances are fractional pixels: the shaper emits 26.6
// fixed point and Shape divides by 64.
type ShapedGlyph struct {
	GlyphID  uint16
	Cluster  int
	XOffset  float64
	YOffset  float64
	XAdvance float64
	YAdvance float64
}

// shaperPool pools HarfbuzzShaper instances. The shaper keeps an
// internal buffer and is not safe for concurrent use, but reusing one
// across sequential calls avoids reallocation.
var shaperPool = sync.Pool{
	New: func() any {
		return &shaping.HarfbuzzShaper{}
	},
}

// Shape runs script and direction guessing followed by complex
// shaping over the text and returns the positioned glyphs in emission
// order. Cluster values are rune indices into text.
func (f *Face) Shape(text string) []ShapedGlyph {
	if text == "" {
		return nil
	}
	runes := []rune(text)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: guessDirection(text),
		Face:      f.shaped,
		Size:      f.ppem,
		Script:    guessScript(runes),
		Language:  language.NewLanguage("en"),
	}

	shaper := shaperPool.Get().(*shaping.HarfbuzzShaper)
	out := shaper.Shape(input)
	shaperPool.Put(shaper)

	if len(out.Glyphs) == 0 {
		return nil
	}
	glyphs := make([]ShapedGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = ShapedGlyph{
			GlyphID:  uint16(g.GlyphID),
			Cluster:  g.ClusterIndex,
			XOffset:  fixedToFloat(g.XOffset),
			YOffset:  fixedToFloat(g.YOffset),
			XAdvance: fixedToFloat(g.XAdvance),
			YAdvance: fixedToFloat(g.YAdvance),
		}
	}
	return glyphs
}

// guessDirection resolves the paragraph direction of the run.
// Terminal lines are stored in logical order, so only the dominant
// direction matters to the shaper.
func guessDirection(text string) di.Direction {
	p := bidi.Paragraph{}
	if _, err := p.SetString(text); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil {
		return di.DirectionLTR
	}
	if ordering.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// guessScript returns the script of the first non-space rune.
func guessScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// fixedToFloat converts 26.6 fixed point to fractional pixels.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
