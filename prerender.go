package termglyph

import (
	"fmt"

	"github.com/gogpu/termglyph/boxdraw"
)

// Prerender uploads the conventional decoration sprites into the
// first atlas slots: the blank cell at (0,0,0), then straight
// underline, undercurl, strikethrough and the missing-glyph box at
// x = MissingGlyph. Call it after every SetFont or SetFontSize.
func (r *Renderer) Prerender() error {
	if r.medium == nil {
		return ErrNoFont
	}
	m := r.metrics
	w, h := m.CellWidth, m.CellHeight
	mk := func() []byte { return make([]byte, w*h) }

	underline := mk()
	boxdraw.AddStraightUnderline(underline, w, h, m.UnderlinePosition, m.UnderlineThickness)

	curl := mk()
	curlThickness := boxdraw.CurlThickness(h, m.UnderlinePosition, m.UnderlineThickness)
	boxdraw.AddCurlUnderline(curl, w, h, m.UnderlinePosition, curlThickness)

	strike := mk()
	boxdraw.AddStrikethrough(strike, w, h, m.Baseline, m.UnderlineThickness)

	missing := mk()
	boxdraw.RenderMissingGlyph(missing, w, h)

	lastX, err := r.SendPrerenderedSprites(underline, curl, strike, missing)
	if err != nil {
		return err
	}
	if lastX != MissingGlyph {
		return fmt.Errorf("termglyph: GPU max texture size too small for prerendered sprites (last x %d)", lastX)
	}
	return nil
}
