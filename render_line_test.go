package termglyph

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/termglyph/atlas"
	"github.com/gogpu/termglyph/face"
)

func spriteOf(c Cell) [3]uint16 {
	return [3]uint16{c.SpriteX, c.SpriteY, c.SpriteZ}
}

func TestRenderLineBlankCell(t *testing.T) {
	r, sink := newTestRenderer(t)
	line := &Line{Cells: []Cell{{Ch: 0}}}
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	if got := spriteOf(line.Cells[0]); got != [3]uint16{} {
		t.Errorf("blank cell sprite = %v, want (0,0,0)", got)
	}
	if len(sink.uploads) != 0 {
		t.Errorf("blank cell triggered %d uploads", len(sink.uploads))
	}
}

func TestRenderLineASCIIRun(t *testing.T) {
	r, sink := newTestRenderer(t)
	line := asciiLine("AB ")
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}

	a, b := line.Cells[0], line.Cells[1]
	if spriteOf(a) == spriteOf(b) {
		t.Error("'A' and 'B' share a sprite")
	}
	pa := atlas.Position{X: a.SpriteX, Y: a.SpriteY, Z: a.SpriteZ}
	pb := atlas.Position{X: b.SpriteX, Y: b.SpriteY, Z: b.SpriteZ}
	if !pa.Less(pb) {
		t.Errorf("sprites not monotonically increasing: %v then %v", pa, pb)
	}
	if got := spriteOf(line.Cells[2]); got != [3]uint16{} {
		t.Errorf("trailing blank sprite = %v, want (0,0,0)", got)
	}
	if len(sink.uploads) != 2 {
		t.Errorf("%d uploads, want 2", len(sink.uploads))
	}
}

func TestRenderLineCacheIsStable(t *testing.T) {
	r, sink := newTestRenderer(t)
	line := asciiLine("AB")
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	first := []([3]uint16){spriteOf(line.Cells[0]), spriteOf(line.Cells[1])}
	uploadsAfterFirst := len(sink.uploads)

	for i := 0; i < 3; i++ {
		if err := r.RenderLine(line); err != nil {
			t.Fatal(err)
		}
		if got := spriteOf(line.Cells[0]); got != first[0] {
			t.Errorf("render #%d moved 'A' to %v", i, got)
		}
		if got := spriteOf(line.Cells[1]); got != first[1] {
			t.Errorf("render #%d moved 'B' to %v", i, got)
		}
	}
	if len(sink.uploads) != uploadsAfterFirst {
		t.Errorf("re-rendering re-uploaded sprites: %d -> %d", uploadsAfterFirst, len(sink.uploads))
	}
	for pos, n := range sink.positions() {
		if n > 1 {
			t.Errorf("position %v uploaded %d times", pos, n)
		}
	}
}

func TestRenderLineStyleSelection(t *testing.T) {
	r, sink := newTestRenderer(t)
	plain := &Line{Cells: []Cell{{Ch: 'A', Attrs: 1}}}
	bold := &Line{Cells: []Cell{{Ch: 'A', Attrs: 1 | 1<<BoldShift}}}
	if err := r.RenderLine(plain); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderLine(bold); err != nil {
		t.Fatal(err)
	}
	if spriteOf(plain.Cells[0]) == spriteOf(bold.Cells[0]) {
		t.Error("bold 'A' shares the medium sprite; bold face was not used")
	}
	if len(sink.uploads) != 2 {
		t.Errorf("%d uploads, want 2", len(sink.uploads))
	}
}

func TestRenderLineItalicFallsThroughToMedium(t *testing.T) {
	// No italic face installed: the italic bit must select medium.
	r, _ := newTestRenderer(t)
	plain := &Line{Cells: []Cell{{Ch: 'A', Attrs: 1}}}
	italic := &Line{Cells: []Cell{{Ch: 'A', Attrs: 1 | 1<<ItalicShift}}}
	if err := r.RenderLine(plain); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderLine(italic); err != nil {
		t.Fatal(err)
	}
	if spriteOf(plain.Cells[0]) != spriteOf(italic.Cells[0]) {
		t.Error("italic without an italic face should reuse the medium sprite")
	}
}

func TestRenderLineDoubleWide(t *testing.T) {
	r, sink := newTestRenderer(t)
	line := &Line{Cells: []Cell{
		{Ch: 'W', Attrs: 2},
		{Attrs: 2},
	}}
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	first, second := line.Cells[0], line.Cells[1]
	if spriteOf(first) == spriteOf(second) {
		t.Error("wide glyph halves share a sprite")
	}
	p1 := atlas.Position{X: first.SpriteX, Y: first.SpriteY, Z: first.SpriteZ}
	p2 := atlas.Position{X: second.SpriteX, Y: second.SpriteY, Z: second.SpriteZ}
	if !p1.Less(p2) {
		t.Errorf("wide halves out of order: %v, %v", p1, p2)
	}
	if len(sink.uploads) != 2 {
		t.Fatalf("%d uploads, want 2 (one per half)", len(sink.uploads))
	}
	m := r.Metrics()
	for i, u := range sink.uploads {
		if len(u.pixels) != m.CellWidth*m.CellHeight {
			t.Errorf("upload %d has %d bytes, want one cell (%d)", i, len(u.pixels), m.CellWidth*m.CellHeight)
		}
	}
}

func TestRenderLineBoxDrawing(t *testing.T) {
	calls := 0
	r, sink := newTestRenderer(t)
	_, err := r.SetFont(FontSetup{
		Medium: testFace(t, goregular.TTF),
		BoxDrawing: func(ch rune, w, h int) ([]byte, error) {
			calls++
			buf := make([]byte, w*h)
			for i := range buf {
				buf[i] = 255
			}
			return buf, nil
		},
		PtSz: 11, XDPI: 96, YDPI: 96,
	})
	if err != nil {
		t.Fatal(err)
	}
	sink.uploads = nil
	r.SetUploadSink(sink.sink)

	line := &Line{Cells: []Cell{
		{Ch: 0x2500, Attrs: 1},
		{Ch: 0x2500, Attrs: 1},
	}}
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("box drawing invoked %d times, want 1 (second cell hits the cache)", calls)
	}
	if spriteOf(line.Cells[0]) != spriteOf(line.Cells[1]) {
		t.Error("identical box cells should share a sprite")
	}
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("box drawing re-invoked on cached render (%d calls)", calls)
	}
	if len(sink.uploads) != 1 {
		t.Errorf("%d uploads, want 1", len(sink.uploads))
	}
}

func TestRenderLineBoxDrawingFailureDegradesToBlank(t *testing.T) {
	r, _ := newTestRenderer(t)
	_, err := r.SetFont(FontSetup{
		Medium: testFace(t, goregular.TTF),
		BoxDrawing: func(ch rune, w, h int) ([]byte, error) {
			return nil, fmt.Errorf("boom")
		},
		PtSz: 11, XDPI: 96, YDPI: 96,
	})
	if err != nil {
		t.Fatal(err)
	}
	line := &Line{Cells: []Cell{{Ch: 0x2500, Attrs: 1}, {Ch: 'A', Attrs: 1}}}
	if err := r.RenderLine(line); err != nil {
		t.Fatalf("callback failure must not abort the line: %v", err)
	}
	if got := spriteOf(line.Cells[0]); got != ([3]uint16{}) {
		t.Errorf("failing box cell sprite = %v, want blank (0,0,0)", got)
	}
	if spriteOf(line.Cells[1]) == ([3]uint16{}) {
		t.Error("cells after the failing one should still render")
	}
}

func TestRenderLineFallbackResolver(t *testing.T) {
	var gotText string
	var gotBold, gotItalic bool
	calls := 0
	r, _ := newTestRenderer(t)
	_, err := r.SetFont(FontSetup{
		Medium: testFace(t, goregular.TTF),
		GetFallback: func(text string, bold, italic bool) (*face.Face, error) {
			calls++
			gotText, gotBold, gotItalic = text, bold, italic
			return nil, nil
		},
		PtSz: 11, XDPI: 96, YDPI: 96,
	})
	if err != nil {
		t.Fatal(err)
	}
	line := &Line{Cells: []Cell{{Ch: 0x1f600, Attrs: 1}}}
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("resolver invoked %d times, want 1", calls)
	}
	if gotText != "\U0001F600" {
		t.Errorf("resolver text = %q, want the emoji", gotText)
	}
	if gotBold || gotItalic {
		t.Errorf("resolver style = (%v, %v), want (false, false)", gotBold, gotItalic)
	}
	if got := spriteOf(line.Cells[0]); got != [3]uint16{MissingGlyph, 0, 0} {
		t.Errorf("uncovered cell sprite = %v, want missing sentinel", got)
	}
}

func TestRenderLineFallbackFaceIsUsed(t *testing.T) {
	r, _ := newTestRenderer(t)
	fallback := testFace(t, goregular.TTF)
	_, err := r.SetFont(FontSetup{
		Medium: testFace(t, goregular.TTF),
		GetFallback: func(text string, bold, italic bool) (*face.Face, error) {
			return fallback, nil
		},
		PtSz: 11, XDPI: 96, YDPI: 96,
	})
	if err != nil {
		t.Fatal(err)
	}
	line := &Line{Cells: []Cell{{Ch: 0x1f600, Attrs: 1}}}
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	if got := spriteOf(line.Cells[0]); got == ([3]uint16{MissingGlyph, 0, 0}) {
		t.Error("cell with a resolver-provided face should not be the missing sentinel")
	}
}

func TestRenderLineFallbackErrorIsNonFatal(t *testing.T) {
	r, sink := newTestRenderer(t)
	_, err := r.SetFont(FontSetup{
		Medium: testFace(t, goregular.TTF),
		GetFallback: func(text string, bold, italic bool) (*face.Face, error) {
			return nil, fmt.Errorf("resolver exploded")
		},
		PtSz: 11, XDPI: 96, YDPI: 96,
	})
	if err != nil {
		t.Fatal(err)
	}
	line := &Line{Cells: []Cell{{Ch: 0x1f600, Attrs: 1}, {Ch: 'A', Attrs: 1}}}
	if err := r.RenderLine(line); err != nil {
		t.Fatalf("resolver failure must not abort the line: %v", err)
	}
	// SetFont resets the atlas cursor, so 'A' is the first allocation
	// and legitimately sits at (0,0,0); check its upload instead.
	if len(sink.uploads) != 1 || spriteOf(line.Cells[1]) != ([3]uint16{sink.uploads[0].x, sink.uploads[0].y, sink.uploads[0].z}) {
		t.Error("cells after the failing one should still render")
	}
}

func TestRenderLineSymbolMap(t *testing.T) {
	r, sink := newTestRenderer(t)
	symbol := testFace(t, goregular.TTF)
	_, err := r.SetFont(FontSetup{
		Medium:      testFace(t, goregular.TTF),
		SymbolMaps:  []SymbolMap{{Left: 'A', Right: 'B', FontIndex: 0}},
		SymbolFaces: []StyledFace{{Face: symbol}},
		PtSz:        11, XDPI: 96, YDPI: 96,
	})
	if err != nil {
		t.Fatal(err)
	}
	sink.uploads = nil
	r.SetUploadSink(sink.sink)

	// 'A' routes through the symbol face, 'C' through medium; the two
	// runs must not share a sprite cache even for equal glyph ids.
	line := asciiLine("AC")
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	if len(sink.uploads) != 2 {
		t.Errorf("%d uploads, want 2", len(sink.uploads))
	}
	if spriteOf(line.Cells[0]) == spriteOf(line.Cells[1]) {
		t.Error("symbol-mapped and medium cells share a sprite")
	}
}

func TestRenderLineAtlasExhaustion(t *testing.T) {
	r, _ := newTestRenderer(t)
	m := r.Metrics()
	// One slot per layer, one layer.
	r.SetSpriteMapLimits(m.CellWidth, 1)
	r.SetSpriteMapLayout(m.CellWidth, m.CellHeight)

	line := asciiLine("abc")
	err := r.RenderLine(line)
	if !errors.Is(err, atlas.ErrAtlasExhausted) {
		t.Fatalf("err = %v, want ErrAtlasExhausted", err)
	}
	if got := spriteOf(line.Cells[0]); got != [3]uint16{} {
		t.Errorf("first glyph sprite = %v, want (0,0,0)", got)
	}
	for i := 1; i < 3; i++ {
		if got := spriteOf(line.Cells[i]); got != [3]uint16{MissingGlyph, 0, 0} {
			t.Errorf("cell %d sprite = %v, want missing sentinel", i, got)
		}
	}
}

func TestRenderLineUploadOrderMonotone(t *testing.T) {
	r, sink := newTestRenderer(t)
	line := asciiLine("the quick brown fox")
	if err := r.RenderLine(line); err != nil {
		t.Fatal(err)
	}
	var prev atlas.Position
	for i, u := range sink.uploads {
		pos := atlas.Position{X: u.x, Y: u.y, Z: u.z}
		if i > 0 && !prev.Less(pos) {
			t.Fatalf("upload %d out of order: %v then %v", i, prev, pos)
		}
		prev = pos
	}
}
