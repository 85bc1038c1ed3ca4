package boxdraw

import "testing"

func TestAddStraightUnderline(t *testing.T) {
	const w, h = 8, 16
	buf := make([]byte, w*h)
	AddStraightUnderline(buf, w, h, 12, 2)
	for x := 0; x < w; x++ {
		if buf[11*w+x] != 255 || buf[12*w+x] != 255 {
			t.Fatalf("underline rows not filled at column %d", x)
		}
	}
	if buf[0] != 0 {
		t.Error("underline leaked into the top row")
	}
}

func TestAddStraightUnderlineClipsBottom(t *testing.T) {
	const w, h = 8, 16
	buf := make([]byte, w*h)
	// Position at the last row must not write out of bounds.
	AddStraightUnderline(buf, w, h, h-1, 3)
	if buf[(h-1)*w] != 255 {
		t.Error("bottom row should be filled")
	}
}

func TestAddCurlUnderline(t *testing.T) {
	const w, h = 12, 20
	buf := make([]byte, w*h)
	AddCurlUnderline(buf, w, h, 15, 2)
	n := 0
	minY, maxY := h, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if buf[y*w+x] > 0 {
				n++
				minY = min(minY, y)
				maxY = max(maxY, y)
			}
		}
	}
	if n == 0 {
		t.Fatal("undercurl rendered empty")
	}
	if maxY-minY < 2 {
		t.Errorf("undercurl should oscillate vertically, spans rows %d..%d", minY, maxY)
	}
}

func TestCurlThickness(t *testing.T) {
	tests := []struct {
		cellHeight, position, thickness, want int
	}{
		{20, 15, 2, 2},
		{20, 18, 5, 1},
		{20, 19, 5, 1},
		{20, 10, 100, 9},
	}
	for _, tc := range tests {
		if got := CurlThickness(tc.cellHeight, tc.position, tc.thickness); got != tc.want {
			t.Errorf("CurlThickness(%d, %d, %d) = %d, want %d",
				tc.cellHeight, tc.position, tc.thickness, got, tc.want)
		}
	}
}

func TestAddStrikethrough(t *testing.T) {
	const w, h = 8, 16
	buf := make([]byte, w*h)
	AddStrikethrough(buf, w, h, 12, 1)
	// 0.65 * 12 = 7.8 -> row 7.
	found := false
	for x := 0; x < w; x++ {
		if buf[7*w+x] == 255 {
			found = true
		}
	}
	if !found {
		t.Error("strikethrough row not filled")
	}
}

func TestRenderMissingGlyphIsHollow(t *testing.T) {
	const w, h = 16, 32
	buf := make([]byte, w*h)
	RenderMissingGlyph(buf, w, h)
	if buf[(h/2)*w+w/2] != 0 {
		t.Error("missing-glyph box should be hollow in the center")
	}
	n := 0
	for _, b := range buf {
		if b > 0 {
			n++
		}
	}
	if n == 0 {
		t.Fatal("missing-glyph box rendered empty")
	}
	if buf[0] != 0 {
		t.Error("missing-glyph box should be inset from the cell corner")
	}
}
