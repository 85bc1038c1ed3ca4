package face

import (
	"image"
	"image/draw"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// trimThreshold is the grayscale level below which a column counts as
// empty when trimming italic overhang.
const trimThreshold = 200

// Bitmap is a rasterized glyph in 8-bit grayscale, plus the placement
// metrics needed to position it against a baseline. StartX columns at
// the left edge have been trimmed and must be skipped when copying.
type Bitmap struct {
	Buf    []byte
	Width  int
	Rows   int
	Stride int
	StartX int

	// BearingX is the horizontal distance from the pen position to
	// the bitmap's left edge; BearingY the vertical distance from the
	// baseline up to the top edge. Both in whole pixels.
	BearingX int
	BearingY int
}

// RenderGlyph rasterizes a glyph and fits it to a strip of numCells
// cells of cellWidth pixels each:
//
//   - fits as-is when the bitmap is narrow enough;
//   - trims blank right-edge columns when an italic face overshoots
//     by less than half a cell;
//   - temporarily rescales the face and re-renders when a scalable
//     face overshoots by more than max(2, cellWidth/3);
//   - otherwise accepts the overflow, to be clipped at placement.
func (f *Face) RenderGlyph(gid uint16, cellWidth, numCells int, italic bool) (*Bitmap, error) {
	return f.renderGlyph(gid, cellWidth, numCells, italic, true)
}

func (f *Face) renderGlyph(gid uint16, cellWidth, numCells int, italic bool, rescale bool) (*Bitmap, error) {
	bm, err := f.rasterize(gid)
	if err != nil {
		return nil, err
	}
	maxWidth := cellWidth * numCells
	if bm.Width <= maxWidth {
		return bm, nil
	}
	extra := bm.Width - maxWidth
	switch {
	case italic && extra < cellWidth/2:
		bm.trimRight(extra)
	case rescale && f.scalable && extra > max(2, cellWidth/3):
		charWidth, charHeight := f.charWidth, f.charHeight
		ar := float64(maxWidth) / float64(bm.Width)
		err := f.SetCharSize(
			fixed.Int26_6(float64(charWidth)*ar),
			fixed.Int26_6(float64(charHeight)*ar),
			f.xdpi, f.ydpi,
		)
		if err != nil {
			return bm, nil
		}
		rescaled, rerr := f.renderGlyph(gid, cellWidth, numCells, italic, false)
		if err := f.SetCharSize(charWidth, charHeight, f.xdpi, f.ydpi); err != nil {
			return nil, err
		}
		if rerr != nil {
			return nil, rerr
		}
		return rescaled, nil
	}
	return bm, nil
}

// rasterize loads the glyph outline at the current ppem and fills it
// into a tightly bounded alpha bitmap.
func (f *Face) rasterize(gid uint16) (*Bitmap, error) {
	segs, err := f.sfnt.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), f.ppem, nil)
	if err != nil {
		return nil, ErrMissingGlyph
	}
	if len(segs) == 0 {
		// Whitespace: nothing to draw, nothing to place.
		return &Bitmap{}, nil
	}

	minX, minY, maxX, maxY := segmentBounds(segs)
	left, top := minX.Floor(), minY.Floor()
	w := maxX.Ceil() - left
	h := maxY.Ceil() - top
	if w <= 0 || h <= 0 {
		return &Bitmap{}, nil
	}

	// Grid fitting per the load target: a snapped axis aligns the
	// outline edge to the pixel grid, an unsnapped one keeps the
	// fractional position inside the bitmap.
	tx := -fixed.Int26_6(left << 6)
	ty := -fixed.Int26_6(top << 6)
	if f.target.snapX() {
		tx = -minX
	}
	if f.target.snapY() {
		ty = -minY
	}

	ras := vector.NewRasterizer(w, h)
	ras.DrawOp = draw.Src
	open := false
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				ras.ClosePath()
			}
			ras.MoveTo(segPt(seg.Args[0], tx, ty))
			open = true
		case sfnt.SegmentOpLineTo:
			ras.LineTo(segPt(seg.Args[0], tx, ty))
		case sfnt.SegmentOpQuadTo:
			bx, by := segPt(seg.Args[0], tx, ty)
			cx, cy := segPt(seg.Args[1], tx, ty)
			ras.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := segPt(seg.Args[0], tx, ty)
			cx, cy := segPt(seg.Args[1], tx, ty)
			dx, dy := segPt(seg.Args[2], tx, ty)
			ras.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		ras.ClosePath()
	}

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	ras.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})

	return &Bitmap{
		Buf:      dst.Pix,
		Width:    w,
		Rows:     h,
		Stride:   dst.Stride,
		BearingX: left,
		BearingY: -top,
	}, nil
}

func segPt(p fixed.Point26_6, tx, ty fixed.Int26_6) (float32, float32) {
	return float32(p.X+tx) / 64, float32(p.Y+ty) / 64
}

func segmentBounds(segs sfnt.Segments) (minX, minY, maxX, maxY fixed.Int26_6) {
	const huge = fixed.Int26_6(1 << 30)
	minX, minY = huge, huge
	maxX, maxY = -huge, -huge
	update := func(p fixed.Point26_6) {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo, sfnt.SegmentOpLineTo:
			update(seg.Args[0])
		case sfnt.SegmentOpQuadTo:
			update(seg.Args[0])
			update(seg.Args[1])
		case sfnt.SegmentOpCubeTo:
			update(seg.Args[0])
			update(seg.Args[1])
			update(seg.Args[2])
		}
	}
	return minX, minY, maxX, maxY
}

// trimRight discards up to extra blank columns from the right edge,
// then hides any remainder behind StartX so placement skips it.
// A column is blank when every pixel is at or below trimThreshold.
func (b *Bitmap) trimRight(extra int) {
	for x := b.Width - 1; x >= 0 && extra > 0; x-- {
		if !b.columnBlank(x) {
			break
		}
		b.Width--
		extra--
	}
	b.StartX = extra
	b.Width -= extra
}

func (b *Bitmap) columnBlank(x int) bool {
	for y := 0; y < b.Rows; y++ {
		if b.Buf[x+y*b.Stride] > trimThreshold {
			return false
		}
	}
	return true
}

// PlaceBitmap composites a glyph bitmap into a cell strip of
// cellWidth x cellHeight bytes. xOffset and yOffset are the fractional
// pen offsets accumulated during shaping; baseline is the row the
// glyph origin sits on.
//
// Pixels are blended with wrap-around addition modulo 256. Overlapping
// marks rely on this exact arithmetic; do not saturate.
func PlaceBitmap(cell []byte, bm *Bitmap, cellWidth, cellHeight int, xOffset, yOffset float64, baseline int) {
	if bm == nil || bm.Width <= 0 || bm.Rows <= 0 {
		return
	}

	xoff := int(xOffset + float64(bm.BearingX))
	srcStartColumn, destStartColumn := bm.StartX, 0
	if xoff < 0 {
		srcStartColumn += -xoff
	} else {
		destStartColumn = xoff
	}
	// Slide the destination back when the bitmap would spill past the
	// right edge because of the offset.
	if destStartColumn > 0 && destStartColumn+bm.Width > cellWidth {
		extra := destStartColumn + bm.Width - cellWidth
		if extra > destStartColumn {
			destStartColumn = 0
		} else {
			destStartColumn -= extra
		}
	}

	yoff := int(yOffset + float64(bm.BearingY))
	destStartRow := 0
	if yoff <= baseline {
		destStartRow = baseline - yoff
	}

	for sr, dr := 0, destStartRow; sr < bm.Rows && dr < cellHeight; sr, dr = sr+1, dr+1 {
		srcRow := bm.Buf[sr*bm.Stride:]
		destRow := cell[dr*cellWidth:]
		for sc, dc := srcStartColumn, destStartColumn; sc < bm.Width && dc < cellWidth; sc, dc = sc+1, dc+1 {
			destRow[dc] = byte((uint16(destRow[dc]) + uint16(srcRow[sc])) % 256)
		}
	}
}

// SplitCells slices a strip of len(cells) horizontally adjacent cells
// into the individual cell buffers. src holds
// len(cells)*cellWidth*cellHeight bytes; each destination buffer holds
// cellWidth*cellHeight.
func SplitCells(cellWidth, cellHeight int, src []byte, cells [][]byte) {
	stride := len(cells) * cellWidth
	for y := 0; y < cellHeight; y++ {
		for i, cell := range cells {
			copy(cell[y*cellWidth:(y+1)*cellWidth], src[y*stride+i*cellWidth:])
		}
	}
}
