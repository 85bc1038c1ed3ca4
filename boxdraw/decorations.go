package boxdraw

import "math"

// AddStraightUnderline draws a straight underline into buf, centered
// on position with the given thickness.
func AddStraightUnderline(buf []byte, cellWidth, cellHeight, position, thickness int) {
	y := position - thickness/2
	for ; thickness > 0; thickness-- {
		if y >= 0 && y < cellHeight {
			row := buf[y*cellWidth : y*cellWidth+cellWidth]
			for x := range row {
				row[x] = 255
			}
		}
		y++
	}
}

// AddCurlUnderline draws an undercurl: one full sine period across
// the cell, amplitude equal to the thickness, with distance-weighted
// intensity so the curve stays smooth at small sizes.
func AddCurlUnderline(buf []byte, cellWidth, cellHeight, position, thickness int) {
	xfactor := 2 * math.Pi / float64(cellWidth)
	yfactor := float64(thickness)

	clampY := func(y int) int { return max(0, min(y, cellHeight-1)) }
	clampX := func(x int) int { return max(0, min(x, cellWidth-1)) }
	addIntensity := func(x, y int, distance float64) {
		v := int(buf[cellWidth*y+x]) + int(255*(1-distance))
		buf[cellWidth*y+x] = byte(min(v, 255))
	}

	for xExact := 0; xExact < cellWidth; xExact++ {
		yExact := yfactor*math.Sin(float64(xExact)*xfactor) + float64(position)
		yBelow := clampY(int(math.Floor(yExact)))
		yAbove := clampY(int(math.Ceil(yExact)))
		for _, x := range neighborhood(clampX(xExact-1), xExact, clampX(xExact+1)) {
			for _, y := range neighborhood(yBelow, yAbove, yAbove) {
				dx := float64(x) - float64(xExact)
				dy := float64(y) - yExact
				dist := math.Sqrt(dx*dx+dy*dy) / 2
				addIntensity(x, y, dist)
			}
		}
	}
}

// neighborhood returns the distinct values among a, b, c in order.
func neighborhood(a, b, c int) []int {
	out := []int{a}
	if b != a {
		out = append(out, b)
	}
	if c != a && c != b {
		out = append(out, c)
	}
	return out
}

// AddStrikethrough draws the strikethrough line at 0.65 of the
// baseline height.
func AddStrikethrough(buf []byte, cellWidth, cellHeight, baseline, thickness int) {
	pos := int(0.65 * float64(baseline))
	AddStraightUnderline(buf, cellWidth, cellHeight, pos, thickness)
}

// RenderMissingGlyph draws the hollow-box placeholder used for
// codepoints no face covers.
func RenderMissingGlyph(buf []byte, cellWidth, cellHeight int) {
	c := canvas{buf: buf, w: cellWidth, h: cellHeight}
	t := c.lightThickness()
	x0, y0 := cellWidth/8, cellHeight/8
	x1, y1 := cellWidth-cellWidth/8, cellHeight-cellHeight/8
	c.fillRect(x0, y0, x1, y0+t)
	c.fillRect(x0, y1-t, x1, y1)
	c.fillRect(x0, y0, x0+t, y1)
	c.fillRect(x1-t, y0, x1, y1)
}

// CurlThickness clamps the undercurl thickness so the curl stays
// inside the cell below the underline position.
func CurlThickness(cellHeight, position, thickness int) int {
	return max(1, min(cellHeight-position-1, thickness))
}
