package boxdraw

// canvas is a cell-sized grayscale drawing target.
type canvas struct {
	buf  []byte
	w, h int
}

// lightThickness is the stroke width of a light line in this cell.
func (c *canvas) lightThickness() int {
	t := min(c.w, c.h) / 8
	if t < 1 {
		t = 1
	}
	return t
}

func (c *canvas) thickness(weight uint8) int {
	t := c.lightThickness()
	if weight == heavy {
		t *= 2
	}
	return t
}

// fillRect fills the clipped rectangle [x0,x1) x [y0,y1).
func (c *canvas) fillRect(x0, y0, x1, y1 int) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, c.w), min(y1, c.h)
	for y := y0; y < y1; y++ {
		row := c.buf[y*c.w : y*c.w+c.w]
		for x := x0; x < x1; x++ {
			row[x] = 255
		}
	}
}

// hSpan draws a horizontal stroke of the given thickness centered on
// the cell's midline, spanning columns [x0,x1).
func (c *canvas) hSpan(x0, x1, t int) {
	y := c.h/2 - t/2
	c.fillRect(x0, y, x1, y+t)
}

// vSpan draws a vertical stroke spanning rows [y0,y1).
func (c *canvas) vSpan(y0, y1, t int) {
	x := c.w/2 - t/2
	c.fillRect(x, y0, x+t, y1)
}

// hSpanAt draws a horizontal stroke centered on an arbitrary row.
func (c *canvas) hSpanAt(x0, x1, cy, t int) {
	c.fillRect(x0, cy-t/2, x1, cy-t/2+t)
}

// vSpanAt draws a vertical stroke centered on an arbitrary column.
func (c *canvas) vSpanAt(y0, y1, cx, t int) {
	c.fillRect(cx-t/2, y0, cx-t/2+t, y1)
}

// drawArms renders the four arms of a composed box glyph. Each arm
// runs from its cell edge to the center, extended just far enough
// past it to join cleanly with the perpendicular strokes. Double arms
// are drawn as two parallel light strokes.
func (c *canvas) drawArms(a arms) {
	lt := c.lightThickness()
	cx, cy := c.w/2, c.h/2
	gap := lt + 1

	// halfWidth is how far a stroke bundle of the given weight
	// reaches from its center line.
	halfWidth := func(weight uint8) int {
		switch weight {
		case none:
			return 0
		case light:
			return (lt + 1) / 2
		case heavy:
			return lt
		default:
			return gap + (lt+1)/2
		}
	}

	drawH := func(weight uint8, x0, x1 int) {
		if weight == double {
			c.hSpanAt(x0, x1, cy-gap, lt)
			c.hSpanAt(x0, x1, cy+gap, lt)
			return
		}
		c.hSpanAt(x0, x1, cy, c.thickness(weight))
	}
	drawV := func(weight uint8, y0, y1 int) {
		if weight == double {
			c.vSpanAt(y0, y1, cx-gap, lt)
			c.vSpanAt(y0, y1, cx+gap, lt)
			return
		}
		c.vSpanAt(y0, y1, cx, c.thickness(weight))
	}

	hext := max(halfWidth(a.up), halfWidth(a.down), halfWidth(light))
	vext := max(halfWidth(a.left), halfWidth(a.right), halfWidth(light))
	if a.left != none {
		drawH(a.left, 0, cx+hext)
	}
	if a.right != none {
		drawH(a.right, cx-hext, c.w)
	}
	if a.up != none {
		drawV(a.up, 0, cy+vext)
	}
	if a.down != none {
		drawV(a.down, cy-vext, c.h)
	}
}

// dashes renders the dashed line variants: double, triple and
// quadruple dashes, light and heavy, horizontal and vertical.
func (c *canvas) dashes(ch rune) {
	var segments int
	var vertical, isHeavy bool
	switch ch {
	case 0x2504, 0x2505, 0x2506, 0x2507:
		segments = 3
		vertical = ch >= 0x2506
		isHeavy = ch == 0x2505 || ch == 0x2507
	case 0x2508, 0x2509, 0x250a, 0x250b:
		segments = 4
		vertical = ch >= 0x250a
		isHeavy = ch == 0x2509 || ch == 0x250b
	case 0x254c, 0x254d, 0x254e, 0x254f:
		segments = 2
		vertical = ch >= 0x254e
		isHeavy = ch == 0x254d || ch == 0x254f
	}
	weight := uint8(light)
	if isHeavy {
		weight = heavy
	}
	t := c.thickness(weight)

	span := c.w
	if vertical {
		span = c.h
	}
	// Each dash fills two thirds of its slot.
	for i := 0; i < segments; i++ {
		a := i * span / segments
		b := a + (span/segments)*2/3
		if b <= a {
			b = a + 1
		}
		if vertical {
			c.vSpan(a, b, t)
		} else {
			c.hSpan(a, b, t)
		}
	}
}
