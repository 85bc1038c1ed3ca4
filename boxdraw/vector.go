package boxdraw

import (
	"image"
	"image/color"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// rasterize runs a rasterx drawing function over a scratch RGBA image
// and accumulates the resulting coverage into the cell buffer.
func (c *canvas) rasterize(draw func(scanner *rasterx.ScannerGV)) {
	img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	scanner := rasterx.NewScannerGV(c.w, c.h, img, img.Bounds())
	scanner.SetColor(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	draw(scanner)
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			v := img.Pix[y*img.Stride+x*4+3]
			p := &c.buf[y*c.w+x]
			if int(*p)+int(v) > 255 {
				*p = 255
			} else {
				*p += v
			}
		}
	}
}

// triangle fills the Powerline separator triangle: pointing right for
// 0xe0b0, pointing left for 0xe0b2.
func (c *canvas) triangle(pointLeft bool) {
	w, h := float64(c.w), float64(c.h)
	c.rasterize(func(scanner *rasterx.ScannerGV) {
		filler := rasterx.NewFiller(c.w, c.h, scanner)
		if pointLeft {
			filler.Start(rasterx.ToFixedP(w, 0))
			filler.Line(rasterx.ToFixedP(0, h/2))
			filler.Line(rasterx.ToFixedP(w, h))
		} else {
			filler.Start(rasterx.ToFixedP(0, 0))
			filler.Line(rasterx.ToFixedP(w, h/2))
			filler.Line(rasterx.ToFixedP(0, h))
		}
		filler.Stop(true)
		filler.Draw()
	})
}

// arc draws the rounded corners 0x256d..0x2570 as a stroked quarter
// curve between the two cell edges through the center.
func (c *canvas) arc(ch rune) {
	w, h := float64(c.w), float64(c.h)
	cx, cy := w/2, h/2
	t := c.lightThickness()

	var from, ctrl, to [2]float64
	switch ch {
	case 0x256d: // arc down and right
		from, ctrl, to = [2]float64{w, cy}, [2]float64{cx, cy}, [2]float64{cx, h}
	case 0x256e: // arc down and left
		from, ctrl, to = [2]float64{0, cy}, [2]float64{cx, cy}, [2]float64{cx, h}
	case 0x256f: // arc up and left
		from, ctrl, to = [2]float64{0, cy}, [2]float64{cx, cy}, [2]float64{cx, 0}
	default: // 0x2570, arc up and right
		from, ctrl, to = [2]float64{w, cy}, [2]float64{cx, cy}, [2]float64{cx, 0}
	}

	c.rasterize(func(scanner *rasterx.ScannerGV) {
		stroker := rasterx.NewStroker(c.w, c.h, scanner)
		stroker.SetStroke(fixed26_6(t), fixed26_6(4*t),
			rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap, rasterx.ArcClip)
		stroker.Start(rasterx.ToFixedP(from[0], from[1]))
		stroker.QuadBezier(rasterx.ToFixedP(ctrl[0], ctrl[1]), rasterx.ToFixedP(to[0], to[1]))
		stroker.Stop(false)
		stroker.Draw()
	})
}

func fixed26_6(v int) fixed.Int26_6 {
	return fixed.Int26_6(v << 6)
}
