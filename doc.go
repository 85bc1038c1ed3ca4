// Package termglyph converts a terminal's logical cell grid into
// rasterized glyph sprites in a GPU texture atlas.
//
// # Overview
//
// A Renderer walks each Line, partitions it into maximal runs of
// cells that resolve to the same font face, shapes every run with a
// HarfBuzz-style shaper, rasterizes the shaped glyphs into cell-sized
// grayscale bitmaps and hands each new sprite to an upload sink
// exactly once. Sprite atlas positions are cached per face, so a
// glyph rendered in one frame costs a single hash probe in every
// later frame.
//
// # Quick Start
//
//	r, _ := termglyph.NewRenderer(termglyph.DefaultConfig())
//	r.SetSpriteMapLimits(4096, 256)
//	medium, _ := face.Open("/usr/share/fonts/mono.ttf", 0, true, 3)
//	metrics, _ := r.SetFont(termglyph.FontSetup{
//		Medium:     medium,
//		BoxDrawing: boxdraw.RenderBoxChar,
//		PtSz:       11, XDPI: 96, YDPI: 96,
//	})
//	r.SetUploadSink(uploadToGPU)
//	_ = r.Prerender()
//	_ = r.RenderLine(line) // writes sprite coords into line.Cells
//	_ = metrics
//
// # Concurrency
//
// The renderer is single-threaded by design: shaping, rasterization,
// cache updates and sink invocations are synchronous, and the sink
// must not call back into the renderer. Hosts serialize configuration
// changes against rendering.
package termglyph
