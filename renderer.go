package termglyph

import (
	"fmt"

	"golang.org/x/image/math/fixed"

	"github.com/gogpu/termglyph/atlas"
	"github.com/gogpu/termglyph/face"
)

// MissingGlyph is the reserved sprite x-index of the missing-glyph
// placeholder uploaded by Prerender. Cells with no covering face
// anywhere point at it.
const MissingGlyph = 4

// Metrics are the published cell metrics of the current
// configuration.
type Metrics = face.Metrics

// UploadSink receives a cell-sized sprite whenever a cache miss
// rasterizes a new one. pixels is cellWidth*cellHeight bytes of 8-bit
// grayscale; the sink may upload it to the GPU but must not call back
// into the renderer.
type UploadSink func(x, y, z uint16, pixels []byte)

// FallbackResolver is invoked on a coverage miss with the cell's full
// text. Returning a nil face means no fallback exists and the cell
// renders as the missing-glyph sentinel.
type FallbackResolver func(text string, bold, italic bool) (*face.Face, error)

// BoxDrawing synthesizes a box-drawing glyph into a fresh
// cellWidth*cellHeight buffer.
type BoxDrawing func(ch rune, cellWidth, cellHeight int) ([]byte, error)

// Config carries the user adjustments applied after measuring the
// medium face.
type Config struct {
	// AdjustLineHeightPx is added to the measured cell height.
	AdjustLineHeightPx int

	// AdjustLineHeightFrac scales the measured cell height when
	// non-zero.
	AdjustLineHeightFrac float64
}

// DefaultConfig returns a configuration with no adjustments.
func DefaultConfig() Config { return Config{} }

// Validate checks the adjustment values for sanity.
func (c *Config) Validate() error {
	if c.AdjustLineHeightFrac < 0 {
		return fmt.Errorf("termglyph: negative line height fraction %g", c.AdjustLineHeightFrac)
	}
	return nil
}

// FontSetup is the full font configuration installed by SetFont.
type FontSetup struct {
	// GetFallback resolves faces for codepoints no installed face
	// covers. Optional.
	GetFallback FallbackResolver

	// BoxDrawing synthesizes box-drawing sprites. Optional; without
	// it box cells render blank.
	BoxDrawing BoxDrawing

	// SymbolMaps routes codepoint ranges to SymbolFaces entries.
	SymbolMaps  []SymbolMap
	SymbolFaces []StyledFace

	// PtSz is the font size in points; the DPI values scale it to
	// pixels.
	PtSz       float64
	XDPI, YDPI float64

	// Medium is required. The styled variants are optional and fall
	// through to Medium when absent.
	Medium, Bold, Italic, BI *face.Face
}

// Renderer owns one window's rendering configuration: the installed
// fonts, the sprite tracker, the scratch canvas and the upload sink.
//
// All methods must be called from a single thread; configuration
// mutators must not run while RenderLine is in progress.
type Renderer struct {
	cfg     Config
	tracker *atlas.Tracker

	medium, bold, italic, bi *font

	symbolMaps  []SymbolMap
	symbolFonts []*font

	fallback          []*font
	fallbackSaturated bool

	// boxSprites caches synthesized box glyphs; box cells have no
	// backing face.
	boxSprites atlas.SpriteMap

	getFallback FallbackResolver
	boxDraw     BoxDrawing

	sink UploadSink

	metrics  Metrics
	canvas   []byte
	charSize fixed.Int26_6
	xdpi     float64
	ydpi     float64

	rendering bool
}

// defaultSink is the native upload path. Hosts that upload inside
// their GPU loop replace it with SetUploadSink; the default simply
// drops pixels so the core can run headless.
func defaultSink(x, y, z uint16, pixels []byte) {}

// NewRenderer creates a renderer with the given adjustments and no
// fonts installed.
func NewRenderer(cfg Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{
		cfg:     cfg,
		tracker: atlas.NewTracker(),
		sink:    defaultSink,
	}, nil
}

// SetSpriteMapLimits installs the GPU capacity limits. Call before
// the first SetFont.
func (r *Renderer) SetSpriteMapLimits(maxTextureSize, maxArrayLen int) {
	r.tracker.SetLimits(maxTextureSize, maxArrayLen)
}

// SetSpriteMapLayout recomputes the atlas grid for an explicit cell
// size and resets the allocation cursor. SetFont and SetFontSize do
// this automatically.
func (r *Renderer) SetSpriteMapLayout(cellWidth, cellHeight int) {
	r.tracker.SetLayout(cellWidth, cellHeight)
}

// CurrentLayout reports the occupied atlas volume; the GPU side sizes
// its textures from it.
func (r *Renderer) CurrentLayout() (xnum, ynum, znum int) {
	return r.tracker.CurrentLayout()
}

// Metrics returns the published metrics of the current configuration.
func (r *Renderer) Metrics() Metrics { return r.metrics }

// SetUploadSink replaces the upload sink. Passing nil restores the
// native default.
func (r *Renderer) SetUploadSink(fn UploadSink) {
	if fn == nil {
		fn = defaultSink
	}
	r.sink = fn
}

// SetFont installs a complete font configuration: callbacks, symbol
// maps and the styled faces, then recomputes cell metrics at the
// given size. On error the previous configuration stays installed.
func (r *Renderer) SetFont(setup FontSetup) (Metrics, error) {
	if r.rendering {
		return Metrics{}, ErrRenderInProgress
	}
	if setup.Medium == nil {
		return Metrics{}, ErrNoFont
	}
	for _, sm := range setup.SymbolMaps {
		if sm.FontIndex < 0 || sm.FontIndex >= len(setup.SymbolFaces) {
			return Metrics{}, fmt.Errorf("termglyph: symbol map %U-%U references face %d of %d",
				sm.Left, sm.Right, sm.FontIndex, len(setup.SymbolFaces))
		}
	}

	medium := newFont(setup.Medium, false, false)
	var bold, italic, bi *font
	if setup.Bold != nil {
		bold = newFont(setup.Bold, true, false)
	}
	if setup.Italic != nil {
		italic = newFont(setup.Italic, false, true)
	}
	if setup.BI != nil {
		bi = newFont(setup.BI, true, true)
	}
	symbolFonts := make([]*font, len(setup.SymbolFaces))
	for i, sf := range setup.SymbolFaces {
		symbolFonts[i] = newFont(sf.Face, sf.Bold, sf.Italic)
	}

	metrics, canvas, err := r.measure(setup.PtSz, setup.XDPI, setup.YDPI,
		medium, bold, italic, bi, symbolFonts, nil)
	if err != nil {
		return Metrics{}, err
	}

	// Commit. Old fonts drop their chains for the collector.
	for _, f := range r.allFonts() {
		f.sprites.Free()
	}
	r.medium, r.bold, r.italic, r.bi = medium, bold, italic, bi
	r.symbolMaps = append([]SymbolMap(nil), setup.SymbolMaps...)
	r.symbolFonts = symbolFonts
	r.fallback = nil
	r.fallbackSaturated = false
	r.getFallback = setup.GetFallback
	r.boxDraw = setup.BoxDrawing
	r.boxSprites.Clear()
	r.install(metrics, canvas, setup.PtSz, setup.XDPI, setup.YDPI)

	Logger().Info("termglyph: font configuration installed",
		"cell_width", metrics.CellWidth, "cell_height", metrics.CellHeight,
		"baseline", metrics.Baseline, "symbol_maps", len(r.symbolMaps))
	return metrics, nil
}

// charSizeState snapshots one face's scaled size so a failed
// reconfiguration can roll it back.
type charSizeState struct {
	width, height fixed.Int26_6
	xdpi, ydpi    float64
}

// SetFontSize rescales every installed face and recomputes cell
// metrics. The sprite maps are cleared: all sprite positions from the
// previous size are invalid. On error every face is restored to its
// previous size and the installed metrics stay valid.
func (r *Renderer) SetFontSize(ptSz, xdpi, ydpi float64) (Metrics, error) {
	if r.rendering {
		return Metrics{}, ErrRenderInProgress
	}
	if r.medium == nil {
		return Metrics{}, ErrNoFont
	}
	// measure resizes the live faces; snapshot their sizes so a
	// rejected result can be rolled back instead of leaving the faces
	// at a scale the installed metrics do not match.
	fonts := r.allFonts()
	saved := make([]charSizeState, len(fonts))
	for i, f := range fonts {
		s := &saved[i]
		s.width, s.height, s.xdpi, s.ydpi = f.face.CharSize()
	}
	metrics, canvas, err := r.measure(ptSz, xdpi, ydpi,
		r.medium, r.bold, r.italic, r.bi, r.symbolFonts, r.fallback)
	if err != nil {
		for i, f := range fonts {
			s := saved[i]
			// The snapshot was valid when taken; restoring it cannot
			// fail.
			_ = f.face.SetCharSize(s.width, s.height, s.xdpi, s.ydpi)
		}
		return Metrics{}, err
	}
	for _, f := range fonts {
		f.sprites.Clear()
	}
	r.boxSprites.Clear()
	r.install(metrics, canvas, ptSz, xdpi, ydpi)
	return metrics, nil
}

// measure resizes the given fonts, measures the medium face and
// applies the configured adjustments. Nothing is installed on the
// renderer until the caller commits.
func (r *Renderer) measure(ptSz, xdpi, ydpi float64, medium, bold, italic, bi *font,
	symbolFonts, fallback []*font) (Metrics, []byte, error) {

	if ptSz <= 0 || xdpi <= 0 || ydpi <= 0 {
		return Metrics{}, nil, fmt.Errorf("termglyph: invalid font size %gpt at %gx%g dpi", ptSz, xdpi, ydpi)
	}
	charSize := fixed.Int26_6(ptSz * 64)
	fonts := make([]*font, 0, 4+len(symbolFonts)+len(fallback))
	for _, f := range []*font{medium, bold, italic, bi} {
		if f != nil {
			fonts = append(fonts, f)
		}
	}
	fonts = append(fonts, symbolFonts...)
	fonts = append(fonts, fallback...)
	for _, f := range fonts {
		if err := f.face.SetCharSize(charSize, charSize, xdpi, ydpi); err != nil {
			return Metrics{}, nil, err
		}
	}

	m, err := medium.face.CellMetrics()
	if err != nil {
		return Metrics{}, nil, err
	}
	if m.CellWidth == 0 {
		return Metrics{}, nil, &MetricsError{Reason: "failed to calculate cell width for the medium font"}
	}
	if r.cfg.AdjustLineHeightPx != 0 {
		m.CellHeight += r.cfg.AdjustLineHeightPx
	}
	if r.cfg.AdjustLineHeightFrac != 0 {
		m.CellHeight = int(float64(m.CellHeight) * r.cfg.AdjustLineHeightFrac)
	}
	if m.CellHeight < 4 {
		return Metrics{}, nil, &MetricsError{CellWidth: m.CellWidth, CellHeight: m.CellHeight,
			Reason: "line height too small after adjustment"}
	}
	if m.CellHeight > 1000 {
		return Metrics{}, nil, &MetricsError{CellWidth: m.CellWidth, CellHeight: m.CellHeight,
			Reason: "line height too large after adjustment"}
	}
	m.UnderlinePosition = min(m.CellHeight-1, m.UnderlinePosition)

	return m, make([]byte, m.CellWidth*m.CellHeight), nil
}

// install commits measured metrics: atlas layout, scratch canvas and
// the size state used when sizing fallback faces discovered later.
func (r *Renderer) install(m Metrics, canvas []byte, ptSz, xdpi, ydpi float64) {
	r.metrics = m
	r.canvas = canvas
	r.charSize = fixed.Int26_6(ptSz * 64)
	r.xdpi, r.ydpi = xdpi, ydpi
	r.tracker.SetLayout(m.CellWidth, m.CellHeight)
}

// allFonts returns every installed real font, styled and discovered.
func (r *Renderer) allFonts() []*font {
	fonts := make([]*font, 0, 4+len(r.symbolFonts)+len(r.fallback))
	for _, f := range []*font{r.medium, r.bold, r.italic, r.bi} {
		if f != nil {
			fonts = append(fonts, f)
		}
	}
	fonts = append(fonts, r.symbolFonts...)
	fonts = append(fonts, r.fallback...)
	return fonts
}

// clearCanvas zeroes the scratch canvas before a glyph is composed
// into it.
func (r *Renderer) clearCanvas() {
	clear(r.canvas)
}

// SendPrerenderedSprites appends pre-rendered cell buffers to the
// atlas, preceded by a blank cell, and returns the x coordinate of
// the last sprite issued. Hosts use it to pin cursor shapes and
// decoration sprites at conventional slots right after a
// reconfiguration.
func (r *Renderer) SendPrerenderedSprites(bufs ...[]byte) (int, error) {
	if r.medium == nil {
		return 0, ErrNoFont
	}
	r.clearCanvas()
	pos, err := r.tracker.Allocate()
	if err != nil {
		return 0, err
	}
	r.sink(pos.X, pos.Y, pos.Z, r.canvas)
	for _, buf := range bufs {
		pos, err = r.tracker.Allocate()
		if err != nil {
			return 0, err
		}
		r.sink(pos.X, pos.Y, pos.Z, buf)
	}
	return int(pos.X), nil
}
