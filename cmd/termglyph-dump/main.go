// Command termglyph-dump renders a line of text through the full
// sprite pipeline and writes the resulting atlas layers as PGM files.
// It stands in for a GPU host during font and renderer development.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gogpu/termglyph"
	"github.com/gogpu/termglyph/boxdraw"
	"github.com/gogpu/termglyph/face"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		fontPath   string
		ptSz       float64
		dpi        float64
		outPrefix  string
		hinting    bool
		hintstyle  int
		verbose    bool
		showHelp   bool
	)

	pflag.StringVarP(&configPath, "config", "c", "", "Path to YAML font configuration")
	pflag.StringVarP(&fontPath, "font", "f", "", "Path to the medium font file (overrides config)")
	pflag.Float64VarP(&ptSz, "size", "s", 11, "Font size in points")
	pflag.Float64Var(&dpi, "dpi", 96, "Render DPI")
	pflag.StringVarP(&outPrefix, "out", "o", "atlas", "Output PGM path prefix, one file per atlas layer")
	pflag.BoolVar(&hinting, "hinting", true, "Enable glyph hinting")
	pflag.IntVar(&hintstyle, "hintstyle", 3, "Hint style (FreeType convention, 0-3)")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Log renderer activity to stderr")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help message")
	pflag.Parse()

	if showHelp {
		fmt.Fprintln(os.Stderr, "usage: termglyph-dump [flags] text...")
		pflag.PrintDefaults()
		return 0
	}
	args := pflag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: no text provided")
		return 1
	}
	text := strings.Join(args, " ")

	if verbose {
		termglyph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := defaultFileConfig()
	if configPath != "" {
		loaded, err := loadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if fontPath != "" {
		cfg.Fonts.Medium = fontPath
	}
	if cfg.Fonts.Medium == "" {
		fmt.Fprintln(os.Stderr, "error: no medium font given (use --font or a config file)")
		return 1
	}
	if cfg.Size != 0 {
		ptSz = cfg.Size
	}
	if cfg.DPI != 0 {
		dpi = cfg.DPI
	}

	setup, err := buildSetup(cfg, ptSz, dpi, hinting, hintstyle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	r, err := termglyph.NewRenderer(termglyph.Config{
		AdjustLineHeightPx:   cfg.AdjustLineHeightPx,
		AdjustLineHeightFrac: cfg.AdjustLineHeightFrac,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	r.SetSpriteMapLimits(4096, 64)

	metrics, err := r.SetFont(setup)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: installing fonts: %v\n", err)
		return 1
	}

	collector := newAtlasCollector(metrics.CellWidth, metrics.CellHeight)
	r.SetUploadSink(collector.sink)
	if err := r.Prerender(); err != nil {
		fmt.Fprintf(os.Stderr, "error: prerender: %v\n", err)
		return 1
	}

	line := lineFromText(text)
	if err := r.RenderLine(line); err != nil {
		fmt.Fprintf(os.Stderr, "error: rendering: %v\n", err)
		return 1
	}

	xnum, ynum, znum := r.CurrentLayout()
	files, err := collector.writePGMs(outPrefix, xnum, ynum, znum)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: writing output: %v\n", err)
		return 1
	}
	fmt.Printf("cell %dx%d baseline %d; %d sprites in %d layer(s); wrote %s\n",
		metrics.CellWidth, metrics.CellHeight, metrics.Baseline,
		collector.count, znum+1, strings.Join(files, ", "))
	for i, cell := range line.Cells {
		fmt.Printf("  cell %2d %q -> (%d,%d,%d)\n", i,
			cellRune(cell), cell.SpriteX, cell.SpriteY, cell.SpriteZ)
	}
	return 0
}

func cellRune(c termglyph.Cell) rune {
	if c.Ch == 0 {
		return ' '
	}
	return rune(c.Ch)
}

// lineFromText builds a cell line from a string, marking wide
// characters with the double-width attribute.
func lineFromText(text string) *termglyph.Line {
	var cells []termglyph.Cell
	for _, r := range text {
		if r == ' ' {
			cells = append(cells, termglyph.Cell{Attrs: 1})
			continue
		}
		if isWide(r) {
			cells = append(cells,
				termglyph.Cell{Ch: uint32(r), Attrs: 2},
				termglyph.Cell{Attrs: 2})
			continue
		}
		cells = append(cells, termglyph.Cell{Ch: uint32(r), Attrs: 1})
	}
	return &termglyph.Line{Cells: cells}
}

// isWide is a rough East Asian Wide test, enough for a debug tool.
func isWide(r rune) bool {
	switch {
	case r >= 0x1100 && r <= 0x115f: // Hangul Jamo
		return true
	case r >= 0x2e80 && r <= 0xa4cf: // CJK radicals .. Yi
		return true
	case r >= 0xac00 && r <= 0xd7a3: // Hangul syllables
		return true
	case r >= 0xf900 && r <= 0xfaff: // CJK compatibility ideographs
		return true
	case r >= 0xff00 && r <= 0xff60: // fullwidth forms
		return true
	case r >= 0x20000 && r <= 0x3fffd: // CJK extension planes
		return true
	}
	return false
}

// buildSetup opens the configured faces and assembles the renderer
// font setup.
func buildSetup(cfg *fileConfig, ptSz, dpi float64, hinting bool, hintstyle int) (termglyph.FontSetup, error) {
	open := func(path string) (*face.Face, error) {
		if path == "" {
			return nil, nil
		}
		return face.Open(path, 0, hinting, hintstyle)
	}
	medium, err := open(cfg.Fonts.Medium)
	if err != nil {
		return termglyph.FontSetup{}, err
	}
	bold, err := open(cfg.Fonts.Bold)
	if err != nil {
		return termglyph.FontSetup{}, err
	}
	italic, err := open(cfg.Fonts.Italic)
	if err != nil {
		return termglyph.FontSetup{}, err
	}
	bi, err := open(cfg.Fonts.BI)
	if err != nil {
		return termglyph.FontSetup{}, err
	}

	var symbolMaps []termglyph.SymbolMap
	var symbolFaces []termglyph.StyledFace
	for _, sm := range cfg.SymbolMaps {
		f, err := open(sm.Font)
		if err != nil {
			return termglyph.FontSetup{}, err
		}
		symbolFaces = append(symbolFaces, termglyph.StyledFace{Face: f})
		symbolMaps = append(symbolMaps, termglyph.SymbolMap{
			Left:      rune(sm.Left),
			Right:     rune(sm.Right),
			FontIndex: len(symbolFaces) - 1,
		})
	}

	return termglyph.FontSetup{
		BoxDrawing:  boxdraw.RenderBoxChar,
		SymbolMaps:  symbolMaps,
		SymbolFaces: symbolFaces,
		PtSz:        ptSz,
		XDPI:        dpi,
		YDPI:        dpi,
		Medium:      medium,
		Bold:        bold,
		Italic:      italic,
		BI:          bi,
	}, nil
}
