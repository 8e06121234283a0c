package layout

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/h2non/filetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/width"
)

// Fonts keeps parsed fonts. Parsed fonts are read only and could be shared
// by any number of workspaces.
type Fonts struct {
	Regular *truetype.Font
	Bold    *truetype.Font
}

// LoadFonts parses font files. Empty regular path selects embedded Go fonts,
// empty bold path with custom regular font reuses regular font for bold text
// (no weight synthesis).
func LoadFonts(regularPath, boldPath string) (*Fonts, error) {
	if len(regularPath) == 0 {
		regular, err := truetype.Parse(goregular.TTF)
		if err != nil {
			return nil, fmt.Errorf("unable to parse embedded regular font: %w", err)
		}
		bold, err := truetype.Parse(gobold.TTF)
		if err != nil {
			return nil, fmt.Errorf("unable to parse embedded bold font: %w", err)
		}
		return &Fonts{Regular: regular, Bold: bold}, nil
	}

	regular, err := loadFont(regularPath)
	if err != nil {
		return nil, err
	}
	bold := regular
	if len(boldPath) > 0 {
		if bold, err = loadFont(boldPath); err != nil {
			return nil, err
		}
	}
	return &Fonts{Regular: regular, Bold: bold}, nil
}

func loadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	if !filetype.Is(data, "ttf") {
		return nil, fmt.Errorf("not a TrueType font (%s)", path)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF (%s): %w", path, err)
	}
	return f, nil
}

type faceKey struct {
	size float64
	bold bool
}

// face caches advances, it belongs to a single workspace.
type face struct {
	font.Face
	ttf      *truetype.Font
	size     float64
	spacing  float64
	advances map[rune]float64
}

func newFace(ttf *truetype.Font, size, letterSpacing float64) *face {
	return &face{
		Face: truetype.NewFace(ttf, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		}),
		ttf:      ttf,
		size:     size,
		spacing:  size * letterSpacing,
		advances: make(map[rune]float64),
	}
}

func (f *face) advance(r rune) float64 {
	if adv, ok := f.advances[r]; ok {
		return adv
	}
	var adv float64
	if f.ttf.Index(r) == 0 {
		// no glyph, browser would pick fallback font
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			adv = f.size
		default:
			adv = f.size / 2
		}
	} else if a, ok := f.GlyphAdvance(r); ok {
		adv = toFloat(a)
	}
	adv += f.spacing
	f.advances[r] = adv
	return adv
}

// measure returns width of the string, kerning included.
func (f *face) measure(s string) float64 {
	var (
		w    float64
		prev rune = -1
	)
	for _, r := range s {
		if prev >= 0 {
			w += toFloat(f.Kern(prev, r))
		}
		w += f.advance(r)
		prev = r
	}
	return w
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
