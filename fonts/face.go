package fonts

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Face is a parsed TrueType or OpenType font ready for measurement
// and embedding. Linear metrics are in 1/1000 em units. The full font
// program is kept for embedding; no subsetting is applied.
type Face struct {
	// Name is the PostScript name, used as the base font name when
	// embedding.
	Name string
	// Data is the raw font program.
	Data []byte

	UnitsPerEm   int
	Ascent       float64
	Descent      float64 // positive, distance below the baseline
	CapHeight    float64
	Height       float64 // recommended line spacing
	ItalicAngle  float64
	BBox         [4]float64
	Widths       map[int]int // glyph id to advance
	DefaultWidth int

	// proto carries the parsed shaper face; text and run bounds are
	// filled in per measurement.
	proto    shaping.Input
	shapable bool
}

// ShapedGlyph is one positioned glyph. XAdvance is in 1/1000 em.
type ShapedGlyph struct {
	GID      int
	Cluster  int
	XAdvance float64
}

// LoadFace reads and parses a font file.
func LoadFace(name, path string) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	face, err := ParseFace(name, data)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	return face, nil
}

// ParseFace parses a font program and extracts the metrics the
// resolver and the PDF backend need. The name is a fallback; the
// font's own PostScript name wins when present.
func ParseFace(name string, data []byte) (*Face, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	parsed, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	unitsPerEm := parsed.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(unitsPerEm << 6)

	baseName := strings.TrimSpace(name)
	if ps, _ := parsed.Name(buf, sfnt.NameIDPostScript); len(ps) > 0 {
		baseName = ps
	}
	if baseName == "" {
		baseName = "Embedded"
	}

	widths := glyphWidths(parsed, buf, unitsPerEm, ppem)
	defaultWidth := widths[0]
	if defaultWidth == 0 {
		defaultWidth = 1000
	}

	metrics, _ := parsed.Metrics(buf, ppem, xfont.HintingNone)
	bounds, _ := parsed.Bounds(buf, ppem, xfont.HintingNone)

	face := &Face{
		Name:        baseName,
		Data:        data,
		UnitsPerEm:  int(unitsPerEm),
		Ascent:      scaleFixed(metrics.Ascent, unitsPerEm),
		Descent:     scaleFixed(metrics.Descent, unitsPerEm),
		CapHeight:   scaleFixed(metrics.CapHeight, unitsPerEm),
		Height:      scaleFixed(metrics.Height, unitsPerEm),
		ItalicAngle: italicAngle(parsed),
		BBox: [4]float64{
			scaleFixed(bounds.Min.X, unitsPerEm),
			scaleFixed(bounds.Min.Y, unitsPerEm),
			scaleFixed(bounds.Max.X, unitsPerEm),
			scaleFixed(bounds.Max.Y, unitsPerEm),
		},
		Widths:       widths,
		DefaultWidth: defaultWidth,
	}
	if face.CapHeight == 0 {
		face.CapHeight = face.Ascent
	}

	shapable, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse font for shaping: %w", err)
	}
	// Size 1000*64 makes the shaper report advances directly in
	// 1/1000 em after dropping the fixed-point fraction.
	face.proto = shaping.Input{
		Face:     shapable,
		Size:     fixed.Int26_6(1000 * 64),
		Language: language.DefaultLanguage(),
	}
	face.shapable = true
	return face, nil
}

// Shape maps text onto positioned glyphs.
func (f *Face) Shape(text string) []ShapedGlyph {
	if !f.shapable || text == "" {
		return nil
	}
	runes := []rune(text)
	script := detectScript(runes)

	input := f.proto
	input.Text = runes
	input.RunStart = 0
	input.RunEnd = len(runes)
	input.Script = script
	input.Direction = scriptDirection(script)

	output := (&shaping.HarfbuzzShaper{}).Shape(input)
	glyphs := make([]ShapedGlyph, 0, len(output.Glyphs))
	for _, g := range output.Glyphs {
		glyphs = append(glyphs, ShapedGlyph{
			GID:      int(g.GlyphID),
			Cluster:  int(g.ClusterIndex),
			XAdvance: float64(g.XAdvance) / 64.0,
		})
	}
	return glyphs
}

// TextAdvance returns the shaped width of a single line in 1/1000 em.
func (f *Face) TextAdvance(text string) float64 {
	total := 0.0
	for _, g := range f.Shape(text) {
		total += g.XAdvance
	}
	return total
}

func glyphWidths(font *sfnt.Font, buf *sfnt.Buffer, unitsPerEm sfnt.Units, ppem fixed.Int26_6) map[int]int {
	glyphs := font.NumGlyphs()
	widths := make(map[int]int, glyphs)
	for i := 0; i < int(glyphs); i++ {
		adv, err := font.GlyphAdvance(buf, sfnt.GlyphIndex(i), ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		widths[i] = int(math.Round(scaleFixed(adv, unitsPerEm)))
	}
	return widths
}

func italicAngle(font *sfnt.Font) float64 {
	post := font.PostTable()
	if post == nil {
		return 0
	}
	return post.ItalicAngle
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// detectScript picks the dominant script of the runes so the shaper
// applies the right features. Mixed-script runs follow the majority.
func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	bestScript := language.Latin

	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			bestScript = script
		}
	}
	return bestScript
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Thai, r):
		return language.Thai
	case unicode.Is(unicode.Devanagari, r):
		return language.Devanagari
	case unicode.Is(unicode.Han, r):
		return language.Han
	case unicode.Is(unicode.Hiragana, r):
		return language.Hiragana
	case unicode.Is(unicode.Katakana, r):
		return language.Katakana
	case unicode.Is(unicode.Hangul, r):
		return language.Hangul
	}
	return language.Unknown
}
