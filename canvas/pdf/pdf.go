// Package pdf renders canvas operations into a single-page PDF.
//
// The generated file keeps to a small, widely supported subset: one
// page, Type1 base fonts or fully embedded TrueType fonts, image
// XObjects, and stroked paths. Output is deterministic for identical
// input.
package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/canvas"
	"github.com/pagebox/pagebox/fonts"
	"github.com/pagebox/pagebox/geom"
	"github.com/pagebox/pagebox/layout"
)

// Option configures a Backend.
type Option func(*Backend)

// WithCompression toggles flate compression of the content stream.
func WithCompression(on bool) Option {
	return func(b *Backend) { b.compress = on }
}

// WithMeasurer sets the measurer used to wrap text into boxes. It
// should match the one the layout was resolved with.
func WithMeasurer(m layout.Measurer) Option {
	return func(b *Backend) { b.measure = m }
}

// WithRegistry supplies font faces for embedding. Families without a
// registered face map onto the viewer-provided base fonts.
func WithRegistry(reg *fonts.Registry) Option {
	return func(b *Backend) { b.registry = reg }
}

// Backend implements canvas.Canvas by accumulating content-stream
// operations and exporting them as a PDF file.
type Backend struct {
	size     geom.Size
	compress bool
	measure  layout.Measurer
	registry *fonts.Registry

	content bytes.Buffer
	path    bytes.Buffer

	cur struct {
		family  string
		size    float64
		bold    bool
		res     string
		face    *embeddedFont
		leading float64

		strokeColor geom.Color
		lineWidth   float64
		lineStyle   geom.BorderStyle
	}

	baseFonts []*baseFont
	ttfFonts  []*embeddedFont
	images    []*imageXObject
	fontSeq   int
	imageSeq  int
}

type baseFont struct {
	res  string
	name string
}

type embeddedFont struct {
	res  string
	face *fonts.Face
	// used maps drawn glyphs back to their source runes for the
	// ToUnicode table.
	used map[int]rune
}

// New returns a backend for a page of the given size in points.
func New(size geom.Size, opts ...Option) *Backend {
	b := &Backend{size: size, measure: layout.DefaultHeuristic()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Size() geom.Size { return b.size }

// Cleanup releases nothing; the backend holds no external resources.
func (b *Backend) Cleanup() error { return nil }

func (b *Backend) SetFont(family string, size float64, bold bool) error {
	if size <= 0 {
		return fmt.Errorf("font size %g is not positive", size)
	}
	b.cur.family = family
	b.cur.size = size
	b.cur.bold = bold
	if face := b.registry.Face(family, bold); face != nil {
		b.cur.face = b.embedded(face)
		b.cur.res = b.cur.face.res
		return nil
	}
	b.cur.face = nil
	b.cur.res = b.base(fonts.BaseName(family, bold))
	return nil
}

func (b *Backend) SetLineLeading(leading float64) {
	b.cur.leading = leading
}

func (b *Backend) TextWrap(topLeft geom.Point, size geom.Size, text string, align box.HAlign) error {
	if b.cur.res == "" {
		return fmt.Errorf("no font selected")
	}
	font := box.Font{Family: b.cur.family, Size: b.cur.size, Bold: b.cur.bold}
	leading := b.cur.leading
	if leading <= 0 {
		leading = b.cur.size * 1.2
	}

	lines := layout.WrapLines(b.measure, text, size.W, font)
	if max := int(size.H/leading + 1e-9); len(lines) > max {
		if max < 1 {
			max = 1
		}
		lines = lines[:max]
	}

	fmt.Fprintf(&b.content, "BT\n/%s %s Tf\n%s TL\n", b.cur.res, num(b.cur.size), num(leading))
	prevX := math.NaN()
	for i, line := range lines {
		x := topLeft.X
		switch align {
		case box.AlignCenter:
			x += math.Max(0, (size.W-b.measure.TextWidth(line, font))/2)
		case box.AlignRight:
			x += math.Max(0, size.W-b.measure.TextWidth(line, font))
		}
		switch {
		case i == 0:
			fmt.Fprintf(&b.content, "%s %s Td\n", num(x), num(topLeft.Y-b.cur.size))
		case x == prevX:
			b.content.WriteString("T*\n")
		default:
			fmt.Fprintf(&b.content, "%s %s Td\n", num(x-prevX), num(-leading))
		}
		prevX = x
		b.showLine(line)
	}
	b.content.WriteString("ET\n")
	return nil
}

// showLine emits one Tj. Embedded faces shape to glyph ids and show
// hex strings; base fonts show escaped literals.
func (b *Backend) showLine(line string) {
	if b.cur.face != nil {
		glyphs := b.cur.face.face.Shape(line)
		runes := []rune(line)
		var hex strings.Builder
		for _, g := range glyphs {
			fmt.Fprintf(&hex, "%04X", g.GID)
			if g.Cluster >= 0 && g.Cluster < len(runes) {
				if _, ok := b.cur.face.used[g.GID]; !ok {
					b.cur.face.used[g.GID] = runes[g.Cluster]
				}
			}
		}
		fmt.Fprintf(&b.content, "<%s> Tj\n", hex.String())
		return
	}
	fmt.Fprintf(&b.content, "(%s) Tj\n", escapeString(line))
}

func (b *Backend) AddImage(img canvas.ImageSource, bottomLeft geom.Point, size geom.Size) error {
	xobj, err := b.loadImage(img.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(&b.content, "q\n%s 0 0 %s %s %s cm\n/%s Do\nQ\n",
		num(size.W), num(size.H), num(bottomLeft.X), num(bottomLeft.Y), xobj.res)
	return nil
}

func (b *Backend) SetStrokeColor(c geom.Color) { b.cur.strokeColor = c }
func (b *Backend) SetLineWidth(w float64)      { b.cur.lineWidth = w }

func (b *Backend) SetLineStyle(s geom.BorderStyle) { b.cur.lineStyle = s }

func (b *Backend) Line(from, to geom.Point) {
	fmt.Fprintf(&b.path, "%s %s m\n%s %s l\n", num(from.X), num(from.Y), num(to.X), num(to.Y))
}

func (b *Backend) Stroke() error {
	if b.path.Len() == 0 {
		return nil
	}
	c := b.cur.strokeColor
	fmt.Fprintf(&b.content, "q\n%s %s %s RG\n", num(c.R), num(c.G), num(c.B))
	if b.cur.lineWidth > 0 {
		fmt.Fprintf(&b.content, "%s w\n", num(b.cur.lineWidth))
	}
	switch b.cur.lineStyle {
	case geom.BorderDashed:
		b.content.WriteString("[3 3] 0 d\n")
	case geom.BorderDotted:
		b.content.WriteString("[1 2] 0 d\n")
	}
	b.content.Write(b.path.Bytes())
	b.content.WriteString("S\nQ\n")
	b.path.Reset()
	return nil
}

func (b *Backend) base(name string) string {
	for _, f := range b.baseFonts {
		if f.name == name {
			return f.res
		}
	}
	b.fontSeq++
	f := &baseFont{res: fmt.Sprintf("F%d", b.fontSeq), name: name}
	b.baseFonts = append(b.baseFonts, f)
	return f.res
}

func (b *Backend) embedded(face *fonts.Face) *embeddedFont {
	for _, f := range b.ttfFonts {
		if f.face == face {
			return f
		}
	}
	b.fontSeq++
	f := &embeddedFont{
		res:  fmt.Sprintf("F%d", b.fontSeq),
		face: face,
		used: make(map[int]rune),
	}
	b.ttfFonts = append(b.ttfFonts, f)
	return f
}

// escapeString guards the literal string delimiters.
func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '(', ')':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			if r < 256 {
				sb.WriteByte(byte(r))
			} else {
				sb.WriteByte('?')
			}
		}
	}
	return sb.String()
}
