// Package raster renders canvas operations into a PNG image.
//
// Coordinates arrive in points with a bottom-left origin and are
// mapped onto the pixel grid top-down. Glyphs come from registered
// TrueType faces, falling back to the Go fonts for the viewer-side
// families PDF output leaves unembedded.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/canvas"
	"github.com/pagebox/pagebox/fonts"
	"github.com/pagebox/pagebox/geom"
	"github.com/pagebox/pagebox/layout"
)

// Option configures a Backend.
type Option func(*Backend)

// WithDPI sets the output resolution. 72 maps one point to one pixel.
func WithDPI(dpi float64) Option {
	return func(b *Backend) {
		if dpi > 0 {
			b.dpi = dpi
		}
	}
}

// WithMeasurer sets the measurer used to wrap and align text. It
// should match the one the layout was resolved with.
func WithMeasurer(m layout.Measurer) Option {
	return func(b *Backend) { b.measure = m }
}

// WithRegistry supplies TrueType faces for registered families.
func WithRegistry(reg *fonts.Registry) Option {
	return func(b *Backend) { b.registry = reg }
}

type segment struct {
	from, to geom.Point
}

type faceKey struct {
	family string
	size   float64
	bold   bool
}

// Backend implements canvas.Canvas by drawing onto an RGBA image.
type Backend struct {
	size     geom.Size
	dpi      float64
	scale    float64
	measure  layout.Measurer
	registry *fonts.Registry

	img   *image.RGBA
	black *image.Uniform

	parsed map[string]*sfnt.Font
	faces  map[faceKey]xfont.Face

	cur struct {
		family  string
		size    float64
		bold    bool
		face    xfont.Face
		leading float64

		color geom.Color
		width float64
		style geom.BorderStyle
	}
	pending []segment
}

// New returns a backend for a page of the given size in points,
// rasterized at the configured resolution onto a white background.
func New(size geom.Size, opts ...Option) *Backend {
	b := &Backend{
		size:    size,
		dpi:     72,
		measure: layout.DefaultHeuristic(),
		black:   image.NewUniform(color.Black),
		parsed:  make(map[string]*sfnt.Font),
		faces:   make(map[faceKey]xfont.Face),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.scale = b.dpi / 72
	w := int(math.Ceil(size.W * b.scale))
	h := int(math.Ceil(size.H * b.scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	b.img = image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(b.img, b.img.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	return b
}

func (b *Backend) Size() geom.Size { return b.size }

func (b *Backend) Cleanup() error { return nil }

func (b *Backend) SetFont(family string, size float64, bold bool) error {
	if size <= 0 {
		return fmt.Errorf("font size %g is not positive", size)
	}
	face, err := b.face(family, size, bold)
	if err != nil {
		return err
	}
	b.cur.family = family
	b.cur.size = size
	b.cur.bold = bold
	b.cur.face = face
	return nil
}

func (b *Backend) SetLineLeading(leading float64) {
	b.cur.leading = leading
}

func (b *Backend) TextWrap(topLeft geom.Point, size geom.Size, text string, align box.HAlign) error {
	if b.cur.face == nil {
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

	baseline := topLeft.Y - b.cur.size
	for _, line := range lines {
		x := topLeft.X
		switch align {
		case box.AlignCenter:
			x += math.Max(0, (size.W-b.measure.TextWidth(line, font))/2)
		case box.AlignRight:
			x += math.Max(0, size.W-b.measure.TextWidth(line, font))
		}
		d := xfont.Drawer{
			Dst:  b.img,
			Src:  b.black,
			Face: b.cur.face,
			Dot: fixed.Point26_6{
				X: fixed.Int26_6(math.Round(x * b.scale * 64)),
				Y: fixed.Int26_6(math.Round((b.size.H - baseline) * b.scale * 64)),
			},
		}
		d.DrawString(line)
		baseline -= leading
	}
	return nil
}

func (b *Backend) AddImage(img canvas.ImageSource, bottomLeft geom.Point, size geom.Size) error {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image %s: %w", img.Path, err)
	}
	rect := image.Rect(
		b.devX(bottomLeft.X), b.devY(bottomLeft.Y+size.H),
		b.devX(bottomLeft.X+size.W), b.devY(bottomLeft.Y),
	)
	xdraw.CatmullRom.Scale(b.img, rect, src, src.Bounds(), xdraw.Over, nil)
	return nil
}

func (b *Backend) SetStrokeColor(c geom.Color) { b.cur.color = c }
func (b *Backend) SetLineWidth(w float64)      { b.cur.width = w }

func (b *Backend) SetLineStyle(s geom.BorderStyle) { b.cur.style = s }

func (b *Backend) Line(from, to geom.Point) {
	b.pending = append(b.pending, segment{from: from, to: to})
}

func (b *Backend) Stroke() error {
	for _, seg := range b.pending {
		b.strokeSegment(
			seg.from.X*b.scale, (b.size.H-seg.from.Y)*b.scale,
			seg.to.X*b.scale, (b.size.H-seg.to.Y)*b.scale,
		)
	}
	b.pending = b.pending[:0]
	return nil
}

// strokeSegment walks the line in half-pixel steps, stamping a
// width-sized square wherever the dash pattern is on.
func (b *Backend) strokeSegment(x0, y0, x1, y1 float64) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	w := math.Max(1, b.cur.width*b.scale)
	half := w / 2
	on, period := dashPattern(b.cur.style, b.scale)
	src := image.NewUniform(rgba(b.cur.color))

	for t := 0.0; t <= length; t += 0.5 {
		if period > 0 && math.Mod(t, period) >= on {
			continue
		}
		cx, cy := x0+ux*t, y0+uy*t
		r := image.Rect(
			int(math.Floor(cx-half)), int(math.Floor(cy-half)),
			int(math.Ceil(cx+half)), int(math.Ceil(cy+half)),
		)
		xdraw.Draw(b.img, r, src, image.Point{}, xdraw.Over)
	}
}

func dashPattern(style geom.BorderStyle, scale float64) (on, period float64) {
	switch style {
	case geom.BorderDashed:
		return 3 * scale, 6 * scale
	case geom.BorderDotted:
		return 1 * scale, 3 * scale
	}
	return 0, 0
}

// Export encodes the image as PNG.
func (b *Backend) Export() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTo exports the image and writes it to path.
func (b *Backend) WriteTo(path string) error {
	data, err := b.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// face resolves a drawing face for the family, preferring registered
// TrueType data and standing in with the Go fonts otherwise. Faces
// are cached per family, size, and weight.
func (b *Backend) face(family string, size float64, bold bool) (xfont.Face, error) {
	key := faceKey{family: strings.ToLower(strings.TrimSpace(family)), size: size, bold: bold}
	if f, ok := b.faces[key]; ok {
		return f, nil
	}
	parsed := b.font(key.family, bold)
	var face xfont.Face
	var err error
	if parsed != nil {
		face, err = opentype.NewFace(parsed, &opentype.FaceOptions{
			Size:    size,
			DPI:     b.dpi,
			Hinting: xfont.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("size font %s: %w", family, err)
		}
	} else {
		face = basicfont.Face7x13
	}
	b.faces[key] = face
	return face, nil
}

// font parses and caches the TrueType program for a family. A nil
// result means no program could be parsed and the bitmap fallback
// face applies.
func (b *Backend) font(family string, bold bool) *sfnt.Font {
	key := family
	if bold {
		key += "|bold"
	}
	if f, ok := b.parsed[key]; ok {
		return f
	}
	data := goregular.TTF
	if bold {
		data = gobold.TTF
	}
	if face := b.registry.Face(family, bold); face != nil {
		data = face.Data
	}
	parsed, err := sfnt.Parse(data)
	if err != nil {
		parsed = nil
	}
	b.parsed[key] = parsed
	return parsed
}

func rgba(c geom.Color) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(clamp01(c.R) * 255)),
		G: uint8(math.Round(clamp01(c.G) * 255)),
		B: uint8(math.Round(clamp01(c.B) * 255)),
		A: 255,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func (b *Backend) devX(x float64) int {
	return int(math.Round(x * b.scale))
}

func (b *Backend) devY(y float64) int {
	return int(math.Round((b.size.H - y) * b.scale))
}
