// Package render walks a resolved box tree and draws it onto a canvas.
//
// Layout coordinates grow downward from the top-left page corner while
// canvases use the bottom-up frame native to PDF, so every draw call
// flips its y coordinate against the page height. Rows paint top to
// bottom, columns left to right, and each box strokes its borders
// before its content.
package render

import (
	"math"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/canvas"
	"github.com/pagebox/pagebox/geom"
	"github.com/pagebox/pagebox/layout"
)

// Error reports a failed draw.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "render: " + e.Msg + ": " + e.Err.Error()
	}
	return "render: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures a Renderer.
type Option func(*Renderer)

// WithMeasurer overrides the text measurer used for reserved heights
// and line leading. It should be the measurer the tree was resolved
// with, or drawn positions drift from reserved space.
func WithMeasurer(m layout.Measurer) Option {
	return func(r *Renderer) { r.measure = m }
}

// Renderer draws resolved documents onto a canvas. Trees must come out
// of layout.Resolve first; rendering reads only point-valued
// dimensions.
type Renderer struct {
	canvas  canvas.Canvas
	measure layout.Measurer
}

// New returns a Renderer drawing onto c.
func New(c canvas.Canvas, opts ...Option) *Renderer {
	r := &Renderer{canvas: c, measure: layout.DefaultHeuristic()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws the document. It stops at the first backend failure and
// returns it wrapped in *Error.
func (r *Renderer) Render(doc *box.Document) error {
	if doc == nil {
		return &Error{Msg: "expected document"}
	}
	if doc.Width.Unit != geom.UnitPoint || doc.Height.Unit != geom.UnitPoint {
		return &Error{Msg: "tree has unresolved dimensions"}
	}
	w := &walker{canvas: r.canvas, measure: r.measure, pageH: doc.Height.Value}
	x := doc.Padding.Left
	y := doc.Padding.Top
	for _, row := range doc.Children {
		if err := w.row(row, x, y, doc.Font); err != nil {
			return err
		}
		y += row.Height.Value
	}
	return nil
}

type walker struct {
	canvas  canvas.Canvas
	measure layout.Measurer
	pageH   float64
}

// canvasY converts a top-down layout coordinate into the bottom-up
// canvas frame.
func (w *walker) canvasY(layoutY float64) float64 { return w.pageH - layoutY }

// frame is a box interior in layout coordinates.
type frame struct {
	x, y, w, h float64
}

func (f frame) bottom() float64 { return f.y + f.h }

func (w *walker) row(row *box.Row, x, y float64, font box.Font) error {
	if err := w.borders(x, y, row.Width.Value, row.Height.Value, row.Borders); err != nil {
		return err
	}
	cx := x + row.Padding.Left
	cy := y + row.Padding.Top
	for _, col := range row.Children {
		if err := w.col(col, cx, cy, row, font); err != nil {
			return err
		}
		cx += col.Width.Value
	}
	return nil
}

func (w *walker) col(col *box.Col, x, y float64, row *box.Row, inherited box.Font) error {
	width := col.Width.Value
	height := col.Height.Value
	if err := w.borders(x, y, width, height, col.Borders); err != nil {
		return err
	}
	font := col.Font.Apply(inherited)
	inner := frame{
		x: x + col.Padding.Left,
		y: y + col.Padding.Top,
		w: math.Max(0, width-col.Padding.Horizontal()),
		h: math.Max(0, height-col.Padding.Vertical()),
	}

	align := col.Align
	if align == "" {
		align = box.AlignLeft
	}
	valign := col.VAlign
	if valign == "" {
		valign = row.VAlign
	}
	if valign == "" {
		valign = box.VAlignTop
	}

	cursor := inner.y
	for _, child := range col.Children {
		switch c := child.(type) {
		case *box.Text:
			advance, err := w.text(c.Content, inner, cursor, font, align, valign)
			if err != nil {
				return err
			}
			cursor += advance
		case *box.Image:
			advance, err := w.image(c, inner, cursor, align, valign)
			if err != nil {
				return err
			}
			cursor += advance
		case *box.Row:
			if err := w.row(c, inner.x, cursor, font); err != nil {
				return err
			}
			cursor += c.Height.Value
		}
	}
	return nil
}

// text draws one run and reports how far the cursor advances. The box
// handed to the backend always spans at least one line so a cramped
// column still shows its first line.
func (w *walker) text(content string, inner frame, cursor float64, font box.Font, align box.HAlign, valign box.VAlign) (float64, error) {
	if err := w.canvas.SetFont(font.Family, font.Size, font.Bold); err != nil {
		return 0, &Error{Msg: "set font", Err: err}
	}
	lineH := w.measure.LineHeight(font)
	w.canvas.SetLineLeading(lineH)

	estH := w.measure.TextHeight(content, inner.w, font)
	top := textTop(valign, cursor, inner, estH, font.Size)

	// Backends align each wrapped line inside the box themselves, so
	// the box spans the full inner width and its origin stays on the
	// left edge. Shifting here too would double the offset.
	size := geom.Size{
		W: inner.w,
		H: math.Max(lineH, inner.bottom()-top),
	}
	origin := geom.Point{X: inner.x, Y: w.canvasY(top)}
	if err := w.canvas.TextWrap(origin, size, content, align); err != nil {
		return 0, &Error{Msg: "draw text", Err: err}
	}
	return estH, nil
}

// image draws one image and reports the cursor advance. Inline sources
// are staged to a transient file that is removed again whether or not
// the backend accepts the image. Images resolved to a degenerate size
// are skipped but still occupy their height.
func (w *walker) image(img *box.Image, inner frame, cursor float64, align box.HAlign, valign box.VAlign) (float64, error) {
	width := img.Width.Value
	height := img.Height.Value
	if width <= 0 || height <= 0 {
		return math.Max(0, height), nil
	}
	path, done, err := materialize(img.Src)
	if err != nil {
		return 0, &Error{Msg: "inline image", Err: err}
	}
	defer done()

	x := inner.x + alignOffset(align, inner.w, width)
	top := imageTop(valign, cursor, inner, height)
	bottomLeft := geom.Point{X: x, Y: w.canvasY(top + height)}
	if err := w.canvas.AddImage(canvas.ImageSource{Path: path}, bottomLeft, geom.Size{W: width, H: height}); err != nil {
		return 0, &Error{Msg: "draw image", Err: err}
	}
	return height, nil
}

// borders strokes the four sides in top, right, bottom, left order,
// skipping absent sides. Each side is an independent stroke so width
// and color never bleed between sides.
func (w *walker) borders(x, y, width, height float64, b box.Borders) error {
	top := w.canvasY(y)
	bottom := w.canvasY(y + height)
	sides := []struct {
		border   geom.Border
		from, to geom.Point
	}{
		{b.Top, geom.Point{X: x, Y: top}, geom.Point{X: x + width, Y: top}},
		{b.Right, geom.Point{X: x + width, Y: top}, geom.Point{X: x + width, Y: bottom}},
		{b.Bottom, geom.Point{X: x, Y: bottom}, geom.Point{X: x + width, Y: bottom}},
		{b.Left, geom.Point{X: x, Y: top}, geom.Point{X: x, Y: bottom}},
	}
	for _, s := range sides {
		if s.border.None() {
			continue
		}
		w.canvas.SetStrokeColor(s.border.Color)
		w.canvas.SetLineWidth(s.border.Width)
		w.canvas.SetLineStyle(s.border.Style)
		w.canvas.Line(s.from, s.to)
		if err := w.canvas.Stroke(); err != nil {
			return &Error{Msg: "stroke border", Err: err}
		}
	}
	return nil
}

// alignOffset shifts an image of width est inside the available inner
// width. Text never comes through here: backends align text per line.
func alignOffset(align box.HAlign, avail, est float64) float64 {
	switch align {
	case box.AlignCenter:
		return math.Max(0, (avail-est)/2)
	case box.AlignRight:
		return math.Max(0, avail-est)
	default:
		return 0
	}
}

// textTop places a text run below the cursor, shifted down when the
// column's free space calls for center or bottom alignment. Center
// offsets by half the font size rather than half the estimated height
// so a single line sits on the optical middle of the column.
func textTop(valign box.VAlign, cursor float64, inner frame, estH, fontSize float64) float64 {
	free := inner.bottom() - cursor
	switch valign {
	case box.VAlignCenter:
		return cursor + math.Max(0, free/2-fontSize/2)
	case box.VAlignBottom:
		return cursor + math.Max(0, free-estH)
	default:
		return cursor
	}
}

// imageTop is the vertical companion of alignOffset for images, which
// center on their true height.
func imageTop(valign box.VAlign, cursor float64, inner frame, imgH float64) float64 {
	free := inner.bottom() - cursor
	switch valign {
	case box.VAlignCenter:
		return cursor + math.Max(0, (free-imgH)/2)
	case box.VAlignBottom:
		return cursor + math.Max(0, free-imgH)
	default:
		return cursor
	}
}
