package canvas

import (
	"fmt"
	"os"
	"strings"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/geom"
)

// Op is one recorded drawing operation.
type Op interface{ op() }

type FontOp struct {
	Family string
	Size   float64
	Bold   bool
}

type LeadingOp struct {
	Leading float64
}

type TextOp struct {
	TopLeft geom.Point
	Size    geom.Size
	Text    string
	Align   box.HAlign
}

type ImageOp struct {
	Src        ImageSource
	BottomLeft geom.Point
	Size       geom.Size
}

type StrokeColorOp struct {
	Color geom.Color
}

type LineWidthOp struct {
	Width float64
}

type LineStyleOp struct {
	Style geom.BorderStyle
}

type LineOp struct {
	From, To geom.Point
}

type StrokeOp struct{}

func (FontOp) op()        {}
func (LeadingOp) op()     {}
func (TextOp) op()        {}
func (ImageOp) op()       {}
func (StrokeColorOp) op() {}
func (LineWidthOp) op()   {}
func (LineStyleOp) op()   {}
func (LineOp) op()        {}
func (StrokeOp) op()      {}

// Recorder is an in-memory Canvas that captures every drawing call
// for inspection. TextErr, ImageErr and StrokeErr inject failures to
// exercise error paths.
type Recorder struct {
	W, H      float64
	Ops       []Op
	CleanedUp bool

	TextErr   error
	ImageErr  error
	StrokeErr error
}

// NewRecorder returns a recorder canvas of the given page size.
func NewRecorder(w, h float64) *Recorder {
	return &Recorder{W: w, H: h}
}

func (r *Recorder) SetFont(family string, size float64, bold bool) error {
	r.Ops = append(r.Ops, FontOp{Family: family, Size: size, Bold: bold})
	return nil
}

func (r *Recorder) SetLineLeading(leading float64) {
	r.Ops = append(r.Ops, LeadingOp{Leading: leading})
}

func (r *Recorder) TextWrap(topLeft geom.Point, size geom.Size, text string, align box.HAlign) error {
	if r.TextErr != nil {
		return r.TextErr
	}
	r.Ops = append(r.Ops, TextOp{TopLeft: topLeft, Size: size, Text: text, Align: align})
	return nil
}

func (r *Recorder) AddImage(img ImageSource, bottomLeft geom.Point, size geom.Size) error {
	if r.ImageErr != nil {
		return r.ImageErr
	}
	r.Ops = append(r.Ops, ImageOp{Src: img, BottomLeft: bottomLeft, Size: size})
	return nil
}

func (r *Recorder) SetStrokeColor(c geom.Color) {
	r.Ops = append(r.Ops, StrokeColorOp{Color: c})
}

func (r *Recorder) SetLineWidth(w float64) {
	r.Ops = append(r.Ops, LineWidthOp{Width: w})
}

func (r *Recorder) SetLineStyle(s geom.BorderStyle) {
	r.Ops = append(r.Ops, LineStyleOp{Style: s})
}

func (r *Recorder) Line(from, to geom.Point) {
	r.Ops = append(r.Ops, LineOp{From: from, To: to})
}

func (r *Recorder) Stroke() error {
	if r.StrokeErr != nil {
		return r.StrokeErr
	}
	r.Ops = append(r.Ops, StrokeOp{})
	return nil
}

func (r *Recorder) Size() geom.Size { return geom.Size{W: r.W, H: r.H} }

// Export renders the recorded operations as one line per call, which
// makes test failures readable.
func (r *Recorder) Export() ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "canvas %gx%g\n", r.W, r.H)
	for _, op := range r.Ops {
		fmt.Fprintf(&sb, "%#v\n", op)
	}
	return []byte(sb.String()), nil
}

func (r *Recorder) WriteTo(path string) error {
	data, err := r.Export()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *Recorder) Cleanup() error {
	r.CleanedUp = true
	return nil
}

// TextOps filters the recorded text operations.
func (r *Recorder) TextOps() []TextOp {
	var out []TextOp
	for _, op := range r.Ops {
		if t, ok := op.(TextOp); ok {
			out = append(out, t)
		}
	}
	return out
}

// ImageOps filters the recorded image operations.
func (r *Recorder) ImageOps() []ImageOp {
	var out []ImageOp
	for _, op := range r.Ops {
		if i, ok := op.(ImageOp); ok {
			out = append(out, i)
		}
	}
	return out
}

// LineOps filters the recorded line segments.
func (r *Recorder) LineOps() []LineOp {
	var out []LineOp
	for _, op := range r.Ops {
		if l, ok := op.(LineOp); ok {
			out = append(out, l)
		}
	}
	return out
}
