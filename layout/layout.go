// Package layout resolves every declared dimension in a box tree into
// a concrete point value: two coupled passes per axis (row stacks on
// the vertical axis, column rows on the horizontal one), min-then-max
// clamping, and fill distribution after all fixed and fit siblings on
// the axis are settled.
package layout

import (
	"fmt"
	"math"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/geom"
)

// Error reports a failed layout resolution.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "layout: " + e.Msg + ": " + e.Err.Error()
	}
	return "layout: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures a resolution pass.
type Option func(*resolver)

// WithMeasurer substitutes the content measurement strategy.
func WithMeasurer(m Measurer) Option {
	return func(r *resolver) { r.measure = m }
}

// WithImageSizer enables intrinsic image sizing for fit-dimensioned
// images. The default resolves fit image axes to zero.
func WithImageSizer(s ImageSizer) Option {
	return func(r *resolver) { r.sizer = s }
}

type resolver struct {
	measure Measurer
	sizer   ImageSizer
}

// Resolve returns a copy of doc in which every width and height on
// every node is a concrete, non-negative point value and all min/max
// fields are cleared. Resolving an already-resolved tree yields the
// same values.
func Resolve(doc *box.Document, opts ...Option) (out *box.Document, err error) {
	if doc == nil {
		return nil, &Error{Msg: "expected document"}
	}
	r := &resolver{measure: DefaultHeuristic()}
	for _, o := range opts {
		o(r)
	}
	// Estimation walks arbitrary caller-built trees; a panic there is
	// reported as a layout failure, not propagated as a crash.
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, &Error{Msg: fmt.Sprintf("internal resolution failure: %v", rec)}
		}
	}()
	return r.document(doc)
}

func (r *resolver) document(doc *box.Document) (*box.Document, error) {
	if !doc.Width.IsSet() || !doc.Height.IsSet() {
		return nil, &Error{Msg: "document width and height must be set"}
	}
	w := rootPoints(doc.Width)
	h := rootPoints(doc.Height)

	font := doc.Font
	if font.Family == "" {
		font.Family = box.DefaultFamily
	}
	if font.Size <= 0 {
		font.Size = box.DefaultFontSize
	}

	innerW := math.Max(0, w-doc.Padding.Horizontal())
	innerH := math.Max(0, h-doc.Padding.Vertical())
	return &box.Document{
		Width:    geom.Points(w),
		Height:   geom.Points(h),
		Padding:  doc.Padding,
		Font:     font,
		Children: r.rowStack(doc.Children, innerW, innerH, font),
	}, nil
}

// rootPoints converts the document's own dimensions. Percentages,
// fill and fit are meaningless at the root and resolve to zero.
func rootPoints(d geom.Dimension) float64 {
	if d.Unit == geom.UnitPoint {
		return math.Max(0, d.Value)
	}
	return 0
}

// clamp applies the min bound first and the max bound after it, so a
// contradictory pair lands on max. Bounds resolve against the parent
// dimension on the same axis.
func clamp(v float64, min, max geom.Dimension, parent float64) float64 {
	if b, ok := bound(min, parent); ok && v < b {
		v = b
	}
	if b, ok := bound(max, parent); ok && v > b {
		v = b
	}
	return v
}

func bound(d geom.Dimension, parent float64) (float64, bool) {
	switch d.Unit {
	case geom.UnitPoint:
		return d.Value, true
	case geom.UnitPercent:
		return parent * d.Value / 100, true
	}
	return 0, false
}

// effective substitutes the node-kind default for undeclared
// dimensions, so hand-built trees behave like parsed ones.
func effective(d, def geom.Dimension) geom.Dimension {
	if d.IsSet() {
		return d
	}
	return def
}
