// Package geom holds the geometry value types shared by the layout
// engine and the canvas backends: dimensions, spacing, borders,
// colors, and the attribute grammars that produce them.
package geom

// PointsPerPixel converts CSS-style pixels to PDF points (96 px = 72 pt).
const PointsPerPixel = 72.0 / 96.0

// Unit tags the interpretation of a Dimension value.
type Unit uint8

const (
	UnitUnset Unit = iota
	UnitPoint
	UnitPercent
	UnitFill
	UnitFit
)

// Dimension is a declared size on one axis. The zero value is unset;
// defaulting is the tree builder's job, resolution is the layout
// engine's.
type Dimension struct {
	Unit  Unit
	Value float64
}

// Points returns a fixed dimension in points.
func Points(v float64) Dimension { return Dimension{Unit: UnitPoint, Value: v} }

// Pixels returns a fixed dimension converted from pixels at 0.75 pt/px.
func Pixels(v float64) Dimension { return Dimension{Unit: UnitPoint, Value: v * PointsPerPixel} }

// Percent returns a dimension resolved against the parent size.
func Percent(v float64) Dimension { return Dimension{Unit: UnitPercent, Value: v} }

// Fill returns a dimension that shares the space left over after all
// fixed and fit siblings on the axis are resolved.
func Fill() Dimension { return Dimension{Unit: UnitFill} }

// Fit returns a dimension that shrink-wraps to estimated content size.
func Fit() Dimension { return Dimension{Unit: UnitFit} }

// IsSet reports whether the dimension was declared.
func (d Dimension) IsSet() bool { return d.Unit != UnitUnset }

func (d Dimension) String() string {
	switch d.Unit {
	case UnitPoint:
		return formatFloat(d.Value) + "pt"
	case UnitPercent:
		return formatFloat(d.Value) + "%"
	case UnitFill:
		return "fill"
	case UnitFit:
		return "fit"
	default:
		return "unset"
	}
}

// Spacing is a four-sided quantity in points (padding, offsets).
type Spacing struct {
	Top, Right, Bottom, Left float64
}

// Uniform returns the same spacing on all four sides.
func Uniform(v float64) Spacing { return Spacing{Top: v, Right: v, Bottom: v, Left: v} }

// Symmetric returns vertical spacing on top/bottom and horizontal
// spacing on left/right.
func Symmetric(vertical, horizontal float64) Spacing {
	return Spacing{Top: vertical, Right: horizontal, Bottom: vertical, Left: horizontal}
}

// Horizontal is the combined left+right spacing.
func (s Spacing) Horizontal() float64 { return s.Left + s.Right }

// Vertical is the combined top+bottom spacing.
func (s Spacing) Vertical() float64 { return s.Top + s.Bottom }

// BorderStyle is the stroke style hint passed through to backends.
type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
)

// Border describes one side of a box edge. The zero value means no
// border.
type Border struct {
	Style BorderStyle
	Width float64
	Color Color
}

// None reports whether the border draws nothing.
func (b Border) None() bool { return b.Style == "" || b.Width <= 0 }

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Point is a position in points. The layout engine produces top-down
// coordinates; canvas backends consume bottom-left ones.
type Point struct {
	X, Y float64
}

// Size is a width/height pair in points.
type Size struct {
	W, H float64
}

// A4 is the ISO A4 page size in points, the default geometry for
// front-ends that have no page geometry of their own.
var A4 = Size{W: 595.28, H: 841.89}
