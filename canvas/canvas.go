// Package canvas defines the drawing capability interface between the
// box renderer and concrete output backends. The renderer only ever
// holds the interface; PDF, raster and recorder implementations are
// interchangeable.
package canvas

import (
	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/geom"
)

// ImageSource names a drawable image as a readable file on disk. The
// renderer materializes inline-encoded sources to transient files
// before handing them to a backend.
type ImageSource struct {
	Path string
}

// Canvas is the primitive drawing surface. Coordinates are
// bottom-left origin with y increasing upward; converting from the
// layout engine's top-down frame is the renderer's job. A canvas is
// owned by exactly one render call at a time; calls are sequential.
type Canvas interface {
	// SetFont selects the font for subsequent text operations.
	SetFont(family string, size float64, bold bool) error

	// SetLineLeading sets the baseline-to-baseline distance used by
	// TextWrap for wrapped and hard-broken lines.
	SetLineLeading(leading float64)

	// TextWrap draws text wrapped into the given box. topLeft is the
	// box's top-left corner in canvas coordinates. The box height is
	// never smaller than one line.
	TextWrap(topLeft geom.Point, size geom.Size, text string, align box.HAlign) error

	// AddImage places an image with its bottom-left corner at the
	// given point, scaled to size.
	AddImage(img ImageSource, bottomLeft geom.Point, size geom.Size) error

	// SetStrokeColor, SetLineWidth and SetLineStyle configure the pen
	// for Line segments. Style is a hint; dash rendering is the
	// backend's responsibility.
	SetStrokeColor(c geom.Color)
	SetLineWidth(w float64)
	SetLineStyle(s geom.BorderStyle)

	// Line records a segment on the current path; Stroke paints the
	// accumulated path with the current pen.
	Line(from, to geom.Point)
	Stroke() error

	// Size reports the canvas dimensions in points.
	Size() geom.Size

	// Export finalizes the canvas and returns the encoded output.
	Export() ([]byte, error)

	// WriteTo exports and writes the output to a file.
	WriteTo(path string) error

	// Cleanup releases any resources held by the canvas. It is safe
	// to call after a failed operation.
	Cleanup() error
}
