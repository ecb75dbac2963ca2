// Package box defines the document tree consumed by the layout
// engine: a Document of Rows, Rows of Cols, and Col content (text,
// images, nested rows). Nodes are built once by a front-end or by
// hand, resolved into a same-shaped tree with concrete point values,
// then rendered.
package box

import "github.com/pagebox/pagebox/geom"

// HAlign controls horizontal placement of content within a column.
type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

// VAlign controls vertical placement of content within a column.
type VAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignCenter VAlign = "center"
	VAlignBottom VAlign = "bottom"
)

// Borders holds the four independent edge borders of a row or column.
type Borders struct {
	Top, Right, Bottom, Left geom.Border
}

// UniformBorders applies the same border to all four sides.
func UniformBorders(b geom.Border) Borders {
	return Borders{Top: b, Right: b, Bottom: b, Left: b}
}

// Node is the content of a column: a Text run, an Image, or a nested
// Row. The set is closed.
type Node interface {
	node()
}

// Document is the tree root. Width and Height are required and must
// resolve to absolute points; Percent, Fill and Fit are meaningless at
// the root and resolve to zero.
type Document struct {
	Width    geom.Dimension
	Height   geom.Dimension
	Padding  geom.Spacing
	Font     Font
	Children []*Row
}

// Row is a horizontal band of columns. Height defaults to Fit, width
// to Fill. Rows carry no font fields; the inherited context passes
// through unchanged.
type Row struct {
	Width     geom.Dimension
	Height    geom.Dimension
	MinHeight geom.Dimension
	MaxHeight geom.Dimension
	Padding   geom.Spacing
	Borders   Borders
	VAlign    VAlign
	Children  []*Col
}

// Col is a vertical cell inside a row. Width and height default to
// Fill. Its children render in document order: text runs, images and
// nested rows interleaved exactly as declared.
type Col struct {
	Width    geom.Dimension
	MinWidth geom.Dimension
	MaxWidth geom.Dimension
	Height   geom.Dimension
	Padding  geom.Spacing
	Borders  Borders
	Font     FontOverride
	Align    HAlign
	VAlign   VAlign
	Children []Node
}

// Text is a run of character content. Explicit newlines are hard line
// breaks; soft wrapping is the estimator's and backend's concern.
type Text struct {
	Content string
}

// Image references a drawable image by file path or data: URI. Both
// dimensions default to Fit.
type Image struct {
	Src       string
	Width     geom.Dimension
	Height    geom.Dimension
	MinWidth  geom.Dimension
	MaxWidth  geom.Dimension
	MinHeight geom.Dimension
	MaxHeight geom.Dimension
}

func (*Text) node()  {}
func (*Image) node() {}
func (*Row) node()   {}

// NewRow returns a row with the declared defaults (height fit, width
// fill).
func NewRow(children ...*Col) *Row {
	return &Row{Width: geom.Fill(), Height: geom.Fit(), Children: children}
}

// NewCol returns a column with the declared defaults (width and
// height fill).
func NewCol(children ...Node) *Col {
	return &Col{Width: geom.Fill(), Height: geom.Fill(), Children: children}
}

// NewImage returns an image node with both axes fit.
func NewImage(src string) *Image {
	return &Image{Src: src, Width: geom.Fit(), Height: geom.Fit()}
}
