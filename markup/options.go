package markup

import (
	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/geom"
)

// DefaultPagePadding is the content inset applied to generated pages.
const DefaultPagePadding = 50.0

// DocOption adjusts the page geometry and base font of documents
// built by the markdown and HTML front-ends.
type DocOption func(*box.Document)

// WithPageSize overrides the page dimensions in points.
func WithPageSize(width, height float64) DocOption {
	return func(d *box.Document) {
		d.Width = geom.Points(width)
		d.Height = geom.Points(height)
	}
}

// WithPagePadding overrides the page padding.
func WithPagePadding(p geom.Spacing) DocOption {
	return func(d *box.Document) { d.Padding = p }
}

// WithBaseFont overrides the base font context. Heading sizes scale
// from its size.
func WithBaseFont(f box.Font) DocOption {
	return func(d *box.Document) { d.Font = f }
}

func newPage(opts ...DocOption) *box.Document {
	doc := &box.Document{
		Width:   geom.Points(geom.A4.W),
		Height:  geom.Points(geom.A4.H),
		Padding: geom.Uniform(DefaultPagePadding),
		Font:    box.Font{Family: box.DefaultFamily, Size: box.DefaultFontSize},
	}
	for _, opt := range opts {
		opt(doc)
	}
	return doc
}

// headingSize scales the base size by heading level: top headings
// double it, subheadings step down to 1.5x and 1.25x.
func headingSize(base box.Font, level int) float64 {
	switch {
	case level <= 1:
		return base.Size * 2
	case level == 2:
		return base.Size * 1.5
	}
	return base.Size * 1.25
}

func headingRow(base box.Font, level int, text string) *box.Row {
	col := box.NewCol(&box.Text{Content: text})
	col.Font = box.FontOverride{Size: headingSize(base, level), Weight: box.WeightBold}
	return box.NewRow(col)
}

func textRow(text string) *box.Row {
	return box.NewRow(box.NewCol(&box.Text{Content: text}))
}

// bulletRow indents list items behind a fixed bullet cell.
func bulletRow(text string) *box.Row {
	bullet := box.NewCol(&box.Text{Content: "•"})
	bullet.Width = geom.Points(15)
	return box.NewRow(bullet, box.NewCol(&box.Text{Content: text}))
}

func spacerRow(base box.Font) *box.Row {
	row := box.NewRow()
	row.Height = geom.Points(base.Size / 2)
	return row
}
