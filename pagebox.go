// Package pagebox turns declarative box markup into rendered pages.
//
// The pipeline has three stages behind one call: the markup front-end
// builds a box tree, the layout resolver turns every declared
// dimension into concrete points, and the renderer replays the
// resolved tree onto an export backend (PDF by default, PNG on
// request). Each stage fails with its own error type: ParseError from
// markup, layout.Error, render.Error.
package pagebox

import (
	"fmt"
	"os"
	"time"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/geom"
	"github.com/pagebox/pagebox/layout"
	"github.com/pagebox/pagebox/markup"
	"github.com/pagebox/pagebox/observability"
	"github.com/pagebox/pagebox/render"
)

// Render parses box markup and writes the rendered document to path.
func Render(src []byte, path string, opts ...Option) error {
	data, err := RenderBytes(src, opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderBytes parses box markup and returns the encoded document.
func RenderBytes(src []byte, opts ...Option) ([]byte, error) {
	c := newConfig(opts...)
	start := time.Now()
	doc, err := markup.Parse(src)
	if err != nil {
		return nil, err
	}
	c.log.Debug("markup parsed",
		observability.Int(observability.MetricNodeCount, countNodes(doc)),
		observability.Float64(observability.MetricParseTime, ms(start)))
	return c.pipeline(doc)
}

// RenderTree renders an already built document tree. The tree may use
// unresolved dimensions; resolution happens here.
func RenderTree(doc *box.Document, opts ...Option) ([]byte, error) {
	return newConfig(opts...).pipeline(doc)
}

func (c *config) pipeline(doc *box.Document) ([]byte, error) {
	if c.backend == nil {
		switch c.format {
		case FormatPDF, FormatPNG:
		default:
			return nil, fmt.Errorf("unknown format %q", c.format)
		}
	}

	start := time.Now()
	resolved, err := layout.Resolve(doc, c.layoutOptions()...)
	if err != nil {
		return nil, err
	}
	c.log.Debug("layout resolved",
		observability.Float64(observability.MetricResolveTime, ms(start)))

	cv := c.canvas(geom.Size{W: resolved.Width.Value, H: resolved.Height.Value})
	defer func() {
		if err := cv.Cleanup(); err != nil {
			c.log.Warn("canvas cleanup", observability.Error("err", err))
		}
	}()

	start = time.Now()
	if err := render.New(cv, c.renderOptions()...).Render(resolved); err != nil {
		return nil, err
	}
	c.log.Debug("document rendered",
		observability.Float64(observability.MetricRenderTime, ms(start)))

	data, err := cv.Export()
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	c.log.Debug("document exported",
		observability.Int(observability.MetricExportBytes, len(data)))
	return data, nil
}

func (c *config) layoutOptions() []layout.Option {
	var opts []layout.Option
	if c.measure != nil {
		opts = append(opts, layout.WithMeasurer(c.measure))
	}
	if c.sizer != nil {
		opts = append(opts, layout.WithImageSizer(c.sizer))
	}
	return opts
}

func (c *config) renderOptions() []render.Option {
	if c.measure != nil {
		return []render.Option{render.WithMeasurer(c.measure)}
	}
	return nil
}

func ms(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

func countNodes(doc *box.Document) int {
	n := 1
	for _, row := range doc.Children {
		n += countRow(row)
	}
	return n
}

func countRow(row *box.Row) int {
	n := 1
	for _, col := range row.Children {
		n++
		for _, child := range col.Children {
			if nested, ok := child.(*box.Row); ok {
				n += countRow(nested)
				continue
			}
			n++
		}
	}
	return n
}
