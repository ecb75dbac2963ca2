package pagebox

import (
	"github.com/pagebox/pagebox/canvas"
	"github.com/pagebox/pagebox/canvas/pdf"
	"github.com/pagebox/pagebox/canvas/raster"
	"github.com/pagebox/pagebox/fonts"
	"github.com/pagebox/pagebox/geom"
	"github.com/pagebox/pagebox/layout"
	"github.com/pagebox/pagebox/observability"
)

// Format selects the export encoding.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// Option adjusts the rendering pipeline.
type Option func(*config)

type config struct {
	format   Format
	compress bool
	dpi      float64
	measure  layout.Measurer
	sizer    layout.ImageSizer
	registry *fonts.Registry
	log      observability.Logger
	backend  func(geom.Size) canvas.Canvas
}

func newConfig(opts ...Option) *config {
	c := &config{format: FormatPDF, log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithFormat selects the output encoding. The default is PDF.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithCompression toggles PDF content stream compression.
func WithCompression(on bool) Option {
	return func(c *config) { c.compress = on }
}

// WithDPI sets the PNG output resolution. 72 maps one point to one
// pixel.
func WithDPI(dpi float64) Option {
	return func(c *config) { c.dpi = dpi }
}

// WithMeasurer overrides the text estimation used for layout,
// alignment and wrapping. fonts.NewMeasurer supplies real metrics for
// registered faces; the default is the rough per-rune heuristic.
func WithMeasurer(m layout.Measurer) Option {
	return func(c *config) { c.measure = m }
}

// WithImageSizer enables intrinsic sizing of fit-dimensioned images.
func WithImageSizer(s layout.ImageSizer) Option {
	return func(c *config) { c.sizer = s }
}

// WithFonts supplies TrueType faces for embedding (PDF) and
// rasterizing (PNG).
func WithFonts(reg *fonts.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger attaches a logger. Stage timings and sizes log at debug
// level.
func WithLogger(l observability.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBackend substitutes canvas construction entirely, bypassing the
// format selection. Intended for recording canvases in tests.
func WithBackend(factory func(geom.Size) canvas.Canvas) Option {
	return func(c *config) { c.backend = factory }
}

func (c *config) canvas(size geom.Size) canvas.Canvas {
	if c.backend != nil {
		return c.backend(size)
	}
	if c.format == FormatPNG {
		opts := []raster.Option{}
		if c.dpi > 0 {
			opts = append(opts, raster.WithDPI(c.dpi))
		}
		if c.measure != nil {
			opts = append(opts, raster.WithMeasurer(c.measure))
		}
		if c.registry != nil {
			opts = append(opts, raster.WithRegistry(c.registry))
		}
		return raster.New(size, opts...)
	}
	opts := []pdf.Option{pdf.WithCompression(c.compress)}
	if c.measure != nil {
		opts = append(opts, pdf.WithMeasurer(c.measure))
	}
	if c.registry != nil {
		opts = append(opts, pdf.WithRegistry(c.registry))
	}
	return pdf.New(size, opts...)
}
