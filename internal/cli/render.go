package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagebox/pagebox"
	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/fonts"
	"github.com/pagebox/pagebox/layout"
	"github.com/pagebox/pagebox/markup"
)

// renderOpts holds the render command flags.
type renderOpts struct {
	output      string
	format      string
	compress    bool
	dpi         float64
	fontConfig  string
	intrinsic   bool
	realMetrics bool
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{format: "pdf", dpi: 72}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a document to PDF or PNG",
		Long: `Render a document to PDF or PNG.

The source format is picked from the file extension: .md and .markdown
are treated as Markdown, .html and .htm as HTML, everything else as box
markup.

Examples:
  pagebox render invoice.xml
  pagebox render report.md -o report.pdf --compress
  pagebox render page.xml --format png --dpi 144`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from the input name if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: pdf or png")
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "deflate PDF content streams")
	cmd.Flags().Float64Var(&opts.dpi, "dpi", opts.dpi, "raster resolution for png output")
	cmd.Flags().StringVar(&opts.fontConfig, "fonts", "", "TOML font declaration file for embedded fonts")
	cmd.Flags().BoolVar(&opts.intrinsic, "intrinsic-images", false, "size fit images from their pixel dimensions")
	cmd.Flags().BoolVar(&opts.realMetrics, "real-metrics", false, "measure text with registered font metrics instead of the heuristic")

	return cmd
}

func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	doc, err := parseInput(input)
	if err != nil {
		return err
	}

	boxOpts, err := buildOptions(ctx, opts)
	if err != nil {
		return err
	}
	data, err := pagebox.RenderTree(doc, boxOpts...)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	logger.Infof("Generated %s (%d bytes)", out, len(data))
	return nil
}

// parseInput reads the source file and picks the front end from its
// extension. Markdown and HTML sources become A4 documents; anything
// else is parsed as box markup.
func parseInput(path string) (*box.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return markup.ParseMarkdown(src)
	case ".html", ".htm":
		return markup.ParseHTML(src)
	default:
		return markup.Parse(src)
	}
}

// buildOptions translates the command flags into library options,
// including a logger adapter so pipeline stages show up in --verbose
// output.
func buildOptions(ctx context.Context, opts *renderOpts) ([]pagebox.Option, error) {
	result := []pagebox.Option{
		pagebox.WithLogger(charmLogger{l: loggerFromContext(ctx)}),
	}

	switch opts.format {
	case "pdf":
		result = append(result, pagebox.WithFormat(pagebox.FormatPDF), pagebox.WithCompression(opts.compress))
	case "png":
		result = append(result, pagebox.WithFormat(pagebox.FormatPNG), pagebox.WithDPI(opts.dpi))
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'pdf' or 'png')", opts.format)
	}

	if opts.fontConfig != "" {
		reg, err := fonts.LoadConfig(opts.fontConfig)
		if err != nil {
			return nil, err
		}
		result = append(result, pagebox.WithFonts(reg))
		if opts.realMetrics {
			result = append(result, pagebox.WithMeasurer(fonts.NewMeasurer(reg)))
		}
	} else if opts.realMetrics {
		return nil, fmt.Errorf("--real-metrics needs a font file registered via --fonts")
	}

	if opts.intrinsic {
		result = append(result, pagebox.WithImageSizer(layout.FileSizer{}))
	}
	return result, nil
}
