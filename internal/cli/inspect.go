package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/fonts"
	"github.com/pagebox/pagebox/layout"
)

// inspectOpts holds the inspect command flags. They mirror the render
// flags that influence resolution so the printed geometry matches what
// render would draw.
type inspectOpts struct {
	fontConfig  string
	intrinsic   bool
	realMetrics bool
}

func newInspectCmd() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the resolved box geometry without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], &opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.fontConfig, "fonts", "", "TOML font declaration file for embedded fonts")
	cmd.Flags().BoolVar(&opts.intrinsic, "intrinsic-images", false, "size fit images from their pixel dimensions")
	cmd.Flags().BoolVar(&opts.realMetrics, "real-metrics", false, "measure text with registered font metrics instead of the heuristic")

	return cmd
}

func runInspect(input string, opts *inspectOpts, out io.Writer) error {
	doc, err := parseInput(input)
	if err != nil {
		return err
	}

	var layoutOpts []layout.Option
	if opts.fontConfig != "" {
		reg, err := fonts.LoadConfig(opts.fontConfig)
		if err != nil {
			return err
		}
		if opts.realMetrics {
			layoutOpts = append(layoutOpts, layout.WithMeasurer(fonts.NewMeasurer(reg)))
		}
	} else if opts.realMetrics {
		return fmt.Errorf("--real-metrics needs a font file registered via --fonts")
	}
	if opts.intrinsic {
		layoutOpts = append(layoutOpts, layout.WithImageSizer(layout.FileSizer{}))
	}

	resolved, err := layout.Resolve(doc, layoutOpts...)
	if err != nil {
		return err
	}

	writeDocument(out, resolved)
	return nil
}

func writeDocument(w io.Writer, doc *box.Document) {
	fmt.Fprintf(w, "document %s x %s\n", doc.Width, doc.Height)
	for _, row := range doc.Children {
		writeRow(w, row, 1)
	}
}

func writeRow(w io.Writer, row *box.Row, depth int) {
	fmt.Fprintf(w, "%srow %s x %s\n", indent(depth), row.Width, row.Height)
	for _, col := range row.Children {
		writeCol(w, col, depth+1)
	}
}

func writeCol(w io.Writer, col *box.Col, depth int) {
	fmt.Fprintf(w, "%scol %s x %s\n", indent(depth), col.Width, col.Height)
	for _, child := range col.Children {
		switch c := child.(type) {
		case *box.Text:
			fmt.Fprintf(w, "%stext %q\n", indent(depth+1), snippet(c.Content))
		case *box.Image:
			fmt.Fprintf(w, "%simg %s %s x %s\n", indent(depth+1), c.Src, c.Width, c.Height)
		case *box.Row:
			writeRow(w, c, depth+1)
		}
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// snippet shortens text content for tree output, keeping the first
// line only.
func snippet(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	if runes := []rune(s); len(runes) > 48 {
		s = string(runes[:48]) + "..."
	}
	return s
}
