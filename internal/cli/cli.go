// Package cli implements the pagebox command line interface: a render
// command producing PDF or PNG output from box markup, Markdown or
// HTML sources, and an inspect command printing resolved geometry.
// Commands log through charmbracelet/log; --verbose raises the level
// to debug and --quiet drops everything below errors.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// SetVersion records the build information shown by --version. main
// injects the values via ldflags.
func SetVersion(v, c string) {
	version = v
	commit = c
}

// Execute runs the pagebox CLI under ctx and returns the first command
// error. Cancelling ctx aborts the running command.
func Execute(ctx context.Context) error {
	var verbose, quiet bool

	root := &cobra.Command{
		Use:          "pagebox",
		Short:        "pagebox renders declarative box markup to PDF and PNG",
		Long:         `pagebox lays out documents described as nested rows and columns and renders them to PDF or PNG. Markdown and HTML sources are converted to the same box model first.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			if quiet {
				level = charmlog.ErrorLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("pagebox %s (%s)\n", version, commit))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log errors only")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newInspectCmd())

	return root.ExecuteContext(ctx)
}
