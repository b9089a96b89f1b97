package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version, e.g. "v0.3.0"
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information shown by --version. The main
// package calls it with values injected through ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// newRootCmd builds the command tree. Log output goes to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "neuroscope",
		Short:        "neuroscope synthesizes microscopy images of neuron morphologies",
		Long:         `neuroscope renders SWC neuron reconstructions through simulated segmentation, fluorescence and multi-slice fluorescence microscopes, embedded in a procedural tissue background.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("neuroscope %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCaptureCmd())
	root.AddCommand(newTissueCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newServeCmd())

	return root
}

// Execute runs the neuroscope CLI under ctx. Logs go to stderr at info
// level, or debug level with --verbose.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stderr).ExecuteContext(ctx)
}
