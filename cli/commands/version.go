package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/dbprobe/cli/internal/ui"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func versionString() string {
	return fmt.Sprintf("%s (commit: %s)", Version, GitCommit)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dbprobe version %s\n", Version)
			ui.PrintKeyValue(out, "Commit", GitCommit)
			ui.PrintKeyValue(out, "Built", BuildTime)
			ui.PrintKeyValue(out, "Go", runtime.Version())
			ui.PrintKeyValue(out, "Platform", runtime.GOOS+"/"+runtime.GOARCH)
		},
	}
}
