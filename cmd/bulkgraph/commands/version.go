package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/bulkgraph/display"
	"github.com/teranos/bulkgraph/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show bulkgraph version information",
	Long:  `Display version, build time, commit hash, and platform information for the bulkgraph binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(info)
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\n", info.Platform)
		fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", info.GoVersion)
		return nil
	},
}
