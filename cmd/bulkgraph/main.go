package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/bulkgraph/cmd/bulkgraph/commands"
	"github.com/teranos/bulkgraph/display"
	"github.com/teranos/bulkgraph/logger"
)

var rootCmd = &cobra.Command{
	Use:   "bulkgraph",
	Short: "bulkgraph - parallel bulk importer for graph stores",
	Long: `bulkgraph - parallel bulk importer for graph stores.

Reads nodes and relationships from CSV files and writes them into an empty
store directory through staged pipelines whose step parallelism is tuned
while the import runs.

Available commands:
  import  - Import CSV nodes and relationships into a new store
  config  - Create or show the bulkgraph configuration
  version - Show version information

Examples:
  bulkgraph config init                                  # Write bulkgraph.toml with defaults
  bulkgraph import --nodes n.csv --relationships r.csv   # Import into store.path
  bulkgraph import -v --display human ...                # Human progress with info logs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.InitializeWithVerbosity(display.ShouldOutputJSON(cmd), verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output JSON instead of human-readable text")

	rootCmd.AddCommand(commands.ImportCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
