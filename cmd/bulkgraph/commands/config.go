package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/bulkgraph/am"
)

// ConfigCmd groups the configuration commands
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or show the bulkgraph configuration",
	Long: `Create or show the bulkgraph configuration.

Configuration sources (in order of precedence):
1. Command line flags of the import command
2. Environment variables (BULKGRAPH_* prefix, e.g. BULKGRAPH_IMPORT_BATCH_SIZE)
3. Project config (./bulkgraph.toml, searched upward from the working directory)
4. User config (~/.bulkgraph/bulkgraph.toml)
5. Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var (
	configPath   string
	configForce  bool
	configFormat string
)

func init() {
	configInitCmd.Flags().StringVar(&configPath, "path", am.ConfigFileName, "Where to write the configuration")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := am.WriteDefault(configPath, configForce); err != nil {
		return err
	}
	pterm.Success.Printf("Configuration written to %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Fprintf(out, "# bulkgraph configuration\n%s", string(data))

	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# bulkgraph configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}
