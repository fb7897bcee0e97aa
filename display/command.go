package display

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// JSONEnv forces JSON output when set to a true value
const JSONEnv = "BULKGRAPH_JSON"

// ShouldOutputJSON determines if a command should output JSON based on flags and environment
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return jsonFromEnv()
	}

	// Check if --json flag was explicitly set
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	// Check global --json flag
	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return jsonFromEnv()
}

func jsonFromEnv() bool {
	v, err := strconv.ParseBool(os.Getenv(JSONEnv))
	return err == nil && v
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
