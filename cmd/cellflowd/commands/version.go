package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cellflowd version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("cellflowd", Version)
		return nil
	},
}
