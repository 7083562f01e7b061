package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the brushctl build version, set via -ldflags at build time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the brushctl version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("brushctl " + Version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
