package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the ghostlink version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ghostlink version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
