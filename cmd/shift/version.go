package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shift/internal/finder"
	"shift/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		if !finder.IsAvailable() {
			fmt.Fprintln(cmd.OutOrStdout(), "Parser: unavailable (built without cgo)")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
