package main

import (
	"fmt"

	"github.com/aretw0/wingnotes"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of wingnotes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wingnotes version %s\n", wingnotes.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
