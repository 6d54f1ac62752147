package main

import (
	"fmt"

	"github.com/aretw0/callflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of callflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "callflow version %s\n", callflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
