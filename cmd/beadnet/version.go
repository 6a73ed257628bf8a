package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/beadnet"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of beadnet",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "beadnet version %s\n", strings.TrimSpace(beadnet.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
